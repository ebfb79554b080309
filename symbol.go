package discretepiece

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// handle is a stable, non-owning reference into an arena's backing slice.
// nullHandle marks the absence of a symbol (used in place of a null
// pointer for unary symbols' left/right fields).
type handle int32

const nullHandle handle = -1

// position identifies one occurrence of a bigram symbol in the corpus: row
// sid, with the bigram currently occupying slots [left, right]. This is the
// Go-idiomatic stand-in for spec.md's "encoded (sid, left_index,
// right_index) triple" — a comparable struct used directly as a map key
// instead of packing the three indices into a single uint64, since Go map
// keys aren't restricted to integers and packing would impose an arbitrary
// width limit on row length for no benefit.
type position struct {
	sid, left, right int32
}

// symbol is the training-time entity of spec.md §3: either a unary symbol
// (a single code, left == right == nullHandle) or a bigram symbol (the
// concatenation of two interned symbols).
type symbol struct {
	fingerprint uint64
	chars       []Code
	left, right handle

	// freq is the lazily-recomputed aggregate corpus frequency. 0 means
	// "stale, recompute" per spec.md §4.3/§9; genuine zero-frequency
	// symbols are pruned from positions before they could linger at 0, so
	// the sentinel never collides with a real count.
	freq int64

	// positions is the inverted index of (sid, left, right) triples where
	// this bigram currently sits in the corpus. Empty for unary symbols.
	positions map[position]struct{}

	// retired marks a symbol the trainer has removed from the fingerprint
	// cache (emitted as a piece, or discarded as a duplicate path to an
	// already-emitted piece). A retired handle's slot in arena.symbols is
	// never reused, but it must no longer be selectable as a candidate.
	retired bool
}

// isBigram reports whether s was formed by merging two other symbols.
func (s *symbol) isBigram() bool { return s.left != nullHandle }

// arena owns every Symbol created during a training run and interns them by
// fingerprint, per spec.md §4.1. Handles remain valid for the arena's
// lifetime; the arena is discarded wholesale at the end of training.
type arena struct {
	symbols []symbol
	byFP    map[uint64]handle

	// bigramHandles lists every bigram handle ever created, in creation
	// order. Creation order is deterministic for a fixed corpus and
	// algorithm, so iterating this slice (rather than ranging over byFP,
	// whose Go map order is randomized) keeps active-set refresh
	// reproducible across runs.
	bigramHandles []handle
}

func newArena() *arena {
	return &arena{byFP: make(map[uint64]handle, 1024)}
}

func (a *arena) get(h handle) *symbol { return &a.symbols[h] }

// internUnary returns the interned unary symbol for code c, creating it on
// first use with freq seeded from requiredFreq (the per-code corpus weight
// computed while loading the corpus; spec.md §4.1 requires at least 1).
//
// Per spec.md §3, fingerprint(unary c) = c: unary fingerprints are the bare
// code value, not run through hash_combine.
func (a *arena) internUnary(c Code, requiredFreq int64) handle {
	fp := uint64(c)
	if h, ok := a.byFP[fp]; ok {
		return h
	}
	if requiredFreq < 1 {
		requiredFreq = 1
	}
	h := handle(len(a.symbols))
	a.symbols = append(a.symbols, symbol{
		fingerprint: fp,
		chars:       []Code{c},
		left:        nullHandle,
		right:       nullHandle,
		freq:        requiredFreq,
	})
	a.byFP[fp] = h
	return h
}

// internPair returns the interned bigram symbol for left·right, or
// nullHandle if either operand is absent or the concatenation would not be
// a valid piece (spec.md §4.1). maxLen is the configured max_piece_length.
func (a *arena) internPair(left, right handle, maxLen int) handle {
	if left == nullHandle || right == nullHandle {
		return nullHandle
	}
	ls, rs := a.get(left), a.get(right)
	fp := hashCombine(ls.fingerprint, rs.fingerprint)
	if h, ok := a.byFP[fp]; ok {
		return h
	}

	chars := make([]Code, 0, len(ls.chars)+len(rs.chars))
	chars = append(chars, ls.chars...)
	chars = append(chars, rs.chars...)
	if !isValidPiece(chars, maxLen) {
		return nullHandle
	}

	h := handle(len(a.symbols))
	a.symbols = append(a.symbols, symbol{
		fingerprint: fp,
		chars:       chars,
		left:        left,
		right:       right,
		positions:   make(map[position]struct{}),
	})
	a.byFP[fp] = h
	a.bigramHandles = append(a.bigramHandles, h)
	return h
}

// remove evicts a symbol from the fingerprint table and marks it retired
// (used when the trainer retires a merged or duplicate symbol). The slot in
// a.symbols is left in place; handles referencing it simply become
// unreachable via byFP, and interning the same pair again creates a fresh
// symbol under a new handle.
func (a *arena) remove(h handle) {
	sym := a.get(h)
	delete(a.byFP, sym.fingerprint)
	sym.retired = true
}

// isLive reports whether h has not been retired.
func (a *arena) isLive(h handle) bool { return !a.get(h).retired }

// isValidPiece checks the piece validity rules of spec.md §3: non-empty,
// length-bounded, delimiter-free.
func isValidPiece(chars []Code, maxLen int) bool {
	if len(chars) == 0 || len(chars) > maxLen {
		return false
	}
	for _, c := range chars {
		if c == delimiterCode {
			return false
		}
	}
	return true
}

// hashCombine mixes two fingerprints into one using xxhash, per spec.md
// §9's "pick one canonical combiner" open question. Structure-dependence
// (hash_combine(hash_combine(a,b),c) != hash_combine(a,hash_combine(b,c)))
// falls out naturally since xxhash digests the pair's byte encoding rather
// than performing an associative arithmetic mix.
func hashCombine(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}
