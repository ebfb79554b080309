package discretepiece

import "sort"

// bigramEngine is spec.md §4.3's bigram frequency engine: it owns the
// per-row mutable slot vectors, the symbol arena, and the active working
// set, and provides the position-indexed operations the trainer driver
// rewrites the corpus with after every merge.
type bigramEngine struct {
	arena   *arena
	slots   [][]handle // slots[sid][i]: live symbol at row sid, index i, or nullHandle
	weights []int64    // weights[sid]: row weight

	active map[handle]struct{} // the currently-active subset of bigram symbols

	maxPieceLen int
}

func newBigramEngine(a *arena, slots [][]handle, weights []int64, maxPieceLen int) *bigramEngine {
	return &bigramEngine{
		arena:       a,
		slots:       slots,
		weights:     weights,
		active:      make(map[handle]struct{}),
		maxPieceLen: maxPieceLen,
	}
}

// nextIndex returns the least index > i in row sid whose slot is non-empty,
// or -1 if none exists (spec.md §4.4's GetNextIndex).
func (e *bigramEngine) nextIndex(sid, i int32) int32 {
	row := e.slots[sid]
	for j := i + 1; int(j) < len(row); j++ {
		if row[j] != nullHandle {
			return j
		}
	}
	return -1
}

// prevIndex returns the greatest index < i in row sid whose slot is
// non-empty, or -1 if none exists (spec.md §4.4's GetPrevIndex).
func (e *bigramEngine) prevIndex(sid, i int32) int32 {
	row := e.slots[sid]
	for j := i - 1; j >= 0; j-- {
		if row[j] != nullHandle {
			return j
		}
	}
	return -1
}

// addNewPair implements spec.md §4.3: if either slot is empty, do nothing;
// otherwise intern the pair, and on success record the occurrence and mark
// the pair active.
func (e *bigramEngine) addNewPair(sid, left, right int32) {
	if left == -1 || right == -1 {
		return
	}
	l, r := e.slots[sid][left], e.slots[sid][right]
	if l == nullHandle || r == nullHandle {
		return
	}
	h := e.arena.internPair(l, r, e.maxPieceLen)
	if h == nullHandle {
		return
	}
	sym := e.arena.get(h)
	sym.positions[position{sid, left, right}] = struct{}{}
	e.active[h] = struct{}{}
}

// resetFreq implements spec.md §4.3: intern the pair straddling a merge
// point and, if it exists and isn't the symbol just emitted, mark its freq
// stale so it is lazily recomputed next time it's inspected.
func (e *bigramEngine) resetFreq(sid, left, right int32, best handle) {
	if left == -1 || right == -1 {
		return
	}
	l, r := e.slots[sid][left], e.slots[sid][right]
	if l == nullHandle || r == nullHandle {
		return
	}
	h := e.arena.internPair(l, r, e.maxPieceLen)
	if h == nullHandle || h == best {
		return
	}
	e.arena.get(h).freq = 0
}

// computeFreq implements spec.md §4.3: a no-op if freq is already fresh
// (>0); otherwise walks positions, culling any that no longer reflect the
// live slots, and accumulates the weight of surviving occurrences.
func (e *bigramEngine) computeFreq(h handle) {
	sym := e.arena.get(h)
	if sym.freq > 0 {
		return
	}
	sym.freq = 0
	for pos := range sym.positions {
		if e.slots[pos.sid][pos.left] != sym.left || e.slots[pos.sid][pos.right] != sym.right {
			delete(sym.positions, pos)
			continue
		}
		sym.freq += e.weights[pos.sid]
	}
}

// minActiveSymbols and topFrequentRatio bound the active set size, per
// spec.md §4.3: "top max(1000, 5% x |symbols_cache|)", never shrinking
// below the number of bigrams that actually exist.
const (
	minActiveSymbols = 1000
	topFrequentRatio = 0.05
)

// updateActiveSymbols implements spec.md §4.3: recompute freq for every
// live bigram symbol ever interned, keep the top-K by frequency, and
// replace the active set with them. bigramHandles lists every bigram
// handle the arena has ever produced, in creation order — the caller (the
// trainer driver) owns this list since it also knows which handles have
// since been retired.
func (e *bigramEngine) updateActiveSymbols(bigramHandles []handle) {
	live := make([]handle, 0, len(bigramHandles))
	for _, h := range bigramHandles {
		if !e.arena.isLive(h) {
			continue
		}
		e.computeFreq(h)
		live = append(live, h)
	}

	size := len(live)
	budget := int(max64(minActiveSymbols, int64(float64(len(e.arena.byFP))*topFrequentRatio)))
	if budget < size {
		size = budget
	}

	sort.Slice(live, func(i, j int) bool {
		return e.arena.get(live[i]).freq > e.arena.get(live[j]).freq
	})

	e.active = make(map[handle]struct{}, size)
	for _, h := range live[:size] {
		e.active[h] = struct{}{}
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
