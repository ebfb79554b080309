package discretepiece

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// finalPiece is one entry of the trainer's output vocabulary before
// Vocabulary freezes it: the piece content plus its assigned score.
type finalPiece struct {
	chars []Code
	score float64
}

// activeSetRefreshInterval is spec.md §4.4's "every 100 emitted pieces".
const activeSetRefreshInterval = 100

// Train runs the BPE trainer of spec.md §4.4 end to end: it loads the
// corpus, runs the priority-driven merge loop, and returns a frozen
// Vocabulary. log may be nil, in which case training proceeds silently.
func Train(spec *TrainerSpec, log *slog.Logger) (*Vocabulary, error) {
	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	corpus, err := loadCorpus(spec, log)
	if err != nil {
		return nil, err
	}

	t := newTrainer(spec, corpus, log)
	return t.run()
}

type trainer struct {
	spec   *TrainerSpec
	log    *slog.Logger
	arena  *arena
	engine *bigramEngine

	slots   [][]handle
	weights []int64

	emitted  []finalPiece
	seen     map[string]bool
	required map[Code]int64
}

func newTrainer(spec *TrainerSpec, corpus *preparedCorpus, log *slog.Logger) *trainer {
	a := newArena()
	slots := make([][]handle, len(corpus.rows))
	weights := make([]int64, len(corpus.rows))

	for sid, r := range corpus.rows {
		weights[sid] = r.weight
		row := make([]handle, len(r.chars))
		for i, c := range r.chars {
			row[i] = a.internUnary(c, corpus.requiredChars[c])
		}
		slots[sid] = row
	}

	return &trainer{
		spec:     spec,
		log:      log,
		arena:    a,
		engine:   newBigramEngine(a, slots, weights, spec.MaxPieceLength),
		slots:    slots,
		weights:  weights,
		seen:     make(map[string]bool),
		required: corpus.requiredChars,
	}
}

// run implements spec.md §4.4's outer loop plus final alphabet fallback.
func (t *trainer) run() (*Vocabulary, error) {
	for sid, row := range t.slots {
		for i := 0; i+1 < len(row); i++ {
			t.engine.addNewPair(int32(sid), int32(i), int32(i+1))
		}
	}

	targetMerges := t.spec.VocabSize - len(t.required)
	if targetMerges < 0 {
		targetMerges = 0
	}

	for len(t.emitted) < targetMerges {
		if len(t.emitted)%activeSetRefreshInterval == 0 {
			t.engine.updateActiveSymbols(t.arena.bigramHandles)
		}

		best, ok := t.selectBest()
		if !ok {
			t.log.Warn("no valid symbol found, stopping before vocab_size reached",
				"emitted", len(t.emitted), "target", targetMerges)
			break
		}

		key := codeSliceKey(best.sym.chars)
		if t.seen[key] {
			// A duplicate can arise from multiple merge paths converging on
			// the same content (spec.md §4.4 step 4): retire and retry.
			t.arena.remove(best.handle)
			delete(t.engine.active, best.handle)
			continue
		}
		t.seen[key] = true

		t.emit(best.sym.chars)
		t.rewrite(best.handle, best.sym)

		t.arena.remove(best.handle)
		delete(t.engine.active, best.handle)

		if len(t.emitted)%20 == 0 {
			t.log.Info("training progress", "emitted", len(t.emitted), "target", targetMerges)
		}
	}

	t.appendAlphabet()

	vocab, err := newVocabulary(t.emitted)
	if err != nil {
		return nil, err
	}
	if vocab.Size() > t.spec.VocabSize {
		return nil, fmt.Errorf("%w: emitted %d pieces, expected at most vocab_size %d",
			ErrInternalInvariant, vocab.Size(), t.spec.VocabSize)
	}
	return vocab, nil
}

type candidate struct {
	handle handle
	sym    *symbol
}

// selectBest implements spec.md §4.4 step 2: scan the active set,
// lazy-recompute frequency, and pick by (freq desc, length asc, lex asc).
func (t *trainer) selectBest() (candidate, bool) {
	var best candidate
	found := false

	for h := range t.engine.active {
		if !t.arena.isLive(h) {
			continue
		}
		t.engine.computeFreq(h)
		sym := t.arena.get(h)
		if sym.freq <= 0 {
			continue
		}
		if !found || better(sym, best.sym) {
			best = candidate{handle: h, sym: sym}
			found = true
		}
	}
	return best, found
}

// better reports whether a ranks ahead of b under spec.md §4.4 step 2's
// tie-break order.
func better(a, b *symbol) bool {
	if a.freq != b.freq {
		return a.freq > b.freq
	}
	if len(a.chars) != len(b.chars) {
		return len(a.chars) < len(b.chars)
	}
	return lessCodes(a.chars, b.chars)
}

func (t *trainer) emit(chars []Code) {
	cp := make([]Code, len(chars))
	copy(cp, chars)
	t.emitted = append(t.emitted, finalPiece{
		chars: cp,
		score: -float64(len(t.emitted)),
	})
}

// rewrite implements spec.md §4.4 step 6: walk every occurrence of best,
// splicing the merged symbol into the corpus and refreshing its neighbors.
// Occurrences are visited in (sid, left) order so that overlapping ones
// (best = X·X over a run of Xs) are merged left to right, the later one
// being skipped once its left slot is empty.
func (t *trainer) rewrite(best handle, sym *symbol) {
	positions := make([]position, 0, len(sym.positions))
	for pos := range sym.positions {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].sid != positions[j].sid {
			return positions[i].sid < positions[j].sid
		}
		return positions[i].left < positions[j].left
	})
	for _, pos := range positions {
		row := t.slots[pos.sid]
		if row[pos.left] == nullHandle {
			continue
		}
		prev := t.engine.prevIndex(pos.sid, pos.left)
		next := t.engine.nextIndex(pos.sid, pos.right)

		t.engine.resetFreq(pos.sid, prev, pos.left, best)
		t.engine.resetFreq(pos.sid, pos.right, next, best)

		row[pos.left] = best
		row[pos.right] = nullHandle

		t.engine.addNewPair(pos.sid, prev, pos.left)
		t.engine.addNewPair(pos.sid, pos.left, next)
	}
}

// appendAlphabet implements spec.md §4.4's post-loop step: every unique
// single-code symbol, sorted by descending required-chars weight with
// ascending-code tie-break, appended with the next decreasing scores.
func (t *trainer) appendAlphabet() {
	codes := make([]Code, 0, len(t.required))
	for c := range t.required {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		wi, wj := t.required[codes[i]], t.required[codes[j]]
		if wi != wj {
			return wi > wj
		}
		return codes[i] < codes[j]
	})
	for _, c := range codes {
		t.emit([]Code{c})
	}
}
