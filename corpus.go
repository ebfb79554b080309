package discretepiece

import (
	"fmt"
	"log/slog"
	"sort"
)

// Sentence is one raw corpus row: a key (for traceability; unused by the
// algorithm itself) and a sequence of codes with delimiterCode already
// substituted for configured delimiter bytes. This is spec.md §1's
// "abstract iterator of (key, sequence<int>)".
type Sentence struct {
	Key   string
	Codes []Code
}

// SentenceIterator supplies corpus rows one at a time. Next returns
// ok == false once exhausted; callers must check Err afterward.
type SentenceIterator interface {
	Next() (s Sentence, ok bool)
	Err() error
}

// tooManySentencesThreshold mirrors original_source's
// SentenceSelector::kTooBigSentencesSize: above this many loaded rows we
// warn that training will be slow and suggest subsampling (spec.md §7:
// warnings are logged, not errored).
const tooManySentencesThreshold = 1_000_000

// row is a corpus entry after delimiter splitting: a delimiter-free run of
// codes with its aggregate weight (spec.md §3's Corpus).
type row struct {
	chars  []Code
	weight int64
}

// preparedCorpus is the loaded, split, sorted corpus plus the required
// single-code alphabet, ready for the trainer driver.
type preparedCorpus struct {
	rows          []row
	requiredChars map[Code]int64
}

// loadCorpus implements spec.md §4.2: read rows (respecting
// InputSentenceSize/ShuffleInputSentence), skip empty rows, accumulate
// requiredChars, verify vocab_size, then split every row on the delimiter
// and regroup identical runs.
func loadCorpus(spec *TrainerSpec, log *slog.Logger) (*preparedCorpus, error) {
	it, err := newSentenceSource(spec)
	if err != nil {
		return nil, err
	}

	rawRows, total, err := selectSentences(it, spec, log)
	if err != nil {
		return nil, err
	}

	if total > tooManySentencesThreshold {
		log.Warn("too many sentences loaded, training may be slow",
			"loaded", len(rawRows), "total_seen", total,
			"hint", "consider input_sentence_size and shuffle_input_sentence")
	}
	if total == len(rawRows) {
		log.Info("loaded all sentences", "count", len(rawRows))
	} else {
		log.Info("sampled sentences from corpus", "sampled", len(rawRows), "total", total)
	}

	requiredChars := make(map[Code]int64)
	for _, r := range rawRows {
		for _, c := range r.Codes {
			if c == delimiterCode {
				continue
			}
			requiredChars[c] += 1
		}
	}

	if spec.VocabSize < len(requiredChars) {
		return nil, fmt.Errorf("%w: vocab_size (%d) must be >= alphabet size (%d)",
			ErrInvalidConfig, spec.VocabSize, len(requiredChars))
	}

	rows := splitAndRegroup(rawRows)
	return &preparedCorpus{rows: rows, requiredChars: requiredChars}, nil
}

// splitAndRegroup implements spec.md §4.2's "splitting on the delimiter":
// every row's delimiter-free runs become independent rows, identical runs
// are merged with weights summed, and the result is sorted descending by
// weight with a lexicographic tie-break on chars for determinism.
func splitAndRegroup(rawRows []Sentence) []row {
	type key = string
	counts := make(map[key]int64)
	content := make(map[key][]Code)

	for _, s := range rawRows {
		start := 0
		for i := 0; i <= len(s.Codes); i++ {
			if i == len(s.Codes) || s.Codes[i] == delimiterCode {
				if i > start {
					run := s.Codes[start:i]
					k := codeSliceKey(run)
					counts[k]++
					if _, ok := content[k]; !ok {
						cp := make([]Code, len(run))
						copy(cp, run)
						content[k] = cp
					}
				}
				start = i + 1
			}
		}
	}

	rows := make([]row, 0, len(counts))
	for k, w := range counts {
		rows = append(rows, row{chars: content[k], weight: w})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].weight != rows[j].weight {
			return rows[i].weight > rows[j].weight
		}
		return lessCodes(rows[i].chars, rows[j].chars)
	})
	return rows
}

func codeSliceKey(codes []Code) string {
	b := make([]byte, 4*len(codes))
	for i, c := range codes {
		b[4*i] = byte(c)
		b[4*i+1] = byte(c >> 8)
		b[4*i+2] = byte(c >> 16)
		b[4*i+3] = byte(c >> 24)
	}
	return string(b)
}

// lessCodes is the element-wise lexicographic comparator used throughout
// the trainer for deterministic tie-breaks (spec.md §4.4).
func lessCodes(a, b []Code) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// selectSentences drains it according to spec.md §4.2's sampling rules and
// returns the kept rows plus the total number of non-empty rows observed
// (used only for load logging and the "too many sentences" warning).
func selectSentences(it SentenceIterator, spec *TrainerSpec, log *slog.Logger) ([]Sentence, int, error) {
	limit := spec.InputSentenceSize
	shuffle := limit > 0 && spec.ShuffleInputSentence

	var kept []Sentence
	var sampler *reservoir
	if shuffle {
		sampler = newReservoir(limit, spec.seed())
	}

	total := 0
	for {
		s, ok := it.Next()
		if !ok {
			break
		}
		if len(s.Codes) == 0 {
			continue
		}
		total++

		switch {
		case limit == 0:
			kept = append(kept, s)
		case shuffle:
			sampler.add(s)
		default:
			kept = append(kept, s)
			if len(kept) >= limit {
				goto done
			}
		}
	}
done:
	if err := it.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if shuffle {
		kept = sampler.items
	}
	return kept, total, nil
}

// reservoir implements Algorithm R reservoir sampling seeded
// deterministically, per spec.md §4.2/§8 Scenario F ("identical sampled
// subset across runs on the same input").
type reservoir struct {
	k     int
	items []Sentence
	seen  int64
	rng   *splitmix
}

func newReservoir(k int, seed uint64) *reservoir {
	return &reservoir{k: k, items: make([]Sentence, 0, k), rng: newSplitmix(seed)}
}

func (r *reservoir) add(s Sentence) {
	if len(r.items) < r.k {
		r.items = append(r.items, s)
		r.seen++
		return
	}
	j := int(r.rng.next() % uint64(r.seen+1))
	if j < r.k {
		r.items[j] = s
	}
	r.seen++
}

// splitmix is a small deterministic PRNG used for reservoir sampling, in
// the same spirit as the teacher's hash-driven makeSample rng (train.go):
// a pure function of state, no dependency on global process entropy, so
// identical seeds reproduce identical samples across runs and machines.
type splitmix struct{ state uint64 }

func newSplitmix(seed uint64) *splitmix { return &splitmix{state: seed} }

func (s *splitmix) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
