package discretepiece

import "testing"

func trainSpec(sentences []Sentence, vocabSize int) *TrainerSpec {
	return &TrainerSpec{
		Iterator:         &fakeIterator{sentences: sentences},
		ModelType:        ModelTypeBPE,
		VocabSize:        vocabSize,
		MaxPieceLength:   8,
		NumThreads:       1,
		NumSubIterations: 1,
	}
}

func TestTrainToyCorpus(t *testing.T) {
	spec := trainSpec([]Sentence{
		{Key: "a", Codes: []Code{1, 2, 1, 2, 1, 2}},
		{Key: "b", Codes: []Code{1, 2, 3}},
	}, 5)

	vocab, err := Train(spec, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vocab.Size() != 5 {
		t.Fatalf("expected vocab size 5, got %d", vocab.Size())
	}

	id, err := vocab.PieceToID([]Code{1, 2})
	if err != nil || id != 0 {
		t.Fatalf("expected [1,2] to be the first merge (id 0), got id=%d err=%v", id, err)
	}
	id, err = vocab.PieceToID([]Code{1, 2, 1, 2})
	if err != nil || id != 1 {
		t.Fatalf("expected [1,2,1,2] to be the second merge (id 1), got id=%d err=%v", id, err)
	}

	for _, unary := range [][]Code{{1}, {2}, {3}} {
		if _, err := vocab.PieceToID(unary); err != nil {
			t.Fatalf("expected unary piece %v to survive as an alphabet fallback: %v", unary, err)
		}
	}

	// required_chars weight: code 1 and 2 both occur 4 times, code 3 once.
	// Alphabet pieces are appended after the merges, ordered by descending
	// weight with an ascending-code tie-break, so 1 and 2 outrank 3.
	idOne, _ := vocab.PieceToID([]Code{1})
	idThree, _ := vocab.PieceToID([]Code{3})
	if idOne >= idThree {
		t.Fatalf("expected [1] (heavier) to be emitted before [3], got idOne=%d idThree=%d", idOne, idThree)
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	sentences := []Sentence{
		{Key: "a", Codes: []Code{1, 2, 1, 2, 1, 2}},
		{Key: "b", Codes: []Code{1, 2, 3}},
		{Key: "c", Codes: []Code{4, 5, 4, 5}},
	}

	run := func() []Code {
		spec := trainSpec(sentences, 8)
		vocab, err := Train(spec, discardLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var flat []Code
		for id := 0; id < vocab.Size(); id++ {
			piece, _ := vocab.IDToPiece(id)
			flat = append(flat, piece...)
			flat = append(flat, delimiterCode)
		}
		return flat
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("non-deterministic vocab length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at index %d: %v vs %v", i, a, b)
		}
	}
}

func TestTrainSkipsMergingWhenVocabSizeMatchesAlphabet(t *testing.T) {
	spec := trainSpec([]Sentence{
		{Key: "a", Codes: []Code{1, 2, 3}},
	}, 3)

	vocab, err := Train(spec, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vocab.Size() != 3 {
		t.Fatalf("expected no merges (vocab_size == alphabet size), got size %d", vocab.Size())
	}
	for _, unary := range [][]Code{{1}, {2}, {3}} {
		if _, err := vocab.PieceToID(unary); err != nil {
			t.Fatalf("expected unary piece %v present: %v", unary, err)
		}
	}
}

func TestTrainRejectsInvalidSpec(t *testing.T) {
	spec := &TrainerSpec{VocabSize: 0}
	if _, err := Train(spec, discardLogger()); err == nil {
		t.Fatalf("expected a validation error for vocab_size <= 0")
	}
}

func TestTrainTieBreakLexicographicWins(t *testing.T) {
	// "1 2" and "3 4" both occur twice and both have length 2, so they tie
	// on frequency and length and the lexicographic tie-break must pick
	// deterministically; the loser still appears as the next merge.
	spec := trainSpec([]Sentence{
		{Key: "a", Codes: []Code{1, 2, 1, 2}},
		{Key: "b", Codes: []Code{3, 4, 3, 4}},
	}, 6)

	vocab, err := Train(spec, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idFirst, errFirst := vocab.PieceToID([]Code{1, 2})
	idSecond, errSecond := vocab.PieceToID([]Code{3, 4})
	if errFirst != nil || errSecond != nil {
		t.Fatalf("expected both bigrams merged: %v %v", errFirst, errSecond)
	}
	// [1,2] is lexicographically smaller than [3,4], so on a frequency tie
	// it must be emitted first (lower id / higher score).
	if idFirst >= idSecond {
		t.Fatalf("expected [1,2] to win the lexicographic tie-break over [3,4], got idFirst=%d idSecond=%d", idFirst, idSecond)
	}
}
