package discretepiece

import "testing"

func rowOf(codes ...Code) ([]handle, *arena) {
	a := newArena()
	row := make([]handle, len(codes))
	for i, c := range codes {
		row[i] = a.internUnary(c, 1)
	}
	return row, a
}

func TestBigramEngineNextPrevIndex(t *testing.T) {
	row, a := rowOf(1, 2, 3)
	e := newBigramEngine(a, [][]handle{row}, []int64{1}, 8)

	row[1] = nullHandle // simulate a merged-away slot
	if got := e.nextIndex(0, 0); got != 2 {
		t.Fatalf("nextIndex should skip empty slot, got %d", got)
	}
	if got := e.prevIndex(0, 2); got != 0 {
		t.Fatalf("prevIndex should skip empty slot, got %d", got)
	}
	if got := e.nextIndex(0, 2); got != -1 {
		t.Fatalf("nextIndex past the end should be -1, got %d", got)
	}
}

func TestAddNewPairAndComputeFreq(t *testing.T) {
	row, a := rowOf(1, 2, 1, 2)
	e := newBigramEngine(a, [][]handle{row}, []int64{5}, 8)

	e.addNewPair(0, 0, 1)
	e.addNewPair(0, 2, 3)

	h := a.byFP[hashCombine(a.get(row[0]).fingerprint, a.get(row[1]).fingerprint)]
	e.computeFreq(h)
	if a.get(h).freq != 10 {
		t.Fatalf("expected freq 10 (two occurrences at weight 5), got %d", a.get(h).freq)
	}
}

func TestComputeFreqPrunesStalePositions(t *testing.T) {
	row, a := rowOf(1, 2, 1, 2)
	e := newBigramEngine(a, [][]handle{row}, []int64{1}, 8)

	e.addNewPair(0, 0, 1)
	e.addNewPair(0, 2, 3)
	h := a.byFP[hashCombine(a.get(row[0]).fingerprint, a.get(row[1]).fingerprint)]

	row[2] = nullHandle // the second occurrence no longer matches
	a.get(h).freq = 0
	e.computeFreq(h)
	if a.get(h).freq != 1 {
		t.Fatalf("expected freq 1 after pruning stale position, got %d", a.get(h).freq)
	}
	if len(a.get(h).positions) != 1 {
		t.Fatalf("expected stale position removed, got %d remaining", len(a.get(h).positions))
	}
}

func TestUpdateActiveSymbolsCapsToMin1000(t *testing.T) {
	row, a := rowOf(1, 2)
	e := newBigramEngine(a, [][]handle{row}, []int64{1}, 8)
	e.addNewPair(0, 0, 1)

	e.updateActiveSymbols(a.bigramHandles)
	if len(e.active) != 1 {
		t.Fatalf("expected the single live bigram to be active, got %d", len(e.active))
	}
}

func TestResetFreqSkipsBest(t *testing.T) {
	row, a := rowOf(1, 2, 3)
	e := newBigramEngine(a, [][]handle{row}, []int64{1}, 8)
	e.addNewPair(0, 1, 2)
	h := a.byFP[hashCombine(a.get(row[1]).fingerprint, a.get(row[2]).fingerprint)]
	a.get(h).freq = 7

	e.resetFreq(0, 1, 2, h)
	if a.get(h).freq != 7 {
		t.Fatalf("resetFreq should not touch the best symbol, got %d", a.get(h).freq)
	}

	e.resetFreq(0, 1, 2, nullHandle)
	if a.get(h).freq != 0 {
		t.Fatalf("resetFreq should stale a non-best symbol, got %d", a.get(h).freq)
	}
}
