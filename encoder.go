package discretepiece

import "container/heap"

// EncodedPiece is one emitted unit of Encode's output: either a vocabulary
// piece with its id, or a delimiter marker separating independent runs
// (spec.md §4.6 edge cases / §8 Scenario E/7).
type EncodedPiece struct {
	Chars       []Code
	ID          int
	IsDelimiter bool
}

// Encode implements spec.md §4.6 over a full input sequence: it splits on
// delimiterCode into independent runs, BPE-merges each run against v, and
// reassembles the output with delimiter markers restored between runs.
func (v *Vocabulary) Encode(input []Code) ([]EncodedPiece, error) {
	var out []EncodedPiece
	start := 0
	for i := 0; i <= len(input); i++ {
		if i < len(input) && input[i] != delimiterCode {
			continue
		}
		if i > start {
			run, err := v.encodeRun(input[start:i])
			if err != nil {
				return nil, err
			}
			out = append(out, run...)
		}
		if i < len(input) {
			out = append(out, EncodedPiece{IsDelimiter: true})
		}
		start = i + 1
	}
	return out, nil
}

// mergeCandidate is the encoder's heap entry: a proposed merge of the
// symbols currently at indices left and right, stamped with size (the
// combined length at proposal time) so stale entries are rejected at pop
// (spec.md §3 "Encoding-time entities", §4.6 step 4).
type mergeCandidate struct {
	left, right int32
	score       float64
	size        int32
}

// mergeHeap is a max-heap of mergeCandidate ordered by spec.md §4.6 step 3:
// higher score wins, ties broken by smaller left index.
type mergeHeap []mergeCandidate

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].left < h[j].left
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(mergeCandidate)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// encodeRun runs spec.md §4.6 over a single delimiter-free run.
func (v *Vocabulary) encodeRun(run []Code) ([]EncodedPiece, error) {
	n := len(run)
	if n == 0 {
		return nil, nil
	}

	chars := make([][]Code, n)
	prev := make([]int32, n)
	next := make([]int32, n)
	for i, c := range run {
		chars[i] = []Code{c}
		prev[i] = int32(i) - 1
		next[i] = int32(i) + 1
	}
	next[n-1] = -1

	h := &mergeHeap{}
	heap.Init(h)

	tryPush := func(l, r int32) {
		if l == -1 || r == -1 {
			return
		}
		merged := make([]Code, 0, len(chars[l])+len(chars[r]))
		merged = append(merged, chars[l]...)
		merged = append(merged, chars[r]...)
		id, err := v.PieceToID(merged)
		if err != nil {
			return
		}
		heap.Push(h, mergeCandidate{left: l, right: r, score: v.IDToScore(id), size: int32(len(merged))})
	}

	for i := int32(0); i+1 < int32(n); i++ {
		tryPush(i, i+1)
	}

	for h.Len() > 0 {
		c := heap.Pop(h).(mergeCandidate)
		if len(chars[c.left]) == 0 || len(chars[c.right]) == 0 {
			continue
		}
		if int32(len(chars[c.left])+len(chars[c.right])) != c.size {
			continue
		}

		merged := make([]Code, 0, c.size)
		merged = append(merged, chars[c.left]...)
		merged = append(merged, chars[c.right]...)
		chars[c.left] = merged
		chars[c.right] = nil

		newNext := next[c.right]
		next[c.left] = newNext
		if newNext != -1 {
			prev[newNext] = c.left
		}

		tryPush(prev[c.left], c.left)
		tryPush(c.left, next[c.left])
	}

	out := make([]EncodedPiece, 0, n)
	for i := int32(0); i >= 0; i = next[i] {
		id, err := v.PieceToID(chars[i])
		if err != nil {
			return nil, err
		}
		out = append(out, EncodedPiece{Chars: chars[i], ID: id})
	}
	return out, nil
}
