package discretepiece

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPieceToTextAndBack(t *testing.T) {
	piece := []Code{12, 7, 405}
	text := pieceToText(piece)
	if text != "12_7_405" {
		t.Fatalf("unexpected text form: %q", text)
	}
	back, err := pieceFromText(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(back) != len(piece) {
		t.Fatalf("round trip length mismatch: %v", back)
	}
	for i := range piece {
		if back[i] != piece[i] {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, back, piece)
		}
	}
}

func TestPieceFromTextRejectsEmpty(t *testing.T) {
	if _, err := pieceFromText(""); err == nil {
		t.Fatalf("expected an error for empty piece text")
	}
}

func TestPieceFromTextRejectsGarbage(t *testing.T) {
	if _, err := pieceFromText("12_abc"); err == nil {
		t.Fatalf("expected an error for non-decimal piece element")
	}
}

func TestMultiFileSentenceIteratorSubstitutesDelimiter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(path, []byte("row1 10 10 | 10 10\nrow2 3 4\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	it, err := newMultiFileSentenceIterator([]string{path}, "|")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s1, ok := it.Next()
	if !ok {
		t.Fatalf("expected a first row")
	}
	if s1.Key != "row1" {
		t.Fatalf("unexpected key: %q", s1.Key)
	}
	want := []Code{10, 10, delimiterCode, 10, 10}
	if len(s1.Codes) != len(want) {
		t.Fatalf("unexpected codes: %v", s1.Codes)
	}
	for i := range want {
		if s1.Codes[i] != want[i] {
			t.Fatalf("unexpected code at %d: %v", i, s1.Codes)
		}
	}

	s2, ok := it.Next()
	if !ok || s2.Key != "row2" {
		t.Fatalf("unexpected second row: %+v ok=%v", s2, ok)
	}

	if _, ok := it.Next(); ok {
		t.Fatalf("expected iterator to be exhausted")
	}
	if err := it.Err(); err != nil {
		t.Fatalf("unexpected terminal error: %v", err)
	}
}

func TestMultiFileSentenceIteratorSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(path, []byte("\nrow1 1 2\n\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	it, err := newMultiFileSentenceIterator([]string{path}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := it.Next()
	if !ok || s.Key != "row1" {
		t.Fatalf("expected blank lines skipped, got %+v ok=%v", s, ok)
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("expected exhaustion after the one data row")
	}
}

func TestMultiFileSentenceIteratorMissingFile(t *testing.T) {
	_, err := newMultiFileSentenceIterator([]string{"/nonexistent/path/corpus.txt"}, "")
	if err == nil {
		t.Fatalf("expected an error opening a missing file")
	}
}

func TestWriteVocabFileWithAndWithoutScore(t *testing.T) {
	vocab, err := newVocabulary([]finalPiece{
		{chars: []Code{1}, score: 0},
		{chars: []Code{2, 3}, score: -1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteVocabFile(bufio.NewWriter(&buf), vocab, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "1\t0\n2_3\t-1\n" {
		t.Fatalf("unexpected output with score: %q", buf.String())
	}

	buf.Reset()
	if err := WriteVocabFile(bufio.NewWriter(&buf), vocab, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "1\n2_3\n" {
		t.Fatalf("unexpected output without score: %q", buf.String())
	}
}
