package discretepiece

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// newSentenceSource resolves the configured input into a SentenceIterator:
// the caller's Iterator if set, otherwise a multiFileSentenceIterator over
// spec.Input. Validate already enforces these are mutually exclusive.
func newSentenceSource(spec *TrainerSpec) (SentenceIterator, error) {
	if spec.Iterator != nil {
		return spec.Iterator, nil
	}
	return newMultiFileSentenceIterator(spec.Input, spec.Deliminator)
}

// multiFileSentenceIterator reads spec.md §6's text corpus row syntax
// ("key CODE CODE CODE …\n") across a list of files, substituting
// configured delimiter bytes for delimiterCode. Grounded on
// original_source/trainer_interface.cc's MultiFileSentenceIterator.
type multiFileSentenceIterator struct {
	files      []string
	delimBytes map[byte]bool

	fileIdx int
	scanner *bufio.Scanner
	current *os.File
	err     error
}

func newMultiFileSentenceIterator(files []string, deliminator string) (*multiFileSentenceIterator, error) {
	delimBytes := make(map[byte]bool, len(deliminator))
	for i := 0; i < len(deliminator); i++ {
		delimBytes[deliminator[i]] = true
	}
	it := &multiFileSentenceIterator{files: files, delimBytes: delimBytes}
	if err := it.openNext(); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *multiFileSentenceIterator) openNext() error {
	if it.current != nil {
		it.current.Close()
		it.current = nil
	}
	for it.fileIdx < len(it.files) {
		name := it.files[it.fileIdx]
		it.fileIdx++
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("%w: opening corpus file %q: %v", ErrIO, name, err)
		}
		it.current = f
		it.scanner = bufio.NewScanner(f)
		it.scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		return nil
	}
	return nil
}

// Next implements SentenceIterator.
func (it *multiFileSentenceIterator) Next() (Sentence, bool) {
	for it.err == nil {
		if it.scanner == nil {
			return Sentence{}, false
		}
		if it.scanner.Scan() {
			line := it.scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			return it.parseLine(line), true
		}
		if err := it.scanner.Err(); err != nil {
			it.err = fmt.Errorf("%w: reading corpus: %v", ErrIO, err)
			return Sentence{}, false
		}
		if err := it.openNext(); err != nil {
			it.err = err
			return Sentence{}, false
		}
		if it.current == nil {
			// No more files to open.
			return Sentence{}, false
		}
	}
	return Sentence{}, false
}

func (it *multiFileSentenceIterator) parseLine(line string) Sentence {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Sentence{}
	}
	key := fields[0]
	codes := make([]Code, 0, len(fields)-1)
	for _, f := range fields[1:] {
		if len(f) == 1 && it.delimBytes[f[0]] {
			codes = append(codes, delimiterCode)
			continue
		}
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			// Not a recognized delimiter and not a decimal code: skip the
			// malformed field rather than aborting the whole corpus load.
			continue
		}
		codes = append(codes, Code(n))
	}
	return Sentence{Key: key, Codes: codes}
}

// Err implements SentenceIterator.
func (it *multiFileSentenceIterator) Err() error { return it.err }

// pieceToText renders a piece using "_" as the element separator, per
// spec.md §6 ("12_7_405").
func pieceToText(chars []Code) string {
	var b strings.Builder
	for i, c := range chars {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return b.String()
}

// pieceFromText reverses pieceToText.
func pieceFromText(s string) ([]Code, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty piece text", ErrInvalidPiece)
	}
	parts := strings.Split(s, "_")
	chars := make([]Code, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: piece element %q: %v", ErrInvalidPiece, p, err)
		}
		chars[i] = Code(n)
	}
	return chars, nil
}

// WriteVocabFile writes the one-piece-per-line vocabulary file of spec.md
// §6: "piece\tscore" or just "piece", controlled by
// VocabularyOutputPieceScore.
func WriteVocabFile(w *bufio.Writer, vocab *Vocabulary, withScore bool) error {
	for id := 0; id < vocab.Size(); id++ {
		piece, _ := vocab.IDToPiece(id)
		text := pieceToText(piece)
		var err error
		if withScore {
			_, err = fmt.Fprintf(w, "%s\t%g\n", text, vocab.IDToScore(id))
		} else {
			_, err = fmt.Fprintf(w, "%s\n", text)
		}
		if err != nil {
			return fmt.Errorf("%w: writing vocab file: %v", ErrIO, err)
		}
	}
	return w.Flush()
}
