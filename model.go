package discretepiece

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// modelVersion guards the on-disk layout; ReadFrom rejects anything else.
const modelVersion = 1

// ModelSpec is the subset of TrainerSpec persisted with a trained model:
// everything needed to reproduce encoding behavior, excluding the
// runtime-only Input/Iterator fields (spec.md §6 "trainer_spec").
type ModelSpec struct {
	ModelType      ModelType
	VocabSize      int
	MaxPieceLength int
	Deliminator    string
	RandomSeed     uint64
}

func specFromTrainer(s *TrainerSpec) ModelSpec {
	return ModelSpec{
		ModelType:      s.ModelType,
		VocabSize:      s.VocabSize,
		MaxPieceLength: s.MaxPieceLength,
		Deliminator:    s.Deliminator,
		RandomSeed:     s.seed(),
	}
}

// Model is the persisted record of spec.md §6: trainer_spec plus the
// ordered {piece, score} list. Serialization is an explicit binary format
// rather than a schema-driven protobuf message, per SPEC_FULL.md §2 (no
// generated code is hand-authored in this module).
type Model struct {
	Spec  ModelSpec
	Vocab *Vocabulary
}

// NewModel packages a trained Vocabulary with the configuration that
// produced it.
func NewModel(spec *TrainerSpec, vocab *Vocabulary) *Model {
	return &Model{Spec: specFromTrainer(spec), Vocab: vocab}
}

// WriteTo serializes m to w. Layout:
//   - 8 byte header: (version<<32) | piece_count
//   - spec: model_type (string), vocab_size, max_piece_length,
//     deliminator (string), random_seed
//   - per piece: code_count, codes (u64 each), score (float64 bits)
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	var n int64
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], (uint64(modelVersion)<<32)|uint64(uint32(m.Vocab.Size())))
	if err := writeFull(w, &n, hdr[:]); err != nil {
		return n, err
	}

	if err := writeString(w, &n, string(m.Spec.ModelType)); err != nil {
		return n, err
	}
	if err := writeU64(w, &n, uint64(m.Spec.VocabSize)); err != nil {
		return n, err
	}
	if err := writeU64(w, &n, uint64(m.Spec.MaxPieceLength)); err != nil {
		return n, err
	}
	if err := writeString(w, &n, m.Spec.Deliminator); err != nil {
		return n, err
	}
	if err := writeU64(w, &n, m.Spec.RandomSeed); err != nil {
		return n, err
	}

	for id := 0; id < m.Vocab.Size(); id++ {
		piece, _ := m.Vocab.IDToPiece(id)
		if err := writeU64(w, &n, uint64(len(piece))); err != nil {
			return n, err
		}
		for _, c := range piece {
			if err := writeU64(w, &n, uint64(c)); err != nil {
				return n, err
			}
		}
		if err := writeU64(w, &n, math.Float64bits(m.Vocab.IDToScore(id))); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadFrom deserializes a Model from r, replacing m's contents.
func (m *Model) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	var hdr [8]byte
	if err := readFull(r, &n, hdr[:]); err != nil {
		return n, err
	}
	word := binary.LittleEndian.Uint64(hdr[:])
	if word>>32 != modelVersion {
		return n, fmt.Errorf("%w: unsupported model version %d", ErrIO, word>>32)
	}
	pieceCount := int(uint32(word))

	modelType, err := readString(r, &n)
	if err != nil {
		return n, err
	}
	vocabSize, err := readU64(r, &n)
	if err != nil {
		return n, err
	}
	maxPieceLength, err := readU64(r, &n)
	if err != nil {
		return n, err
	}
	deliminator, err := readString(r, &n)
	if err != nil {
		return n, err
	}
	randomSeed, err := readU64(r, &n)
	if err != nil {
		return n, err
	}

	emitted := make([]finalPiece, pieceCount)
	for i := 0; i < pieceCount; i++ {
		codeCount, err := readU64(r, &n)
		if err != nil {
			return n, err
		}
		chars := make([]Code, codeCount)
		for j := range chars {
			v, err := readU64(r, &n)
			if err != nil {
				return n, err
			}
			chars[j] = Code(v)
		}
		bits, err := readU64(r, &n)
		if err != nil {
			return n, err
		}
		emitted[i] = finalPiece{chars: chars, score: math.Float64frombits(bits)}
	}

	vocab, err := newVocabulary(emitted)
	if err != nil {
		return n, err
	}

	m.Spec = ModelSpec{
		ModelType:      ModelType(modelType),
		VocabSize:      int(vocabSize),
		MaxPieceLength: int(maxPieceLength),
		Deliminator:    deliminator,
		RandomSeed:     randomSeed,
	}
	m.Vocab = vocab
	return n, nil
}

func writeFull(w io.Writer, n *int64, b []byte) error {
	nn, err := w.Write(b)
	*n += int64(nn)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func readFull(r io.Reader, n *int64, b []byte) error {
	nn, err := io.ReadFull(r, b)
	*n += int64(nn)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func writeU64(w io.Writer, n *int64, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return writeFull(w, n, b[:])
}

func readU64(r io.Reader, n *int64) (uint64, error) {
	var b [8]byte
	if err := readFull(r, n, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeString(w io.Writer, n *int64, s string) error {
	if err := writeU64(w, n, uint64(len(s))); err != nil {
		return err
	}
	return writeFull(w, n, []byte(s))
}

func readString(r io.Reader, n *int64) (string, error) {
	l, err := readU64(r, n)
	if err != nil {
		return "", err
	}
	b := make([]byte, l)
	if err := readFull(r, n, b); err != nil {
		return "", err
	}
	return string(b), nil
}
