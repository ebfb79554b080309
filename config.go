package discretepiece

import "fmt"

// Code is a single discrete unit from the input alphabet: a non-negative
// 32-bit integer, typically a quantizer codebook index.
type Code = uint32

// delimiterCode is the reserved sentinel substituted in for every configured
// delimiter byte at load time. It may never appear inside a learned piece.
const delimiterCode Code = 1<<32 - 1

// ModelType enumerates supported trainer model types. Only BPE is
// implemented; the field exists so the config shape matches the original
// system's schema (unigram-LM was never ported — see spec.md §1 Non-goals).
type ModelType string

// ModelTypeBPE is the only supported model_type.
const ModelTypeBPE ModelType = "bpe"

// TrainerSpec is the explicit configuration record described in spec.md §6.
// It replaces the original schema-driven protobuf spec with a plain struct,
// per spec.md §9's design note.
type TrainerSpec struct {
	// Input corpus file paths. Mutually exclusive with Iterator.
	Input []string
	// Iterator, when set, supplies (key, sequence) rows directly instead of
	// reading Input from disk. Mutually exclusive with Input.
	Iterator SentenceIterator

	// InputFormat must be empty or "text".
	InputFormat string

	// ModelPrefix is the output file stem (<prefix>.model, <prefix>.vocab).
	ModelPrefix string

	// ModelType must be ModelTypeBPE.
	ModelType ModelType

	// VocabSize is the final vocabulary size; must be >= the alphabet size
	// discovered in the corpus.
	VocabSize int

	// InputSentenceSize caps the number of corpus rows read. 0 means "all".
	// A nonzero value <= 100 is rejected (matches the original's range
	// check, which treats such a small cap as almost certainly a mistake).
	InputSentenceSize int

	// ShuffleInputSentence enables reservoir sampling when InputSentenceSize
	// is set; otherwise the first InputSentenceSize rows are taken and
	// loading stops early.
	ShuffleInputSentence bool

	// NumThreads is forward-compatibility only (§5); BPE training is serial.
	NumThreads int

	// NumSubIterations is reserved for a future unigram-LM trainer; BPE
	// ignores it. Kept in the schema for on-disk compatibility.
	NumSubIterations int

	// MaxPieceLength bounds the length (in codes) of any learned piece.
	MaxPieceLength int

	// VocabularyOutputPieceScore controls whether the vocab file includes a
	// score column.
	VocabularyOutputPieceScore bool

	// Deliminator lists the raw bytes that split a corpus row into
	// independent runs; each occurrence is remapped to delimiterCode.
	Deliminator string

	// RandomSeed seeds the reservoir sampler. The original system hardcodes
	// 12345678; we default to the same constant when unset so historical
	// corpora trained without an explicit seed still reproduce (see
	// SPEC_FULL.md §3).
	RandomSeed uint64
}

// defaultReservoirSeed mirrors original_source's SentenceSelector::kSeed.
const defaultReservoirSeed = 12345678

// Validate checks the spec against the constraints in spec.md §6/§7 and
// original_source/trainer_interface.cc's VerifySpec. It returns
// ErrInvalidConfig wrapped with a description of the failing field.
func (s *TrainerSpec) Validate() error {
	if s.VocabSize <= 0 {
		return fmt.Errorf("%w: vocab_size must be > 0, got %d", ErrInvalidConfig, s.VocabSize)
	}
	if s.ModelType != ModelTypeBPE {
		return fmt.Errorf("%w: model_type %q is not supported, only %q", ErrInvalidConfig, s.ModelType, ModelTypeBPE)
	}
	if s.InputFormat != "" && s.InputFormat != "text" {
		return fmt.Errorf("%w: input_format must be empty or %q, got %q", ErrInvalidConfig, "text", s.InputFormat)
	}
	if s.NumSubIterations < 1 || s.NumSubIterations > 10 {
		return fmt.Errorf("%w: num_sub_iterations must be in [1,10], got %d", ErrInvalidConfig, s.NumSubIterations)
	}
	if s.NumThreads < 1 || s.NumThreads > 1024 {
		return fmt.Errorf("%w: num_threads must be in [1,1024], got %d", ErrInvalidConfig, s.NumThreads)
	}
	if s.InputSentenceSize != 0 && s.InputSentenceSize <= 100 {
		return fmt.Errorf("%w: input_sentence_size must be 0 or > 100, got %d", ErrInvalidConfig, s.InputSentenceSize)
	}
	if s.MaxPieceLength <= 0 {
		return fmt.Errorf("%w: max_discretepiece_length must be > 0, got %d", ErrInvalidConfig, s.MaxPieceLength)
	}
	hasIterator := s.Iterator != nil
	hasInput := len(s.Input) > 0
	if hasIterator == hasInput {
		return fmt.Errorf("%w: exactly one of input or a SentenceIterator must be set", ErrInvalidConfig)
	}
	return nil
}

// applyDefaults fills in the zero-value defaults for fields whose range
// check would otherwise reject an unset value: NumThreads and
// NumSubIterations are forward-compatibility/reserved fields (§5, §9) that
// most callers have no reason to set explicitly.
func (s *TrainerSpec) applyDefaults() {
	if s.NumThreads == 0 {
		s.NumThreads = 1
	}
	if s.NumSubIterations == 0 {
		s.NumSubIterations = 1
	}
}

// seed returns RandomSeed, falling back to the original system's hardcoded
// reservoir-sampling seed when the caller left it unset.
func (s *TrainerSpec) seed() uint64 {
	if s.RandomSeed != 0 {
		return s.RandomSeed
	}
	return defaultReservoirSeed
}
