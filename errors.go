package discretepiece

import "errors"

// Sentinel errors returned by the core. Wrap with fmt.Errorf("...: %w", ...)
// at each layer so callers can still errors.Is/errors.As against these.
var (
	// ErrInvalidConfig is returned when a TrainerSpec fails validation:
	// vocab_size <= 0, num_threads out of range, unsupported model_type,
	// both an input path and a SentenceIterator configured, etc.
	ErrInvalidConfig = errors.New("discretepiece: invalid config")

	// ErrIO is returned when a corpus or model file cannot be read or written.
	ErrIO = errors.New("discretepiece: io error")

	// ErrInvalidPiece is returned when a vocabulary piece is empty or
	// duplicates an earlier piece, or when a piece's text form cannot be
	// parsed. Pairs whose concatenation would contain the delimiter or
	// exceed max_piece_length are refused by the arena during training and
	// produce no error.
	ErrInvalidPiece = errors.New("discretepiece: invalid piece")

	// ErrUnknownPiece is returned by Vocabulary.PieceToID for a sequence
	// that was never learned.
	ErrUnknownPiece = errors.New("discretepiece: unknown piece")

	// ErrInternalInvariant marks a failed post-condition of the trainer,
	// e.g. the emitted piece count didn't match vocab_size after accounting
	// for the "no valid symbol" warning path. Always fatal.
	ErrInternalInvariant = errors.New("discretepiece: internal invariant violated")
)
