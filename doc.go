// Package discretepiece learns and applies Byte-Pair Encoding over
// sequences of discrete integer codes, not Unicode text.
//
// # Overview
//
// Inputs are sequences of non-negative 32-bit integers — typically
// indices produced by an upstream quantizer, such as a speech
// self-supervised-model codebook. Train discovers a vocabulary of
// integer-sequence pieces that greedily compress a training corpus;
// Vocabulary.Encode later segments new sequences into a sequence of
// piece ids using the same greedy merge order.
//
// # When to Use discretepiece
//
// discretepiece is suited to:
//   - Discrete speech/audio codebook streams that need a coarser,
//     learned vocabulary before feeding a downstream sequence model.
//   - Any integer-alphabet stream where byte-pair merging is wanted
//     but the content is not text.
//
// # When NOT to Use discretepiece
//
// discretepiece does not:
//   - Tokenize natural-language text (pieces are integer sequences,
//     never strings).
//   - Perform probabilistic/EM-based (unigram LM) segmentation; only
//     greedy BPE is implemented.
//   - Stream or train online; the corpus must fit in memory (optional
//     reservoir subsampling aside).
//
// # Basic Usage
//
//	spec := &discretepiece.TrainerSpec{
//		Input:          []string{"corpus.txt"},
//		ModelType:      discretepiece.ModelTypeBPE,
//		VocabSize:      2000,
//		MaxPieceLength: 8,
//	}
//	vocab, err := discretepiece.Train(spec, nil)
//	if err != nil {
//		// handle error
//	}
//	pieces, err := vocab.Encode([]discretepiece.Code{1, 2, 1, 2, 3})
//
// # Performance Characteristics
//
// Training is O(occurrences of the chosen bigram) per merge thanks to
// the per-bigram positions index, not O(corpus size); the active
// working set bounds the per-merge candidate scan independently of
// total vocabulary size. Encoding a sequence of length n performs at
// most n-1 heap-driven merges.
package discretepiece
