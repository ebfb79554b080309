// Command dpiece-train trains a discretepiece BPE model from one or more
// text-format corpus files and writes a model file plus a vocabulary file.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/axiomhq/discretepiece"
)

func main() {
	app := &cli.App{
		Name:  "dpiece-train",
		Usage: "train a BPE vocabulary over sequences of discrete integer codes",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "corpus file path (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "model-prefix",
				Aliases:  []string{"o"},
				Usage:    "output file stem for <prefix>.model and <prefix>.vocab",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "vocab-size",
				Aliases:  []string{"v"},
				Usage:    "final vocabulary size",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "max-piece-length",
				Value: 8,
				Usage: "maximum length, in codes, of a learned piece",
			},
			&cli.IntFlag{
				Name:  "input-sentence-size",
				Value: 0,
				Usage: "cap on number of corpus rows read (0 = all)",
			},
			&cli.BoolFlag{
				Name:  "shuffle-input-sentence",
				Usage: "reservoir-sample rows when input-sentence-size is set",
			},
			&cli.StringFlag{
				Name:  "deliminator",
				Usage: "bytes mapped to the delimiter sentinel",
			},
			&cli.Uint64Flag{
				Name:  "random-seed",
				Usage: "seed for reservoir sampling (default: historical fixed seed)",
			},
			&cli.BoolFlag{
				Name:  "vocabulary-output-piece-score",
				Value: true,
				Usage: "include the score column in the vocab file",
			},
			&cli.IntFlag{
				Name:  "num-threads",
				Value: 1,
				Usage: "forward-compatibility only; training is serial",
			},
			&cli.IntFlag{
				Name:  "num-sub-iterations",
				Value: 1,
				Usage: "reserved for a future trainer; ignored by BPE",
			},
		},
		Action: trainCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dpiece-train: %v\n", err)
		os.Exit(1)
	}
}

func trainCommand(c *cli.Context) error {
	spec := &discretepiece.TrainerSpec{
		Input:                      c.StringSlice("input"),
		ModelPrefix:                c.String("model-prefix"),
		ModelType:                  discretepiece.ModelTypeBPE,
		VocabSize:                  c.Int("vocab-size"),
		InputSentenceSize:          c.Int("input-sentence-size"),
		ShuffleInputSentence:       c.Bool("shuffle-input-sentence"),
		NumThreads:                 c.Int("num-threads"),
		NumSubIterations:           c.Int("num-sub-iterations"),
		MaxPieceLength:             c.Int("max-piece-length"),
		VocabularyOutputPieceScore: c.Bool("vocabulary-output-piece-score"),
		Deliminator:                c.String("deliminator"),
		RandomSeed:                 c.Uint64("random-seed"),
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	vocab, err := discretepiece.Train(spec, log)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	model := discretepiece.NewModel(spec, vocab)

	modelFile, err := os.Create(spec.ModelPrefix + ".model")
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	defer modelFile.Close()
	if _, err := model.WriteTo(modelFile); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}

	vocabFile, err := os.Create(spec.ModelPrefix + ".vocab")
	if err != nil {
		return fmt.Errorf("creating vocab file: %w", err)
	}
	defer vocabFile.Close()
	w := bufio.NewWriter(vocabFile)
	if err := discretepiece.WriteVocabFile(w, vocab, spec.VocabularyOutputPieceScore); err != nil {
		return fmt.Errorf("writing vocab file: %w", err)
	}

	log.Info("training complete", "pieces", vocab.Size(), "model", spec.ModelPrefix+".model", "vocab", spec.ModelPrefix+".vocab")
	return nil
}
