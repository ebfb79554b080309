// Command dpiece-encode segments a sequence of discrete integer codes
// into piece or id output using a model trained by dpiece-train.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/axiomhq/discretepiece"
)

func main() {
	app := &cli.App{
		Name:  "dpiece-encode",
		Usage: "segment a code sequence into vocabulary pieces",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "model",
				Aliases:  []string{"m"},
				Usage:    "path to a .model file written by dpiece-train",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "output-format",
				Value: "piece",
				Usage: `"piece" (underscore-joined elements) or "id" (decimal ids)`,
			},
		},
		Action: encodeCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dpiece-encode: %v\n", err)
		os.Exit(1)
	}
}

func encodeCommand(c *cli.Context) error {
	modelFile, err := os.Open(c.String("model"))
	if err != nil {
		return fmt.Errorf("opening model file: %w", err)
	}
	defer modelFile.Close()

	var model discretepiece.Model
	if _, err := model.ReadFrom(modelFile); err != nil {
		return fmt.Errorf("reading model file: %w", err)
	}

	if c.NArg() == 0 {
		return fmt.Errorf("usage: dpiece-encode --model <file> CODE CODE …")
	}

	codes := make([]discretepiece.Code, c.NArg())
	for i, arg := range c.Args().Slice() {
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("parsing code %q: %w", arg, err)
		}
		codes[i] = discretepiece.Code(n)
	}

	pieces, err := model.Vocab.Encode(codes)
	if err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}

	outputFormat := c.String("output-format")
	var parts []string
	for _, p := range pieces {
		if p.IsDelimiter {
			parts = append(parts, "|")
			continue
		}
		if outputFormat == "id" {
			parts = append(parts, strconv.Itoa(p.ID))
		} else {
			var b strings.Builder
			for i, code := range p.Chars {
				if i > 0 {
					b.WriteByte('_')
				}
				b.WriteString(strconv.FormatUint(uint64(code), 10))
			}
			parts = append(parts, b.String())
		}
	}
	fmt.Println(strings.Join(parts, " "))
	return nil
}
