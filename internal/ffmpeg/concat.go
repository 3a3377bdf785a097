package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConcatOptions defines concatenation parameters
type ConcatOptions struct {
	Inputs       []string
	Output       string
	ReEncode     bool
	Preset       string
	ProgressFunc ProgressFunc
}

// Concat joins segments in order with the concat demuxer.
// Segments produced by ExtractClip share codecs, so stream copy is the default.
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating segments")

	listFile, err := writeConcatList(opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile)

	err = e.Run(ctx, RunOptions{
		Args:            concatArgs(listFile, opts),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("concat")
		},
	})
	if err != nil {
		return fmt.Errorf("concat %d segments: %w", len(opts.Inputs), err)
	}
	return nil
}

func concatArgs(listFile string, opts ConcatOptions) []string {
	args := []string{"-f", "concat", "-safe", "0", "-i", listFile}
	if !opts.ReEncode {
		return append(args, "-c", "copy", opts.Output)
	}
	args = append(args, Encoding{Preset: opts.Preset}.Args()...)
	return append(args, opts.Output)
}

// writeConcatList writes the demuxer's file list to a temp file
func writeConcatList(inputs []string) (string, error) {
	var list strings.Builder
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		list.WriteString(concatEntry(abs))
		list.WriteByte('\n')
	}

	f, err := os.CreateTemp("", "clipforge-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(list.String()); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// concatEntry quotes a path for the concat list; embedded quotes are closed, escaped and reopened
func concatEntry(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
