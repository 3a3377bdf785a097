package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/clipforge/pkg/util"
)

// ClipOptions describes one trimmed segment of a source file
type ClipOptions struct {
	Start      time.Duration
	End        time.Duration
	Output     string
	CopyCodec  bool // stream copy; cuts land on keyframes and scaling is ignored
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
	// Width and Height scale the segment when both are set
	Width        int
	Height       int
	ProgressFunc ProgressFunc
}

func (o ClipOptions) encoding() Encoding {
	return Encoding{VideoCodec: o.VideoCodec, AudioCodec: o.AudioCodec, Preset: o.Preset, CRF: o.CRF}
}

// ExtractClip encodes [Start, End) of input into a standalone file
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	args, err := extractArgs(input, opts)
	if err != nil {
		return err
	}

	log := e.logger.With().Str("input", input).Str("output", opts.Output).Logger()
	log.Info().
		Dur("start", opts.Start).
		Dur("length", opts.End-opts.Start).
		Bool("copy", opts.CopyCodec).
		Msg("extracting segment")

	err = e.Run(ctx, RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			log.Trace().Str("ffmpeg", line).Msg("extract")
		},
	})
	if err != nil {
		return fmt.Errorf("extract %s: %w", input, err)
	}
	return nil
}

func extractArgs(input string, opts ClipOptions) ([]string, error) {
	length := opts.End - opts.Start
	switch {
	case length <= 0:
		return nil, fmt.Errorf("invalid segment: end %v is not after start %v", opts.End, opts.Start)
	case opts.Output == "":
		return nil, fmt.Errorf("output path is required")
	}

	args := []string{
		"-i", input,
		"-ss", util.FormatDuration(opts.Start),
		"-t", util.FormatDuration(length),
	}
	if opts.CopyCodec {
		return append(args, "-c", "copy", opts.Output), nil
	}

	if scale := NewFilterBuilder().Scale(opts.Width, opts.Height).Build(); scale != "" {
		args = append(args, "-vf", scale)
	}
	args = append(args, opts.encoding().Args()...)
	return append(args, opts.Output), nil
}
