package ffmpeg

import (
	"context"
	"errors"
	"fmt"

	"github.com/keagan/clipforge/internal/overlays"
)

// ErrComposite marks a failed picture-in-picture composite. Callers keep the
// uncomposited primary recording as the output.
var ErrComposite = errors.New("composite failed")

// CompositeOptions describes a picture-in-picture encode.
// Zero dimensions are probed from the inputs.
type CompositeOptions struct {
	Primary         string
	Secondary       string
	Output          string
	Config          overlays.Config
	PrimaryWidth    int
	PrimaryHeight   int
	SecondaryWidth  int
	SecondaryHeight int
	Preset          string
	ProgressFunc    ProgressFunc
}

// CompositeFilter builds the filter graph for opts and returns the overlay rect it uses.
// The rect comes from overlays.OverlayRect, the same function the live preview uses.
func CompositeFilter(opts CompositeOptions) (string, overlays.Rect) {
	r := overlays.OverlayRect(opts.Config, opts.PrimaryWidth, opts.PrimaryHeight,
		overlays.Aspect(opts.SecondaryWidth, opts.SecondaryHeight))

	scale := NewFilterBuilder().Scale(r.W, r.H).Build()
	overlay := NewFilterBuilder().Overlay(r.X, r.Y).Build()
	return fmt.Sprintf("[1:v]%s[pip];[0:v][pip]%s[v]", scale, overlay), r
}

func compositeArgs(opts CompositeOptions) []string {
	graph, _ := CompositeFilter(opts)
	args := []string{
		"-i", opts.Primary,
		"-i", opts.Secondary,
		"-filter_complex", graph,
		"-map", "[v]",
	}
	enc := Encoding{Preset: opts.Preset}
	if opts.Config.IncludeAudio {
		args = append(args, "-map", "0:a?")
		args = append(args, enc.Args()...)
	} else {
		args = append(args, "-an")
		args = append(args, enc.VideoArgs()...)
	}
	return append(args, opts.Output)
}

// Composite overlays the secondary recording onto the primary one.
// Every failure wraps ErrComposite.
func (e *Executor) Composite(ctx context.Context, opts CompositeOptions) error {
	if opts.Primary == "" || opts.Secondary == "" || opts.Output == "" {
		return fmt.Errorf("%w: primary, secondary and output paths are required", ErrComposite)
	}

	if opts.PrimaryWidth <= 0 || opts.PrimaryHeight <= 0 {
		info, err := e.ProbeVideo(ctx, opts.Primary)
		if err != nil {
			return fmt.Errorf("%w: probe primary: %v", ErrComposite, err)
		}
		opts.PrimaryWidth, opts.PrimaryHeight = info.Width, info.Height
	}
	if opts.SecondaryWidth <= 0 || opts.SecondaryHeight <= 0 {
		info, err := e.ProbeVideo(ctx, opts.Secondary)
		if err != nil {
			return fmt.Errorf("%w: probe secondary: %v", ErrComposite, err)
		}
		opts.SecondaryWidth, opts.SecondaryHeight = info.Width, info.Height
	}

	_, rect := CompositeFilter(opts)
	e.logger.Info().
		Str("primary", opts.Primary).
		Str("secondary", opts.Secondary).
		Str("output", opts.Output).
		Str("position", string(opts.Config.Position)).
		Str("size", string(opts.Config.Size)).
		Int("x", rect.X).Int("y", rect.Y).Int("w", rect.W).Int("h", rect.H).
		Msg("compositing picture-in-picture")

	runOpts := RunOptions{
		Args:            compositeArgs(opts),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("composite output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("%w: %v", ErrComposite, err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("composite completed")
	return nil
}
