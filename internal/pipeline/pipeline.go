package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/pkg/util"
)

// Encoder is the subset of the ffmpeg executor the pipeline drives
type Encoder interface {
	ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	Composite(ctx context.Context, opts ffmpeg.CompositeOptions) error
}

// Pipeline renders timelines and finishes recordings
type Pipeline struct {
	logger  zerolog.Logger
	config  *Config
	encoder Encoder
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *Config, encoder Encoder) *Pipeline {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Pipeline{
		logger:  logger.With().Str("component", "pipeline").Logger(),
		config:  cfg,
		encoder: encoder,
	}
}

// Export renders the timeline to one file. Each clip is cut from its source
// at its trim points, then the segments are joined in timeline order. Gaps
// are not rendered.
func (p *Pipeline) Export(ctx context.Context, timeline []clips.Clip, opts ExportOptions) error {
	if len(timeline) == 0 {
		return fmt.Errorf("timeline has no clips to export")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	preset := opts.Preset
	if preset == "" {
		preset = p.config.Preset
	}
	width, height := exportSize(timeline)

	p.logger.Info().
		Int("clips", len(timeline)).
		Str("output", opts.Output).
		Int("width", width).
		Int("height", height).
		Msg("starting export")

	if err := util.EnsureDir(filepath.Dir(opts.Output)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	workDir, err := os.MkdirTemp(p.config.TempDir, "clipforge-export-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	segments := make([]string, 0, len(timeline))
	for i, c := range timeline {
		if err := ctx.Err(); err != nil {
			return err
		}

		seg := opts.Output
		if len(timeline) > 1 {
			seg = filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp4", i))
		}
		err := p.encoder.ExtractClip(ctx, c.MediaRef, ffmpeg.ClipOptions{
			Start:        util.Seconds(c.TrimStart),
			End:          util.Seconds(c.TrimEnd),
			Output:       seg,
			Preset:       preset,
			Width:        width,
			Height:       height,
			ProgressFunc: opts.ProgressFunc,
		})
		if err != nil {
			return fmt.Errorf("failed to extract clip %d (%s): %w", i+1, c.Name, err)
		}
		segments = append(segments, seg)
	}

	if len(segments) > 1 {
		err := p.encoder.Concat(ctx, ffmpeg.ConcatOptions{
			Inputs:       segments,
			Output:       opts.Output,
			ProgressFunc: opts.ProgressFunc,
		})
		if err != nil {
			return fmt.Errorf("failed to join segments: %w", err)
		}
	}

	p.logger.Info().Str("output", opts.Output).Msg("export complete")
	return nil
}

// FinishPiP composites the camera recording over the screen recording. When
// compositing fails the screen recording is kept as the output and the
// failure is reported in the result rather than as an error.
func (p *Pipeline) FinishPiP(ctx context.Context, rec PiPRecording) (PiPResult, error) {
	if rec.ScreenPath == "" || rec.Output == "" {
		return PiPResult{}, fmt.Errorf("screen recording and output paths are required")
	}
	if rec.CameraPath == "" {
		if err := util.CopyFile(rec.ScreenPath, rec.Output); err != nil {
			return PiPResult{}, fmt.Errorf("failed to keep screen recording: %w", err)
		}
		return PiPResult{Output: rec.Output}, nil
	}

	err := p.encoder.Composite(ctx, ffmpeg.CompositeOptions{
		Primary:   rec.ScreenPath,
		Secondary: rec.CameraPath,
		Output:    rec.Output,
		Config:    rec.Config,
		Preset:    p.config.Preset,
	})
	if err == nil {
		return PiPResult{Output: rec.Output, Composited: true}, nil
	}
	if !errors.Is(err, ffmpeg.ErrComposite) {
		return PiPResult{}, err
	}

	p.logger.Warn().Err(err).Str("screen", rec.ScreenPath).Msg("composite failed, keeping screen recording")
	if err := util.CopyFile(rec.ScreenPath, rec.Output); err != nil {
		return PiPResult{}, fmt.Errorf("failed to keep screen recording: %w", err)
	}
	return PiPResult{Output: rec.Output, CompositeErr: err}, nil
}

// exportSize picks the first clip's even dimensions when the clips disagree
// on size, and 0x0 (no scaling) when they already match.
func exportSize(timeline []clips.Clip) (int, int) {
	w, h := timeline[0].Width, timeline[0].Height
	mixed := false
	for _, c := range timeline[1:] {
		if c.Width != w || c.Height != h {
			mixed = true
			break
		}
	}
	if !mixed || w <= 0 || h <= 0 {
		return 0, 0
	}
	return w - w%2, h - h%2
}
