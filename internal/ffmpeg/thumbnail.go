package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/clipforge/pkg/util"
)

// ThumbnailWidth is the width of extracted thumbnails
const ThumbnailWidth = 320

func thumbnailArgs(input string, at time.Duration, output string) []string {
	return []string{
		"-ss", util.FormatDuration(at),
		"-i", input,
		"-vframes", "1",
		"-vf", NewFilterBuilder().ScaleWidth(ThumbnailWidth).Build(),
		"-q:v", "2",
		output,
	}
}

// Thumbnail writes a single JPEG frame taken at the given position
func (e *Executor) Thumbnail(ctx context.Context, input string, at time.Duration, output string) error {
	if input == "" || output == "" {
		return fmt.Errorf("input and output paths are required")
	}

	err := e.Run(ctx, RunOptions{
		Args: thumbnailArgs(input, at, output),
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("thumbnail")
		},
	})
	if err != nil {
		return fmt.Errorf("thumbnail failed: %w", err)
	}
	return nil
}
