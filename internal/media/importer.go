package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/pkg/util"
	"github.com/rs/zerolog"
)

// Extensions lists the containers the importer accepts
var Extensions = []string{".mp4", ".mov"}

// ErrUnsupported is returned for files with an extension outside Extensions
var ErrUnsupported = errors.New("unsupported media type")

// Prober reads stream metadata from a media file
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Metadata describes an imported source asset
type Metadata struct {
	Path      string  `json:"path"`
	Filename  string  `json:"filename"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
	FileSize  int64   `json:"file_size"`
}

// Draft turns the metadata into an unplaced clip covering the whole source
func (m Metadata) Draft() clips.Draft {
	return clips.Draft{
		MediaRef:       m.Path,
		Name:           strings.TrimSuffix(m.Filename, filepath.Ext(m.Filename)),
		SourceDuration: m.Duration,
		Width:          m.Width,
		Height:         m.Height,
		FrameRate:      m.FrameRate,
	}
}

// Result is the outcome of importing a batch of paths
type Result struct {
	Imported []Metadata
	Rejected int
	Errors   []error
}

// Importer validates and probes media files
type Importer struct {
	prober Prober
	logger zerolog.Logger
}

// NewImporter creates an importer backed by prober
func NewImporter(prober Prober, logger zerolog.Logger) *Importer {
	return &Importer{
		prober: prober,
		logger: logger.With().Str("component", "media").Logger(),
	}
}

// Import probes every accepted path. Files with a bad extension or a failed
// probe are counted in Rejected while the valid subset is still returned.
func (im *Importer) Import(ctx context.Context, paths []string) Result {
	var res Result
	for _, path := range paths {
		md, err := im.Probe(ctx, path)
		if err != nil {
			res.Rejected++
			res.Errors = append(res.Errors, err)
			im.logger.Warn().Err(err).Str("path", path).Msg("import rejected")
			continue
		}
		res.Imported = append(res.Imported, md)
	}

	im.logger.Info().
		Int("imported", len(res.Imported)).
		Int("rejected", res.Rejected).
		Msg("import complete")
	return res
}

// Probe validates a single path and reads its metadata
func (im *Importer) Probe(ctx context.Context, path string) (Metadata, error) {
	if !util.HasExtension(path, Extensions...) {
		return Metadata{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := im.prober.ProbeVideo(ctx, abs)
	if err != nil {
		return Metadata{}, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}

	md := Metadata{
		Path:      abs,
		Filename:  filepath.Base(abs),
		Duration:  info.Duration.Seconds(),
		Width:     info.Width,
		Height:    info.Height,
		FrameRate: info.FPS,
		FileSize:  info.FileSize,
	}
	if md.FileSize == 0 {
		if st, err := os.Stat(abs); err == nil {
			md.FileSize = st.Size()
		}
	}
	if md.Duration < clips.MinClipLength {
		return Metadata{}, fmt.Errorf("%s: duration %.3fs is shorter than %.1fs", md.Filename, md.Duration, clips.MinClipLength)
	}

	im.logger.Debug().
		Str("path", abs).
		Float64("duration", md.Duration).
		Int("width", md.Width).
		Int("height", md.Height).
		Msg("media probed")
	return md, nil
}

// AppendAll appends each imported asset to the end of the timeline in order
func AppendAll(store *clips.Store, imported []Metadata) ([]clips.Clip, error) {
	placed := make([]clips.Clip, 0, len(imported))
	for _, md := range imported {
		c, err := store.Append(md.Draft())
		if err != nil {
			return placed, fmt.Errorf("append %s: %w", md.Filename, err)
		}
		placed = append(placed, c)
	}
	return placed, nil
}
