package gui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/pkg/util"
)

// Thumbnailer extracts a single frame from a media file
type Thumbnailer interface {
	Thumbnail(ctx context.Context, input string, at time.Duration, output string) error
}

var errNoThumbnailer = errors.New("no frame extractor configured")

type frameRequest struct {
	ref string
	at  float64
}

// previewSampler turns playhead positions into cached preview frames.
// Positions are quantized to the sample rate so scrubbing reuses frames.
type previewSampler struct {
	thumbs Thumbnailer
	dir    string
	rate   float64
	show   func(path string)

	pending capture.Slot[frameRequest]
	wake    chan struct{}
	last    frameRequest
	logger  zerolog.Logger
}

func newPreviewSampler(thumbs Thumbnailer, dir string, rate float64, show func(string), logger zerolog.Logger) *previewSampler {
	return &previewSampler{
		thumbs: thumbs,
		dir:    dir,
		rate:   rate,
		show:   show,
		wake:   make(chan struct{}, 1),
		logger: logger.With().Str("component", "preview").Logger(),
	}
}

// Request asks for the frame at source time at of ref; repeated positions are ignored
func (p *previewSampler) Request(ref string, at float64) {
	req := frameRequest{ref: ref, at: p.quantize(at)}
	if ref == "" || req == p.last {
		return
	}
	p.last = req
	p.pending.Put(req)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run extracts requested frames until ctx is done. Only the newest request is served.
func (p *previewSampler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}

		req, ok := p.pending.Take()
		if !ok {
			continue
		}
		path, err := p.sample(ctx, req)
		if err != nil {
			p.logger.Debug().Err(err).Str("ref", req.ref).Float64("at", req.at).Msg("preview frame unavailable")
			continue
		}
		p.show(path)
	}
}

func (p *previewSampler) sample(ctx context.Context, req frameRequest) (string, error) {
	if p.thumbs == nil {
		return "", errNoThumbnailer
	}
	path := p.cachePath(req)
	if util.FileExists(path) {
		return path, nil
	}
	if err := util.EnsureDir(p.dir); err != nil {
		return "", err
	}
	if err := p.thumbs.Thumbnail(ctx, req.ref, util.Seconds(req.at), path); err != nil {
		return "", fmt.Errorf("sample %s at %.2fs: %w", filepath.Base(req.ref), req.at, err)
	}
	return path, nil
}

func (p *previewSampler) quantize(at float64) float64 {
	if p.rate <= 0 {
		return at
	}
	return math.Floor(at*p.rate) / p.rate
}

// cachePath names frames by a stable hash of media and position
func (p *previewSampler) cachePath(req frameRequest) string {
	key := fmt.Sprintf("%s@%.3f", req.ref, req.at)
	return filepath.Join(p.dir, uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()+".jpg")
}
