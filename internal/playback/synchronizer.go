package playback

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/clips"
)

// ErrAssetLoad marks a backing asset that failed to load, decode or seek
var ErrAssetLoad = errors.New("asset load failed")

const (
	// DefaultSeekTolerance is the divergence in seconds below which no re-seek is issued
	DefaultSeekTolerance = 0.25
	// DefaultSeekSettle bounds how long a self-issued seek suppresses feedback
	DefaultSeekSettle = 300 * time.Millisecond
)

// State is a transport state
type State int

const (
	Stopped State = iota
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "stopped"
	}
}

// Mode selects what the synchronizer is consuming
type Mode int

const (
	ModeTimeline Mode = iota
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "timeline"
}

// Backend is the single backing player the synchronizer drives.
// Completions arrive later through OnAssetReady, OnAssetError, OnAssetTime and OnSeekComplete.
type Backend interface {
	Load(mediaRef string, token uint64)
	Seek(sourceTime float64)
	Play()
	Pause()
	// Blank shows a neutral frame while the playhead sits in a gap
	Blank()
}

// ClipSource provides the current clip collection
type ClipSource interface {
	Clips() []clips.Clip
}

// Options tunes feedback handling
type Options struct {
	SeekTolerance float64
	SeekSettle    time.Duration
	Now           func() time.Time
}

// DefaultOptions returns the stock tolerances
func DefaultOptions() Options {
	return Options{
		SeekTolerance: DefaultSeekTolerance,
		SeekSettle:    DefaultSeekSettle,
		Now:           time.Now,
	}
}

// Synchronizer maps the virtual playhead onto the active clip's backing asset
type Synchronizer struct {
	source  ClipSource
	backend Backend
	opts    Options
	logger  zerolog.Logger

	mode   Mode
	states [2]State

	playhead    float64
	previewRef  string
	previewTime float64

	// backing asset bookkeeping
	current    clips.Clip
	hasCurrent bool
	loadedRef  string
	token      uint64
	waiting    bool
	ready      bool
	assetTime  float64
	stalled    bool
	err        error

	seekInFlight bool
	seekIssuedAt time.Time
}

// NewSynchronizer creates a synchronizer in timeline mode, stopped at 0
func NewSynchronizer(source ClipSource, backend Backend, opts Options, logger zerolog.Logger) *Synchronizer {
	if opts.SeekTolerance <= 0 {
		opts.SeekTolerance = DefaultSeekTolerance
	}
	if opts.SeekSettle <= 0 {
		opts.SeekSettle = DefaultSeekSettle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synchronizer{
		source:  source,
		backend: backend,
		opts:    opts,
		logger:  logger.With().Str("component", "playback").Logger(),
	}
}

// Mode returns the active consumption mode
func (s *Synchronizer) Mode() Mode {
	return s.mode
}

// State returns the transport state for a mode
func (s *Synchronizer) State(m Mode) State {
	return s.states[m]
}

// Playhead returns the virtual playhead in seconds
func (s *Synchronizer) Playhead() float64 {
	return s.playhead
}

// PreviewTime returns the position inside the preview asset
func (s *Synchronizer) PreviewTime() float64 {
	return s.previewTime
}

// Active returns the clip currently driving the backend
func (s *Synchronizer) Active() (Active, bool) {
	if !s.hasCurrent {
		return Active{}, false
	}
	return Active{Clip: s.current, SourceTime: s.current.SourceTimeAt(s.playhead)}, true
}

// Stalled reports whether the current asset failed to load
func (s *Synchronizer) Stalled() bool {
	return s.stalled
}

// Err returns the last asset failure, wrapping ErrAssetLoad
func (s *Synchronizer) Err() error {
	return s.err
}

// SetMode switches between timeline and single-asset preview.
// The mode being left is paused.
func (s *Synchronizer) SetMode(m Mode) {
	if m == s.mode {
		return
	}
	if s.states[s.mode] == Playing {
		s.states[s.mode] = Paused
	}
	s.backend.Pause()
	s.invalidate()
	s.mode = m
	s.logger.Debug().Str("mode", m.String()).Msg("mode changed")

	if m == ModeTimeline {
		s.sync(true)
	} else if s.previewRef != "" {
		s.load(s.previewRef)
	}
}

// LoadPreview switches to preview mode on a single asset
func (s *Synchronizer) LoadPreview(mediaRef string) {
	s.SetMode(ModePreview)
	s.previewRef = mediaRef
	s.previewTime = 0
	s.states[ModePreview] = Paused
	s.load(mediaRef)
}

// Play starts the current mode. On the timeline, playing from the end rewinds to 0.
func (s *Synchronizer) Play() {
	s.states[s.mode] = Playing
	if s.mode == ModePreview {
		if s.ready {
			s.backend.Play()
		}
		return
	}

	if end := timelineEnd(s.source.Clips()); s.playhead >= end && end > 0 {
		s.playhead = 0
		s.sync(true)
		return
	}
	s.sync(false)
}

// Pause halts the current mode
func (s *Synchronizer) Pause() {
	if s.states[s.mode] == Stopped {
		return
	}
	s.states[s.mode] = Paused
	s.backend.Pause()
}

// Stop halts the current mode and rewinds it
func (s *Synchronizer) Stop() {
	s.states[s.mode] = Stopped
	s.backend.Pause()
	if s.mode == ModePreview {
		s.previewTime = 0
		if s.ready {
			s.issueSeek(0)
		}
		return
	}
	s.playhead = 0
	s.sync(true)
}

// Seek moves the playhead, or the preview position in preview mode.
// Non-finite times are ignored.
func (s *Synchronizer) Seek(t float64) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return
	}
	t = math.Max(0, t)
	if s.mode == ModePreview {
		s.previewTime = t
		if s.ready {
			s.issueSeek(t)
		}
		return
	}
	s.playhead = t
	s.sync(true)
}

// Refresh re-evaluates the active clip after the clip collection changed
func (s *Synchronizer) Refresh() {
	if s.mode == ModeTimeline {
		s.sync(false)
	}
}

// Tick advances virtual time while the timeline plays through a gap or a stalled clip.
// Clips that are playing normally are advanced by OnAssetTime instead.
func (s *Synchronizer) Tick(dt time.Duration) {
	if s.mode != ModeTimeline || s.states[ModeTimeline] != Playing {
		return
	}
	if s.hasCurrent && !s.stalled {
		return
	}

	end := timelineEnd(s.source.Clips())
	s.playhead += dt.Seconds()
	if s.playhead >= end {
		s.finish(end)
		return
	}
	s.sync(false)
}

// OnAssetReady continues a load issued with token. Stale tokens are ignored.
func (s *Synchronizer) OnAssetReady(token uint64) {
	if token != s.token || !s.waiting {
		s.logger.Debug().Uint64("token", token).Uint64("current", s.token).Msg("ignoring stale ready")
		return
	}
	s.waiting = false
	s.ready = true

	if s.mode == ModePreview {
		s.issueSeek(s.previewTime)
		if s.states[ModePreview] == Playing {
			s.backend.Play()
		}
		return
	}

	if !s.hasCurrent {
		return
	}
	s.issueSeek(s.current.SourceTimeAt(s.playhead))
	if s.states[ModeTimeline] == Playing {
		s.backend.Play()
	}
}

// OnAssetError stalls the synchronizer on the asset loaded with token.
// The timeline stays seekable and selecting another clip loads its asset.
func (s *Synchronizer) OnAssetError(token uint64, cause error) {
	if token != s.token {
		return
	}
	s.waiting = false
	s.ready = false
	s.stalled = true
	s.err = fmt.Errorf("%w: %s: %v", ErrAssetLoad, s.loadedRef, cause)
	s.backend.Pause()

	s.logger.Warn().Err(cause).Str("media", s.loadedRef).Msg("asset stalled")
}

// OnSeekComplete clears the self-issued seek flag
func (s *Synchronizer) OnSeekComplete() {
	s.seekInFlight = false
}

// OnAssetTime consumes a position report from the backend and returns the playhead.
// Reports are ignored while a self-issued seek settles.
func (s *Synchronizer) OnAssetTime(assetTime float64) float64 {
	if !s.ready || s.seekPending() {
		return s.playhead
	}
	s.assetTime = assetTime

	if s.mode == ModePreview {
		s.previewTime = assetTime
		return s.playhead
	}
	if !s.hasCurrent {
		return s.playhead
	}

	pos := s.current.TimelineTimeAt(assetTime)
	if pos >= s.current.End() {
		s.playhead = s.current.End()
		if s.playhead >= timelineEnd(s.source.Clips()) {
			s.finish(s.playhead)
			return s.playhead
		}
		s.sync(false)
		return s.playhead
	}

	if pos < s.current.StartTime-s.opts.SeekTolerance {
		// asset landed before the in point
		s.issueSeek(s.current.TrimStart)
		s.playhead = s.current.StartTime
		return s.playhead
	}

	s.playhead = math.Max(pos, s.current.StartTime)
	return s.playhead
}

// sync brings the backend in line with the playhead
func (s *Synchronizer) sync(force bool) {
	active, ok := ActiveAt(s.source.Clips(), s.playhead)
	if !ok {
		if s.hasCurrent || force {
			s.backend.Pause()
			s.backend.Blank()
		}
		// a load in flight stays pending so its ready still lands
		s.hasCurrent = false
		return
	}

	prevID := s.current.ID
	s.current = active.Clip
	s.hasCurrent = true

	idle := !s.ready && !s.waiting && !s.stalled
	if active.Clip.MediaRef != s.loadedRef || (s.stalled && force) || idle {
		s.load(active.Clip.MediaRef)
		return
	}
	if s.waiting || s.stalled {
		return
	}

	if force || prevID != active.Clip.ID || math.Abs(active.SourceTime-s.assetTime) > s.opts.SeekTolerance {
		s.issueSeek(active.SourceTime)
	}
	if s.states[ModeTimeline] == Playing {
		s.backend.Play()
	}
}

// load starts a new generation; any pending continuation is abandoned
func (s *Synchronizer) load(ref string) {
	s.token++
	s.loadedRef = ref
	s.waiting = true
	s.ready = false
	s.stalled = false
	s.err = nil
	s.seekInFlight = false

	s.logger.Debug().Str("media", ref).Uint64("token", s.token).Msg("loading asset")
	s.backend.Load(ref, s.token)
}

func (s *Synchronizer) invalidate() {
	s.token++
	s.loadedRef = ""
	s.waiting = false
	s.ready = false
	s.hasCurrent = false
}

func (s *Synchronizer) issueSeek(sourceTime float64) {
	s.seekInFlight = true
	s.seekIssuedAt = s.opts.Now()
	s.assetTime = sourceTime
	s.backend.Seek(sourceTime)
}

func (s *Synchronizer) seekPending() bool {
	if !s.seekInFlight {
		return false
	}
	if s.opts.Now().Sub(s.seekIssuedAt) >= s.opts.SeekSettle {
		s.seekInFlight = false
	}
	return s.seekInFlight
}

// finish parks the timeline at its end
func (s *Synchronizer) finish(end float64) {
	s.playhead = end
	s.states[ModeTimeline] = Paused
	s.backend.Pause()
	s.hasCurrent = false
	s.logger.Debug().Float64("end", end).Msg("reached end of timeline")
}
