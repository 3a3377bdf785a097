package compositor

import (
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/frameloop"
	"github.com/keagan/clipforge/internal/overlays"
)

// DefaultRefreshInterval is the live compositing period
const DefaultRefreshInterval = time.Second / 30

// ComposeFrame draws secondary over a copy of primary at the configured overlay rect
func ComposeFrame(primary, secondary image.Image, cfg overlays.Config) *image.RGBA {
	bounds := primary.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), primary, bounds.Min, draw.Src)
	if secondary == nil {
		return dst
	}

	sb := secondary.Bounds()
	r := overlays.OverlayRect(cfg, bounds.Dx(), bounds.Dy(), overlays.Aspect(sb.Dx(), sb.Dy()))
	if r.W <= 0 || r.H <= 0 {
		return dst
	}

	scaled := resize.Resize(uint(r.W), uint(r.H), secondary, resize.Bilinear)
	target := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	draw.Draw(dst, target, scaled, scaled.Bounds().Min, draw.Over)
	return dst
}

// Compositor overlays the newest secondary frame on the newest primary frame
// once per refresh while enabled. The last frame of each source is reused when
// no new one has arrived.
type Compositor struct {
	// Primary and Secondary are fed by capture readers
	Primary   capture.Slot[image.Image]
	Secondary capture.Slot[image.Image]

	mu            sync.Mutex
	cfg           overlays.Config
	lastPrimary   image.Image
	lastSecondary image.Image
	sink          func(*image.RGBA)
	composed      uint64

	loop   *frameloop.Loop
	logger zerolog.Logger
}

// New creates a disabled compositor that hands each composed frame to sink
func New(cfg overlays.Config, interval time.Duration, sink func(*image.RGBA), sched frameloop.Scheduler, logger zerolog.Logger) *Compositor {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	c := &Compositor{
		cfg:    cfg,
		sink:   sink,
		logger: logger.With().Str("component", "compositor").Logger(),
	}
	c.loop = frameloop.New(interval, func() { c.Step() }, sched)
	return c
}

// SetConfig changes the overlay placement from the next frame on
func (c *Compositor) SetConfig(cfg overlays.Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Enable starts the per-frame loop
func (c *Compositor) Enable() {
	c.logger.Debug().Msg("live compositing enabled")
	c.loop.Enable()
}

// Disable stops the loop; no composed frame is delivered after it returns
// unless one was already being drawn
func (c *Compositor) Disable() {
	c.loop.Disable()
	c.mu.Lock()
	c.lastPrimary = nil
	c.lastSecondary = nil
	c.mu.Unlock()
	c.logger.Debug().Uint64("frames", c.Composed()).Msg("live compositing disabled")
}

// Enabled reports whether the loop is running
func (c *Compositor) Enabled() bool {
	return c.loop.Enabled()
}

// Composed returns the number of frames delivered
func (c *Compositor) Composed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composed
}

// Step composes one frame. It reports false when no primary frame exists yet.
func (c *Compositor) Step() bool {
	c.mu.Lock()
	if p, ok := c.Primary.Take(); ok {
		c.lastPrimary = p
	}
	if s, ok := c.Secondary.Take(); ok {
		c.lastSecondary = s
	}
	primary, secondary, cfg := c.lastPrimary, c.lastSecondary, c.cfg
	c.mu.Unlock()

	if primary == nil {
		return false
	}

	frame := ComposeFrame(primary, secondary, cfg)

	c.mu.Lock()
	c.composed++
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		sink(frame)
	}
	return true
}
