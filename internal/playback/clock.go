package playback

import "time"

// ClockBackend plays assets as virtual clocks. Hosts without a decoder (the
// control API, the shell, the editor's sampled preview) drive the synchronizer
// with it. Loads and seeks complete on the next Step, as a real decoder's
// callbacks would arrive later.
type ClockBackend struct {
	sync  *Synchronizer
	check func(mediaRef string) error

	ref         string
	token       uint64
	time        float64
	playing     bool
	blank       bool
	loadPending bool
	seekPending bool
}

// NewClockBackend creates a backend; check, when set, decides whether a load succeeds
func NewClockBackend(check func(mediaRef string) error) *ClockBackend {
	return &ClockBackend{check: check, blank: true}
}

// Attach connects the backend to the synchronizer it reports to
func (b *ClockBackend) Attach(s *Synchronizer) {
	b.sync = s
}

// Load implements Backend
func (b *ClockBackend) Load(mediaRef string, token uint64) {
	b.ref = mediaRef
	b.token = token
	b.time = 0
	b.playing = false
	b.loadPending = true
	b.seekPending = false
}

// Seek implements Backend
func (b *ClockBackend) Seek(sourceTime float64) {
	b.time = sourceTime
	b.blank = false
	b.seekPending = true
}

// Play implements Backend
func (b *ClockBackend) Play() { b.playing = true }

// Pause implements Backend
func (b *ClockBackend) Pause() { b.playing = false }

// Blank implements Backend
func (b *ClockBackend) Blank() { b.blank = true }

// Ref returns the loaded asset
func (b *ClockBackend) Ref() string { return b.ref }

// Time returns the asset clock in seconds
func (b *ClockBackend) Time() float64 { return b.time }

// Playing reports whether the asset clock runs
func (b *ClockBackend) Playing() bool { return b.playing }

// Blanked reports whether the output shows black
func (b *ClockBackend) Blanked() bool { return b.blank }

// Step delivers pending callbacks, advances a playing clock by dt and lets the
// synchronizer move through gaps.
func (b *ClockBackend) Step(dt time.Duration) {
	if b.sync == nil {
		return
	}

	if b.loadPending {
		b.loadPending = false
		if b.check != nil {
			if err := b.check(b.ref); err != nil {
				b.sync.OnAssetError(b.token, err)
				b.sync.Tick(dt)
				return
			}
		}
		b.sync.OnAssetReady(b.token)
		return
	}

	if b.seekPending {
		b.seekPending = false
		b.sync.OnSeekComplete()
	}
	if b.playing {
		b.time += dt.Seconds()
		b.sync.OnAssetTime(b.time)
	}
	b.sync.Tick(dt)
}
