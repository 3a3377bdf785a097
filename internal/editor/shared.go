package editor

import (
	"sync"
	"time"
)

// Stepper advances a virtual playback backend
type Stepper interface {
	Step(dt time.Duration)
}

// Shared serializes access to a session used by more than one goroutine,
// such as request handlers and the playback ticker.
type Shared struct {
	mu      sync.Mutex
	session *Session
	backend Stepper
}

// NewShared guards session. backend may be nil when nothing drives playback.
func NewShared(session *Session, backend Stepper) *Shared {
	return &Shared{session: session, backend: backend}
}

// Do runs fn with exclusive access to the session
func (sh *Shared) Do(fn func(s *Session)) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.session)
}

// Step advances the backend by dt and copies the playhead into the view
func (sh *Shared) Step(dt time.Duration) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.backend != nil {
		sh.backend.Step(dt)
	}
	sh.session.SyncPlayhead()
}
