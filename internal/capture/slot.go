package capture

import "sync"

// Slot is a latest-wins single-value buffer between a producer goroutine and a
// consumer draining at its own cadence. A Put over an untaken value counts as a drop.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	full  bool
	puts  uint64
	drops uint64
}

// Put stores v, replacing any value not yet taken
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.full {
		s.drops++
	}
	s.value = v
	s.full = true
	s.puts++
}

// Take returns the latest value and empties the slot
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if !s.full {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.full = false
	return v, true
}

// Stats returns total puts and overwritten values
func (s *Slot[T]) Stats() (puts, drops uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts, s.drops
}

// FrameSlot holds the newest preview frame
type FrameSlot = Slot[PreviewFrame]

// Latest keeps the most recent value without consuming it
type Latest[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

// Store replaces the value
func (l *Latest[T]) Store(v T) {
	l.mu.Lock()
	l.value = v
	l.set = true
	l.mu.Unlock()
}

// Load returns the value and whether one was ever stored
func (l *Latest[T]) Load() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.set
}
