package clips

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidDraft is returned for drafts without media or with a source too short to trim
var ErrInvalidDraft = errors.New("invalid clip draft")

// Store is the authoritative, ordered collection of clips plus undo/redo history.
// It is not safe for concurrent use; hosts serialize access.
type Store struct {
	clips   []Clip
	history *history
	newID   func() string
	version uint64

	gesture         bool
	gestureRecorded bool
}

// Option configures a Store
type Option func(*Store)

// WithHistoryLimit bounds the number of undo snapshots
func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		s.history = newHistory(limit)
	}
}

// WithIDGenerator replaces the clip ID generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		history: newHistory(DefaultHistoryLimit),
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clips returns a copy of all clips ordered by start time
func (s *Store) Clips() []Clip {
	return cloneClips(s.clips)
}

// Len returns the number of clips
func (s *Store) Len() int {
	return len(s.clips)
}

// Version increments on every change, including undo and redo
func (s *Store) Version() uint64 {
	return s.version
}

// Get retrieves a clip by ID
func (s *Store) Get(id string) (Clip, bool) {
	i := s.index(id)
	if i < 0 {
		return Clip{}, false
	}
	return s.clips[i], true
}

// ClipAt returns the clip whose interval contains t
func (s *Store) ClipAt(t float64) (Clip, bool) {
	for _, c := range s.clips {
		if c.Contains(t) {
			return c, true
		}
	}
	return Clip{}, false
}

// EndTime returns the end of the last clip, or 0 for an empty timeline
func (s *Store) EndTime() float64 {
	end := 0.0
	for _, c := range s.clips {
		end = math.Max(end, c.End())
	}
	return end
}

// Add places a draft at its StartTime. A colliding draft is rejected without mutation.
func (s *Store) Add(d Draft) (Clip, error) {
	if err := validateDraft(d); err != nil {
		return Clip{}, err
	}

	clip := d.toClip(s.newID(), d.StartTime)
	if !s.CanDropAt(clip.StartTime, clip.Duration(), "") {
		return Clip{}, ErrPlacementRejected
	}

	next := append(cloneClips(s.clips), clip)
	s.commit(next)
	return clip, nil
}

// Remove deletes a clip. It reports false when the ID is unknown.
func (s *Store) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}

	next := make([]Clip, 0, len(s.clips)-1)
	next = append(next, s.clips[:i]...)
	next = append(next, s.clips[i+1:]...)
	s.commit(next)
	return true
}

// SetTrim sets a clip's in/out points, keeping its start time.
// Out-of-range values are clamped; the out point is further limited so the
// clip does not run into the next one. NaN or infinite points are rejected.
func (s *Store) SetTrim(id string, start, end float64) (Clip, bool) {
	i := s.index(id)
	if i < 0 {
		return Clip{}, false
	}

	c := s.clips[i]
	if !finite(start, end) {
		return c, false
	}
	trimStart, trimEnd := ClampTrim(start, end, c.SourceDuration)
	if i+1 < len(s.clips) {
		room := s.clips[i+1].StartTime - c.StartTime
		if trimEnd-trimStart > room {
			trimEnd = trimStart + room
		}
	}

	if trimStart == c.TrimStart && trimEnd == c.TrimEnd {
		return c, true
	}

	c.TrimStart = trimStart
	c.TrimEnd = trimEnd
	s.replaceAt(i, c)
	return c, true
}

// TrimStartTo moves a clip's left edge to timeline time t while its right edge stays put.
// The edge is clamped by the source start, the minimum clip length and the previous clip.
func (s *Store) TrimStartTo(id string, t float64) (Clip, bool) {
	i := s.index(id)
	if i < 0 {
		return Clip{}, false
	}

	c := s.clips[i]
	if !finite(t) {
		return c, false
	}
	floor := 0.0
	if i > 0 {
		floor = s.clips[i-1].End()
	}
	t = math.Max(t, floor)

	trimStart := clamp(c.TrimStart+(t-c.StartTime), 0, c.TrimEnd-MinClipLength)
	shift := trimStart - c.TrimStart
	if shift == 0 {
		return c, true
	}

	c.TrimStart = trimStart
	c.StartTime = math.Max(0, c.StartTime+shift)
	s.replaceAt(i, c)
	return c, true
}

// SetPosition moves a clip. Negative positions clamp to 0; a colliding or
// non-finite move is rejected.
func (s *Store) SetPosition(id string, start float64) (Clip, bool) {
	i := s.index(id)
	if i < 0 {
		return Clip{}, false
	}

	c := s.clips[i]
	if !finite(start) {
		return c, false
	}
	start = math.Max(0, start)
	if start == c.StartTime {
		return c, true
	}
	if !s.CanDropAt(start, c.Duration(), id) {
		return c, false
	}

	c.StartTime = start
	s.replaceAt(i, c)
	return c, true
}

// Split cuts a clip at timeline time t into two adjacent clips.
// Both halves must be at least MinClipLength long.
func (s *Store) Split(id string, t float64) (Clip, Clip, bool) {
	i := s.index(id)
	if i < 0 {
		return Clip{}, Clip{}, false
	}

	c := s.clips[i]
	if !finite(t) || t-c.StartTime < MinClipLength || c.End()-t < MinClipLength {
		return Clip{}, Clip{}, false
	}

	cut := c.SourceTimeAt(t)
	left := c
	left.TrimEnd = cut

	right := c
	right.ID = s.newID()
	right.StartTime = t
	right.TrimStart = cut

	next := cloneClips(s.clips)
	next[i] = left
	next = append(next, right)
	s.commit(next)
	return left, right, true
}

// Replace swaps in a whole collection as one undoable step.
// Clips without an ID are assigned one; an invalid or overlapping set is rejected.
func (s *Store) Replace(clips []Clip) error {
	next := cloneClips(clips)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = s.newID()
		}
		if !next[i].Valid() {
			return fmt.Errorf("clip %s: %w", next[i].ID, ErrInvalidDraft)
		}
	}
	sortClips(next)
	for i := 1; i < len(next); i++ {
		if next[i].StartTime < next[i-1].End() {
			return fmt.Errorf("clip %s: %w", next[i].ID, ErrPlacementRejected)
		}
	}

	s.commit(next)
	return nil
}

// ResetHistory drops all undo and redo snapshots
func (s *Store) ResetHistory() {
	s.history.clear()
}

// BeginGesture groups the mutations of one pointer gesture into a single history entry
func (s *Store) BeginGesture() {
	s.gesture = true
	s.gestureRecorded = false
}

// EndGesture closes the current gesture
func (s *Store) EndGesture() {
	s.gesture = false
	s.gestureRecorded = false
}

// Undo restores the state before the most recent mutation
func (s *Store) Undo() bool {
	s.EndGesture()
	prev, ok := s.history.popUndo(s.clips)
	if !ok {
		return false
	}
	s.clips = prev
	s.version++
	return true
}

// Redo re-applies the most recently undone mutation
func (s *Store) Redo() bool {
	s.EndGesture()
	next, ok := s.history.popRedo(s.clips)
	if !ok {
		return false
	}
	s.clips = next
	s.version++
	return true
}

// CanUndo reports whether an undo snapshot exists
func (s *Store) CanUndo() bool {
	return len(s.history.undo) > 0
}

// CanRedo reports whether a redo snapshot exists
func (s *Store) CanRedo() bool {
	return len(s.history.redo) > 0
}

// commit snapshots the current state and installs next
func (s *Store) commit(next []Clip) {
	if !s.gesture || !s.gestureRecorded {
		s.history.record(s.clips)
		s.gestureRecorded = s.gesture
	}
	sortClips(next)
	s.clips = next
	s.version++
}

func (s *Store) replaceAt(i int, c Clip) {
	next := cloneClips(s.clips)
	next[i] = c
	s.commit(next)
}

func (s *Store) index(id string) int {
	for i, c := range s.clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func validateDraft(d Draft) error {
	if d.MediaRef == "" {
		return fmt.Errorf("%w: media reference is required", ErrInvalidDraft)
	}
	if !finite(d.SourceDuration) || d.SourceDuration < MinClipLength {
		return fmt.Errorf("%w: source duration %.3fs is shorter than %.1fs", ErrInvalidDraft, d.SourceDuration, MinClipLength)
	}
	if !finite(d.StartTime, d.TrimStart, d.TrimEnd) {
		return fmt.Errorf("%w: start and trim points must be finite", ErrInvalidDraft)
	}
	return nil
}

func sortClips(c []Clip) {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].StartTime < c[j].StartTime
	})
}
