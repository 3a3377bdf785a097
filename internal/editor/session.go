package editor

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/media"
	"github.com/keagan/clipforge/internal/playback"
	"github.com/keagan/clipforge/internal/render"
)

// ErrNothingSelected is returned by edits that act on the selection
var ErrNothingSelected = errors.New("no clip selected")

// ErrEmptyClipboard is returned by Paste before anything was copied
var ErrEmptyClipboard = errors.New("clipboard is empty")

// Session ties the clip store, the timeline view and the playback synchronizer
// together for one editing host. It is not safe for concurrent use.
type Session struct {
	Store    *clips.Store
	Timeline *render.Timeline
	Player   *playback.Synchronizer
	Notes    *Notifier

	clipboard *clips.Clip
	logger    zerolog.Logger
}

// NewSession wires timeline seeks into the player
func NewSession(store *clips.Store, timeline *render.Timeline, player *playback.Synchronizer, notes *Notifier, logger zerolog.Logger) *Session {
	s := &Session{
		Store:    store,
		Timeline: timeline,
		Player:   player,
		Notes:    notes,
		logger:   logger.With().Str("component", "editor").Logger(),
	}
	timeline.OnSeek(player.Seek)
	return s
}

// Selected returns the selected clip
func (s *Session) Selected() (clips.Clip, bool) {
	return s.Store.Get(s.Timeline.Selected())
}

// Copy puts a copy of the selected clip on the clipboard
func (s *Session) Copy() error {
	c, ok := s.Selected()
	if !ok {
		return ErrNothingSelected
	}
	s.clipboard = &c
	s.logger.Debug().Str("id", c.ID).Msg("clip copied")
	return nil
}

// Clipboard returns the copied clip
func (s *Session) Clipboard() (clips.Clip, bool) {
	if s.clipboard == nil {
		return clips.Clip{}, false
	}
	return *s.clipboard, true
}

// Paste inserts the clipboard clip at the playhead, shifting later clips
func (s *Session) Paste() (clips.Clip, error) {
	if s.clipboard == nil {
		return clips.Clip{}, ErrEmptyClipboard
	}
	c, err := s.Store.InsertWithShift(clips.DraftFrom(*s.clipboard), s.Timeline.Playhead())
	if err != nil {
		s.Notes.Error(err)
		return clips.Clip{}, err
	}
	s.Timeline.Select(c.ID)
	s.Player.Refresh()
	return c, nil
}

// DeleteSelected removes the selected clip
func (s *Session) DeleteSelected() error {
	id := s.Timeline.Selected()
	if id == "" || !s.Store.Remove(id) {
		return ErrNothingSelected
	}
	s.Timeline.Select("")
	s.Player.Refresh()
	return nil
}

// SplitAtPlayhead splits the clip under the playhead. The selected clip is
// preferred; otherwise the clip under the playhead is used.
func (s *Session) SplitAtPlayhead() (clips.Clip, clips.Clip, error) {
	t := s.Timeline.Playhead()
	id := s.Timeline.Selected()
	if c, ok := s.Store.Get(id); !ok || !c.Contains(t) {
		c, ok := s.Store.ClipAt(t)
		if !ok {
			return clips.Clip{}, clips.Clip{}, fmt.Errorf("no clip at %.2fs", t)
		}
		id = c.ID
	}

	left, right, ok := s.Store.Split(id, t)
	if !ok {
		return clips.Clip{}, clips.Clip{}, fmt.Errorf("cannot split within %.1fs of a clip edge", clips.MinClipLength)
	}
	s.Timeline.Select(right.ID)
	s.Player.Refresh()
	return left, right, nil
}

// Undo reverts the last edit
func (s *Session) Undo() bool {
	if !s.Store.Undo() {
		return false
	}
	s.Player.Refresh()
	return true
}

// Redo reapplies the last undone edit
func (s *Session) Redo() bool {
	if !s.Store.Redo() {
		return false
	}
	s.Player.Refresh()
	return true
}

// Seek moves the playhead in both the view and the player
func (s *Session) Seek(t float64) {
	s.Player.Seek(t)
	s.Timeline.SetPlayhead(s.Player.Playhead())
}

// SyncPlayhead copies the player's playhead into the view after it advanced
func (s *Session) SyncPlayhead() {
	s.Timeline.SetPlayhead(s.Player.Playhead())
	if err := s.Player.Err(); err != nil && s.Player.Stalled() {
		s.logger.Debug().Err(err).Msg("player stalled")
	}
}

// AddImported appends imported assets and reports the outcome to the user
func (s *Session) AddImported(res media.Result) []clips.Clip {
	placed, err := media.AppendAll(s.Store, res.Imported)
	if err != nil {
		s.Notes.Error(err)
	}
	if res.Rejected > 0 {
		s.Notes.Info(fmt.Sprintf("Imported %d file(s), rejected %d", len(placed), res.Rejected))
	} else if len(placed) > 0 {
		s.Notes.Info(fmt.Sprintf("Imported %d file(s)", len(placed)))
	}
	s.Player.Refresh()
	return placed
}
