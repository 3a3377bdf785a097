package editor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/media"
	"github.com/keagan/clipforge/internal/playback"
	"github.com/keagan/clipforge/internal/render"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(t *testing.T) (*Session, *playback.ClockBackend) {
	t.Helper()
	n := 0
	store := clips.NewStore(clips.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}))
	for _, d := range []clips.Draft{
		{MediaRef: "a.mp4", SourceDuration: 5},
		{MediaRef: "b.mp4", SourceDuration: 4, StartTime: 5},
	} {
		if _, err := store.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	store.ResetHistory()

	backend := playback.NewClockBackend(nil)
	player := playback.NewSynchronizer(store, backend, playback.DefaultOptions(), zerolog.Nop())
	backend.Attach(player)

	timeline := render.NewTimeline(store, render.NewView(800, 120), zerolog.Nop())
	notes := NewNotifier(0, nil, zerolog.Nop())
	return NewSession(store, timeline, player, notes, zerolog.Nop()), backend
}

func TestCopyPaste(t *testing.T) {
	s, _ := newTestSession(t)

	if _, err := s.Paste(); !errors.Is(err, ErrEmptyClipboard) {
		t.Fatalf("expected ErrEmptyClipboard, got %v", err)
	}
	if err := s.Copy(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}

	s.Timeline.Select("c1")
	if err := s.Copy(); err != nil {
		t.Fatal(err)
	}

	// mutating the original must not change the clipboard
	s.Store.SetTrim("c1", 1, 2)
	cb, _ := s.Clipboard()
	if cb.TrimStart != 0 || cb.TrimEnd != 5 {
		t.Errorf("clipboard changed with the original: %+v", cb)
	}

	s.Seek(9)
	c, err := s.Paste()
	if err != nil {
		t.Fatal(err)
	}
	if c.StartTime != 9 || c.Duration() != 5 || c.ID == "c1" {
		t.Errorf("pasted clip = %+v", c)
	}
	if s.Timeline.Selected() != c.ID {
		t.Error("pasted clip should be selected")
	}
}

func TestPasteInsideClipShifts(t *testing.T) {
	s, _ := newTestSession(t)
	s.Timeline.Select("c2")
	s.Copy()

	s.Seek(2)
	c, err := s.Paste()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Store.Get("c2")
	if c.StartTime != 5 || b.StartTime != 9 {
		t.Errorf("pasted at %v, B at %v; want 5 and 9", c.StartTime, b.StartTime)
	}
}

func TestDeleteSelected(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.DeleteSelected(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("expected ErrNothingSelected, got %v", err)
	}
	s.Timeline.Select("c1")
	if err := s.DeleteSelected(); err != nil {
		t.Fatal(err)
	}
	if s.Store.Len() != 1 || s.Timeline.Selected() != "" {
		t.Errorf("len = %d selected = %q", s.Store.Len(), s.Timeline.Selected())
	}
	if !s.Undo() || s.Store.Len() != 2 {
		t.Error("undo should restore the deleted clip")
	}
	if !s.Redo() || s.Store.Len() != 1 {
		t.Error("redo should delete it again")
	}
}

func TestSplitAtPlayhead(t *testing.T) {
	s, _ := newTestSession(t)
	s.Seek(6)

	left, right, err := s.SplitAtPlayhead()
	if err != nil {
		t.Fatal(err)
	}
	if left.ID != "c2" || left.End() != 6 || right.StartTime != 6 || right.End() != 9 {
		t.Errorf("left = %+v right = %+v", left, right)
	}
	if s.Timeline.Selected() != right.ID {
		t.Error("right half should be selected")
	}

	s.Seek(6.05)
	if _, _, err := s.SplitAtPlayhead(); err == nil {
		t.Error("split too close to an edge must fail")
	}

	s.Seek(20)
	if _, _, err := s.SplitAtPlayhead(); err == nil {
		t.Error("split in empty space must fail")
	}
}

func TestSeekDrivesPlayer(t *testing.T) {
	s, backend := newTestSession(t)
	s.Timeline.PointerDown(350, 10)
	s.Timeline.PointerUp()

	if s.Player.Playhead() != 7 {
		t.Fatalf("player playhead = %v, want 7", s.Player.Playhead())
	}
	backend.Step(0)
	if backend.Ref() != "b.mp4" || backend.Time() != 2 {
		t.Errorf("backend at %s %v, want b.mp4 2", backend.Ref(), backend.Time())
	}
}

func TestAddImported(t *testing.T) {
	s, _ := newTestSession(t)
	placed := s.AddImported(media.Result{
		Imported: []media.Metadata{{Path: "/m/c.mp4", Filename: "c.mp4", Duration: 3}},
		Rejected: 2,
	})
	if len(placed) != 1 || placed[0].StartTime != 9 {
		t.Fatalf("placed = %+v", placed)
	}
	msgs := s.Notes.Active()
	if len(msgs) != 1 || msgs[0].Text != "Imported 1 file(s), rejected 2" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestNotifierExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	n := NewNotifier(0, clock.now, zerolog.Nop())

	first := n.Info("saved")
	clock.advance(3 * time.Second)
	n.Error(capture.ErrDeviceAccess)

	if got := len(n.Active()); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
	clock.advance(1500 * time.Millisecond)
	active := n.Active()
	if len(active) != 1 || active[0].Severity != SeverityError {
		t.Fatalf("active = %+v", active)
	}
	if n.Dismiss(first.ID) {
		t.Error("expired message cannot be dismissed")
	}
	if !n.Dismiss(active[0].ID) || len(n.Active()) != 0 {
		t.Error("dismiss failed")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("drop: %w", clips.ErrPlacementRejected), "There is no room for the clip there"},
		{fmt.Errorf("%w: denied", capture.ErrDeviceAccess), "Capture device unavailable. Check screen and camera permissions."},
		{fmt.Errorf("%w: exit 1", ffmpeg.ErrComposite), "Picture-in-picture compositing failed; the screen recording was kept"},
		{errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		if got := Describe(tt.err); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
