package shell

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/internal/playback"
	"github.com/keagan/clipforge/internal/render"
)

type fakeExporter struct {
	timeline []clips.Clip
	opts     pipeline.ExportOptions
}

func (f *fakeExporter) Export(_ context.Context, timeline []clips.Clip, opts pipeline.ExportOptions) error {
	f.timeline = timeline
	f.opts = opts
	return nil
}

// newTestShell starts with intro.mp4 [0,5) as c1 and demo.mp4 [5,9) as c2
func newTestShell(t *testing.T, exp Exporter) (*Shell, *editor.Shared, *bytes.Buffer) {
	t.Helper()
	n := 0
	store := clips.NewStore(clips.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}))
	for _, d := range []clips.Draft{
		{MediaRef: "/media/intro.mp4", SourceDuration: 5},
		{MediaRef: "/media/demo.mp4", SourceDuration: 4, StartTime: 5},
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
	session := editor.NewSession(store, timeline, player, editor.NewNotifier(0, nil, zerolog.Nop()), zerolog.Nop())
	shared := editor.NewShared(session, backend)

	var out bytes.Buffer
	opts := Options{Out: &out}
	if exp != nil {
		opts.Exporter = exp
	}
	return New(shared, opts, zerolog.Nop()), shared, &out
}

func run(t *testing.T, sh *Shell, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	if !sh.HandleCommand(context.Background(), line) {
		t.Fatalf("%q exited the shell", line)
	}
	return out.String()
}

func clipsOf(shared *editor.Shared) []clips.Clip {
	var all []clips.Clip
	shared.Do(func(s *editor.Session) { all = s.Store.Clips() })
	return all
}

func TestHandleCommandOutput(t *testing.T) {
	sh, _, out := newTestShell(t, nil)

	tests := []struct {
		line string
		want string
	}{
		{"list", "intro.mp4"},
		{"ls", "2 clip(s), 0:09 total"},
		{"add /media/b-roll.mp4 3 at 10", "Added c3 at 0:10"},
		{"add /media/b-roll.mp4 3 at 2", "Error: There is no room for the clip there"},
		{"add /media/b-roll.mp4 3 near 2", "Usage: add <media> <duration> [at <time>]"},
		{"trim c1", "Usage: trim <id> <in> <out>"},
		{"trim c1 1 3", "Trimmed intro.mp4: 0:02 long, ends at 0:02"},
		{"trim c1 0 9", "Error: cannot trim intro.mp4"},
		{"select c", `matches 3 clips`},
		{"select nope", `no clip "nope"`},
		{"frobnicate", "Unknown command"},
		{"help", "Split the clip under the playhead"},
	}
	for _, tt := range tests {
		if got := run(t, sh, out, tt.line); !strings.Contains(got, tt.want) {
			t.Errorf("%q printed %q, want it to contain %q", tt.line, got, tt.want)
		}
	}
}

func TestMoveSnaps(t *testing.T) {
	sh, shared, out := newTestShell(t, nil)
	run(t, sh, out, "move c2 12")

	got := run(t, sh, out, "move c2 5.1")
	if !strings.Contains(got, "snapped to previous-end") {
		t.Errorf("move printed %q", got)
	}
	if c := clipsOf(shared)[1]; c.StartTime != 5 {
		t.Errorf("c2 start = %v, want 5", c.StartTime)
	}
}

func TestSplitUndoRedo(t *testing.T) {
	sh, shared, out := newTestShell(t, nil)

	if got := run(t, sh, out, "undo"); !strings.Contains(got, "Nothing to undo") {
		t.Errorf("undo printed %q", got)
	}
	if got := run(t, sh, out, "split 0:06"); !strings.Contains(got, "Split into c2 and c3") {
		t.Fatalf("split printed %q", got)
	}
	if n := len(clipsOf(shared)); n != 3 {
		t.Fatalf("clips after split = %d", n)
	}
	run(t, sh, out, "undo")
	if n := len(clipsOf(shared)); n != 2 {
		t.Errorf("clips after undo = %d", n)
	}
	run(t, sh, out, "redo")
	if n := len(clipsOf(shared)); n != 3 {
		t.Errorf("clips after redo = %d", n)
	}
}

func TestCopyPasteDelete(t *testing.T) {
	sh, shared, out := newTestShell(t, nil)

	if got := run(t, sh, out, "copy"); !strings.Contains(got, "no clip selected") {
		t.Errorf("copy without selection printed %q", got)
	}
	run(t, sh, out, "select c1")
	run(t, sh, out, "copy")
	run(t, sh, out, "seek 9")
	if got := run(t, sh, out, "paste"); !strings.Contains(got, "Pasted c3 at 0:09") {
		t.Errorf("paste printed %q", got)
	}
	if got := run(t, sh, out, "delete c2"); !strings.Contains(got, "Deleted") {
		t.Errorf("delete printed %q", got)
	}
	all := clipsOf(shared)
	if len(all) != 2 || all[1].ID != "c3" {
		t.Errorf("clips = %+v", all)
	}
}

func TestSeekAndWhere(t *testing.T) {
	sh, shared, out := newTestShell(t, nil)

	if got := run(t, sh, out, "seek 0:06.5"); !strings.Contains(got, "demo.mp4 @ 0:01") {
		t.Errorf("seek printed %q", got)
	}
	run(t, sh, out, "play")
	for i := 0; i < 5; i++ {
		shared.Step(TickInterval)
	}
	if got := run(t, sh, out, "pause"); !strings.HasPrefix(got, "paused") {
		t.Errorf("pause printed %q", got)
	}
	if got := run(t, sh, out, "seek 20"); !strings.Contains(got, "no clip") {
		t.Errorf("seek past end printed %q", got)
	}
	if got := run(t, sh, out, "seek -1"); !strings.Contains(got, "Error") {
		t.Errorf("negative seek printed %q", got)
	}
}

func TestPiPCommand(t *testing.T) {
	sh, _, out := newTestShell(t, nil)

	got := run(t, sh, out, "pip top-left small 1280x720")
	cfg := overlays.Config{Position: overlays.TopLeft, Size: overlays.Small, IncludeAudio: true}
	r := overlays.OverlayRect(cfg, 1280, 720, overlays.DefaultAspect)
	want := fmt.Sprintf("top-left small in 1280x720: x=%d y=%d w=%d h=%d", r.X, r.Y, r.W, r.H)
	if !strings.Contains(got, want) {
		t.Errorf("pip printed %q, want %q", got, want)
	}
	if sh.pip.Position != overlays.TopLeft {
		t.Errorf("pip config not kept: %+v", sh.pip)
	}
	if got := run(t, sh, out, "pip sideways"); !strings.Contains(got, "Usage") {
		t.Errorf("bad pip printed %q", got)
	}
}

func TestEDLCommand(t *testing.T) {
	sh, _, out := newTestShell(t, nil)
	got := run(t, sh, out, "edl weekly review")
	if !strings.Contains(got, "TITLE: weekly review") || !strings.Contains(got, "FROM CLIP NAME:  demo") {
		t.Errorf("edl printed %q", got)
	}
}

func TestSaveLoad(t *testing.T) {
	sh, shared, out := newTestShell(t, nil)
	path := filepath.Join(t.TempDir(), "demo.yaml")

	run(t, sh, out, "pip bottom-left large")
	run(t, sh, out, "seek 3")
	if got := run(t, sh, out, "save "+path); !strings.Contains(got, "Saved 2 clip(s)") {
		t.Fatalf("save printed %q", got)
	}

	run(t, sh, out, "delete c1")
	run(t, sh, out, "pip top-right")
	if got := run(t, sh, out, "load "+path); !strings.Contains(got, `Loaded "demo" with 2 clip(s)`) {
		t.Fatalf("load printed %q", got)
	}
	if n := len(clipsOf(shared)); n != 2 {
		t.Errorf("clips after load = %d", n)
	}
	if sh.pip.Position != overlays.BottomLeft || sh.pip.Size != overlays.Large {
		t.Errorf("pip after load = %+v", sh.pip)
	}
	var playhead float64
	shared.Do(func(s *editor.Session) { playhead = s.Timeline.Playhead() })
	if playhead != 3 {
		t.Errorf("playhead after load = %v", playhead)
	}
}

func TestExportCommand(t *testing.T) {
	exp := &fakeExporter{}
	sh, _, out := newTestShell(t, exp)

	if got := run(t, sh, out, "export /tmp/out.mp4"); !strings.Contains(got, "Exported 2 clip(s)") {
		t.Errorf("export printed %q", got)
	}
	if exp.opts.Output != "/tmp/out.mp4" || len(exp.timeline) != 2 {
		t.Errorf("exporter got %+v %+v", exp.opts, exp.timeline)
	}

	noExp, _, out2 := newTestShell(t, nil)
	if got := run(t, noExp, out2, "export /tmp/out.mp4"); !strings.Contains(got, "not available") {
		t.Errorf("export without exporter printed %q", got)
	}
}

func TestExit(t *testing.T) {
	sh, _, _ := newTestShell(t, nil)
	for _, line := range []string{"exit", "quit", "Q"} {
		if sh.HandleCommand(context.Background(), line) {
			t.Errorf("%q should exit", line)
		}
	}
}
