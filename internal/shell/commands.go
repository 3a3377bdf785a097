package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/export"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/pkg/util"
)

// errUsage makes the shell print the command's usage line
var errUsage = errors.New("usage")

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	run     func(sh *Shell, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "help", aliases: []string{"h", "?"}, usage: "help", help: "Show this help", run: (*Shell).cmdHelp},
		{name: "list", aliases: []string{"ls", "status"}, usage: "list", help: "List clips on the timeline", run: (*Shell).cmdList},
		{name: "import", usage: "import <file>...", help: "Probe files and append them to the timeline", run: (*Shell).cmdImport},
		{name: "add", usage: "add <media> <duration> [at <time>]", help: "Place a clip without probing", run: (*Shell).cmdAdd},
		{name: "select", usage: "select <id>", help: "Select a clip", run: (*Shell).cmdSelect},
		{name: "trim", usage: "trim <id> <in> <out>", help: "Set a clip's source in and out points", run: (*Shell).cmdTrim},
		{name: "move", usage: "move <id> <time>", help: "Move a clip, snapping to neighbours", run: (*Shell).cmdMove},
		{name: "split", usage: "split [time]", help: "Split the clip under the playhead", run: (*Shell).cmdSplit},
		{name: "delete", aliases: []string{"rm"}, usage: "delete [id]", help: "Delete a clip or the selection", run: (*Shell).cmdDelete},
		{name: "copy", usage: "copy", help: "Copy the selected clip", run: (*Shell).cmdCopy},
		{name: "paste", usage: "paste", help: "Insert the copied clip at the playhead", run: (*Shell).cmdPaste},
		{name: "undo", aliases: []string{"u"}, usage: "undo", help: "Undo the last edit", run: (*Shell).cmdUndo},
		{name: "redo", usage: "redo", help: "Redo the last undone edit", run: (*Shell).cmdRedo},
		{name: "seek", usage: "seek <time>", help: "Move the playhead (SS, MM:SS or HH:MM:SS)", run: (*Shell).cmdSeek},
		{name: "play", usage: "play", help: "Play the timeline", run: (*Shell).cmdPlay},
		{name: "pause", usage: "pause", help: "Pause playback", run: (*Shell).cmdPause},
		{name: "where", usage: "where", help: "Show the playhead and active clip", run: (*Shell).cmdWhere},
		{name: "pip", usage: "pip [position] [size] [WxH]", help: "Show or set picture-in-picture placement", run: (*Shell).cmdPiP},
		{name: "edl", usage: "edl [title]", help: "Print the timeline as a CMX3600 EDL", run: (*Shell).cmdEDL},
		{name: "save", usage: "save <file.yaml>", help: "Save the project", run: (*Shell).cmdSave},
		{name: "load", usage: "load <file.yaml>", help: "Load a project", run: (*Shell).cmdLoad},
		{name: "export", usage: "export <output.mp4>", help: "Render the timeline to a video file", run: (*Shell).cmdExport},
		{name: "exit", aliases: []string{"quit", "q"}, usage: "exit", help: "Leave the shell"},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// HandleCommand runs one input line. It returns false when the shell should exit.
func (sh *Shell) HandleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	c, ok := lookup(strings.ToLower(parts[0]))
	if !ok {
		sh.printf("Unknown command %q. Type help for commands.\n", parts[0])
		return true
	}
	if c.run == nil {
		return false
	}

	if err := c.run(sh, ctx, parts[1:]); err != nil {
		if errors.Is(err, errUsage) {
			sh.printf("Usage: %s\n", c.usage)
		} else {
			sh.logger.Debug().Err(err).Str("command", c.name).Msg("command failed")
			sh.printf("Error: %s\n", editor.Describe(err))
		}
	}
	return true
}

func (sh *Shell) cmdHelp(_ context.Context, _ []string) error {
	sh.printf("\nCommands:\n")
	for _, c := range commands {
		sh.printf("  %-36s %s\n", c.usage, c.help)
	}
	sh.printf("\n")
	return nil
}

func (sh *Shell) cmdList(_ context.Context, _ []string) error {
	sh.shared.Do(func(s *editor.Session) {
		all := s.Store.Clips()
		if len(all) == 0 {
			sh.printf("Timeline is empty\n")
			return
		}
		selected := s.Timeline.Selected()
		for _, c := range all {
			mark := " "
			if c.ID == selected {
				mark = "*"
			}
			sh.printf("%s %-10s %-20s %8s - %-8s in %s out %s\n", mark, shortID(c.ID), clipLabel(c),
				util.FormatClock(c.StartTime), util.FormatClock(c.End()),
				util.FormatClock(c.TrimStart), util.FormatClock(c.TrimEnd))
		}
		sh.printf("%d clip(s), %s total, playhead %s\n", len(all), util.FormatClock(s.Store.EndTime()), util.FormatClock(s.Timeline.Playhead()))
	})
	return nil
}

func (sh *Shell) cmdImport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if sh.importer == nil {
		return fmt.Errorf("import is not available without ffmpeg")
	}

	res := sh.importer.Import(ctx, args)
	for _, err := range res.Errors {
		sh.printf("  skipped: %v\n", err)
	}
	sh.shared.Do(func(s *editor.Session) {
		placed := s.AddImported(res)
		for _, c := range placed {
			sh.printf("  %s %s at %s\n", shortID(c.ID), clipLabel(c), util.FormatClock(c.StartTime))
		}
		sh.printNotes(s)
	})
	return nil
}

func (sh *Shell) cmdAdd(_ context.Context, args []string) error {
	if len(args) != 2 && len(args) != 4 {
		return errUsage
	}
	duration, err := util.ParseSeconds(args[1])
	if err != nil {
		return err
	}
	d := clips.Draft{MediaRef: args[0], SourceDuration: duration}

	var at *float64
	if len(args) == 4 {
		if args[2] != "at" {
			return errUsage
		}
		t, err := util.ParseSeconds(args[3])
		if err != nil {
			return err
		}
		at = &t
	}

	sh.shared.Do(func(s *editor.Session) {
		var c clips.Clip
		if at == nil {
			c, err = s.Store.Append(d)
		} else {
			d.StartTime = *at
			c, err = s.Store.Add(d)
		}
		if err != nil {
			return
		}
		s.Timeline.Select(c.ID)
		s.Player.Refresh()
		sh.printf("Added %s at %s\n", shortID(c.ID), util.FormatClock(c.StartTime))
	})
	return err
}

func (sh *Shell) cmdSelect(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	var err error
	sh.shared.Do(func(s *editor.Session) {
		var c clips.Clip
		if c, err = resolve(s, args[0]); err == nil {
			s.Timeline.Select(c.ID)
			sh.printf("Selected %s\n", clipLabel(c))
		}
	})
	return err
}

func (sh *Shell) cmdTrim(_ context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	in, err := util.ParseSeconds(args[1])
	if err != nil {
		return err
	}
	out, err := util.ParseSeconds(args[2])
	if err != nil {
		return err
	}

	sh.shared.Do(func(s *editor.Session) {
		var c clips.Clip
		if c, err = resolve(s, args[0]); err != nil {
			return
		}
		trimmed, ok := s.Store.SetTrim(c.ID, in, out)
		if !ok {
			err = fmt.Errorf("cannot trim %s to %s-%s", clipLabel(c), args[1], args[2])
			return
		}
		s.Player.Refresh()
		sh.printf("Trimmed %s: %s long, ends at %s\n", clipLabel(trimmed), util.FormatClock(trimmed.Duration()), util.FormatClock(trimmed.End()))
	})
	return err
}

func (sh *Shell) cmdMove(_ context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	t, err := util.ParseSeconds(args[1])
	if err != nil {
		return err
	}

	sh.shared.Do(func(s *editor.Session) {
		var c clips.Clip
		if c, err = resolve(s, args[0]); err != nil {
			return
		}
		moved, snap, ok := s.Timeline.MoveClip(c.ID, t)
		if !ok {
			err = clips.ErrPlacementRejected
			return
		}
		s.Player.Refresh()
		if snap.Type != clips.SnapNone {
			sh.printf("Moved %s to %s (snapped to %s)\n", clipLabel(moved), util.FormatClock(moved.StartTime), snap.Type)
		} else {
			sh.printf("Moved %s to %s\n", clipLabel(moved), util.FormatClock(moved.StartTime))
		}
	})
	return err
}

func (sh *Shell) cmdSplit(_ context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	var at *float64
	if len(args) == 1 {
		t, err := util.ParseSeconds(args[0])
		if err != nil {
			return err
		}
		at = &t
	}

	var err error
	sh.shared.Do(func(s *editor.Session) {
		if at != nil {
			s.Seek(*at)
		}
		var left, right clips.Clip
		if left, right, err = s.SplitAtPlayhead(); err == nil {
			sh.printf("Split into %s and %s\n", shortID(left.ID), shortID(right.ID))
		}
	})
	return err
}

func (sh *Shell) cmdDelete(_ context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	var err error
	sh.shared.Do(func(s *editor.Session) {
		if len(args) == 1 {
			var c clips.Clip
			if c, err = resolve(s, args[0]); err != nil {
				return
			}
			s.Timeline.Select(c.ID)
		}
		if err = s.DeleteSelected(); err == nil {
			sh.printf("Deleted\n")
		}
	})
	return err
}

func (sh *Shell) cmdCopy(_ context.Context, _ []string) error {
	var err error
	sh.shared.Do(func(s *editor.Session) {
		if err = s.Copy(); err == nil {
			sh.printf("Copied\n")
		}
	})
	return err
}

func (sh *Shell) cmdPaste(_ context.Context, _ []string) error {
	var err error
	sh.shared.Do(func(s *editor.Session) {
		var c clips.Clip
		if c, err = s.Paste(); err == nil {
			sh.printf("Pasted %s at %s\n", shortID(c.ID), util.FormatClock(c.StartTime))
		}
	})
	return err
}

func (sh *Shell) cmdUndo(_ context.Context, _ []string) error {
	sh.shared.Do(func(s *editor.Session) {
		if s.Undo() {
			sh.printf("Undone\n")
		} else {
			sh.printf("Nothing to undo\n")
		}
	})
	return nil
}

func (sh *Shell) cmdRedo(_ context.Context, _ []string) error {
	sh.shared.Do(func(s *editor.Session) {
		if s.Redo() {
			sh.printf("Redone\n")
		} else {
			sh.printf("Nothing to redo\n")
		}
	})
	return nil
}

func (sh *Shell) cmdSeek(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	t, err := util.ParseSeconds(args[0])
	if err != nil {
		return err
	}
	sh.shared.Do(func(s *editor.Session) {
		s.Seek(t)
		sh.printWhere(s)
	})
	return nil
}

func (sh *Shell) cmdPlay(_ context.Context, _ []string) error {
	sh.shared.Do(func(s *editor.Session) {
		s.Player.Play()
		sh.printf("Playing from %s\n", util.FormatClock(s.Player.Playhead()))
	})
	return nil
}

func (sh *Shell) cmdPause(_ context.Context, _ []string) error {
	sh.shared.Do(func(s *editor.Session) {
		s.Player.Pause()
		s.SyncPlayhead()
		sh.printWhere(s)
	})
	return nil
}

func (sh *Shell) cmdWhere(_ context.Context, _ []string) error {
	sh.shared.Do(sh.printWhere)
	return nil
}

func (sh *Shell) printWhere(s *editor.Session) {
	p := s.Player
	state := p.State(p.Mode())
	if a, ok := p.Active(); ok {
		sh.printf("%s at %s: %s @ %s\n", state, util.FormatClock(p.Playhead()), clipLabel(a.Clip), util.FormatClock(a.SourceTime))
	} else {
		sh.printf("%s at %s: no clip\n", state, util.FormatClock(p.Playhead()))
	}
	if p.Stalled() {
		sh.printf("  %s\n", editor.Describe(p.Err()))
	}
}

func (sh *Shell) cmdPiP(_ context.Context, args []string) error {
	cfg := sh.pip
	width, height := 1920, 1080
	for _, arg := range args {
		if pos, err := overlays.ParsePosition(arg); err == nil {
			cfg.Position = pos
			continue
		}
		if size, err := overlays.ParseSize(arg); err == nil {
			cfg.Size = size
			continue
		}
		if _, err := fmt.Sscanf(arg, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
			return errUsage
		}
	}
	sh.pip = cfg

	r := overlays.OverlayRect(cfg, width, height, overlays.DefaultAspect)
	sh.printf("%s %s in %dx%d: x=%d y=%d w=%d h=%d\n", cfg.Position, cfg.Size, width, height, r.X, r.Y, r.W, r.H)
	return nil
}

func (sh *Shell) cmdEDL(_ context.Context, args []string) error {
	title := strings.Join(args, " ")
	sh.shared.Do(func(s *editor.Session) {
		sh.printf("%s", export.GenerateEDL(s.Store.Clips(), title, 0))
	})
	return nil
}

func (sh *Shell) cmdSave(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	var proj *pipeline.Project
	sh.shared.Do(func(s *editor.Session) {
		proj = pipeline.NewProject(strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])), s.Store, sh.pip)
		proj.Playhead = s.Timeline.Playhead()
		proj.Zoom = s.Timeline.View().Zoom
	})
	if err := pipeline.SaveProject(args[0], proj); err != nil {
		return err
	}
	sh.printf("Saved %d clip(s) to %s\n", len(proj.Clips), args[0])
	return nil
}

func (sh *Shell) cmdLoad(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	proj, err := pipeline.LoadProject(args[0])
	if err != nil {
		return err
	}

	sh.shared.Do(func(s *editor.Session) {
		if err = proj.Apply(s.Store); err != nil {
			return
		}
		if proj.Zoom > 0 {
			s.Timeline.SetZoom(proj.Zoom)
		}
		s.Seek(proj.Playhead)
	})
	if err != nil {
		return err
	}
	sh.pip = proj.PiP
	sh.printf("Loaded %q with %d clip(s)\n", proj.Name, len(proj.Clips))
	return nil
}

func (sh *Shell) cmdExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if sh.exporter == nil {
		return fmt.Errorf("export is not available without ffmpeg")
	}

	var timeline []clips.Clip
	sh.shared.Do(func(s *editor.Session) {
		timeline = s.Store.Clips()
	})
	if err := sh.exporter.Export(ctx, timeline, pipeline.ExportOptions{Output: args[0]}); err != nil {
		return err
	}
	sh.printf("Exported %d clip(s) to %s\n", len(timeline), args[0])
	return nil
}

func (sh *Shell) printNotes(s *editor.Session) {
	for _, m := range s.Notes.Active() {
		sh.printf("%s\n", m.Text)
		s.Notes.Dismiss(m.ID)
	}
}

// resolve finds a clip by full ID or unique ID prefix
func resolve(s *editor.Session, ref string) (clips.Clip, error) {
	if c, ok := s.Store.Get(ref); ok {
		return c, nil
	}
	var found []clips.Clip
	for _, c := range s.Store.Clips() {
		if strings.HasPrefix(c.ID, ref) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return clips.Clip{}, fmt.Errorf("no clip %q", ref)
	case 1:
		return found[0], nil
	}
	return clips.Clip{}, fmt.Errorf("%q matches %d clips", ref, len(found))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clipLabel(c clips.Clip) string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(c.MediaRef)
}
