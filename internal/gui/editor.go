package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/frameloop"
	"github.com/keagan/clipforge/internal/media"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/internal/playback"
	"github.com/keagan/clipforge/internal/prefs"
	"github.com/keagan/clipforge/internal/render"
)

// tickInterval drives playback and timeline redraws
const tickInterval = time.Second / 30

// Deps are the services the editor window drives
type Deps struct {
	Config     *config.Config
	Shared     *editor.Shared
	Notes      *editor.Notifier
	Importer   *media.Importer
	Pipeline   *pipeline.Pipeline
	Thumbnails Thumbnailer
	Prefs      *prefs.Store
	Screen     *capture.Sidecar
	Camera     *capture.Sidecar
	Devices    ffmpeg.Devices
	Logger     zerolog.Logger
}

type editorWindow struct {
	ctx    context.Context
	deps   Deps
	win    fyne.Window
	tl     *timelineWidget
	pip    *pipPanel
	notes  *widget.Label
	play   *widget.Button
	logger zerolog.Logger
}

// Run opens the editor window and blocks until it is closed
func Run(ctx context.Context, deps Deps) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := app.NewWithID("clipforge")
	w := a.NewWindow("clipforge")
	w.Resize(fyne.NewSize(1100, 720))

	e := &editorWindow{
		ctx:    ctx,
		deps:   deps,
		win:    w,
		tl:     newTimelineWidget(deps.Shared),
		notes:  widget.NewLabel(""),
		logger: deps.Logger.With().Str("component", "gui").Logger(),
	}
	e.pip = newPiPPanel(ctx, deps, deps.Notes, func(path string) { e.importPaths(path) })

	preview := &canvas.Image{FillMode: canvas.ImageFillContain}
	preview.SetMinSize(fyne.NewSize(480, 270))

	rate := prefs.DefaultPreviewRate
	if deps.Prefs != nil {
		rate = deps.Prefs.PreviewRate(ctx)
	}
	sampler := newPreviewSampler(deps.Thumbnails, deps.Config.Preview.ThumbnailDir, rate, func(path string) {
		fyne.Do(func() {
			preview.File = path
			preview.Refresh()
		})
	}, deps.Logger)
	go sampler.Run(ctx)

	ticker := frameloop.New(tickInterval, func() { fyne.Do(e.tick) }, frameloop.RealScheduler)
	sampling := frameloop.New(frameloop.IntervalForRate(rate), func() {
		fyne.Do(func() {
			deps.Shared.Do(func(s *editor.Session) {
				if act, ok := s.Player.Active(); ok {
					sampler.Request(act.Clip.MediaRef, act.SourceTime)
				}
			})
		})
	}, frameloop.RealScheduler)

	split := container.NewHSplit(preview, e.pip.content())
	split.Offset = 0.6

	w.SetContent(container.NewBorder(
		e.toolbar(),
		container.NewVBox(e.tl, e.notes),
		nil, nil,
		split,
	))
	e.shortcuts()

	w.SetOnClosed(func() {
		ticker.Disable()
		sampling.Disable()
		e.pip.shutdown()
		cancel()
	})

	ticker.Enable()
	sampling.Enable()
	w.ShowAndRun()
}

// tick advances playback and repaints what changed. It runs on the UI goroutine.
func (e *editorWindow) tick() {
	e.deps.Shared.Step(tickInterval)
	e.tl.redrawIfDirty()

	playing := false
	e.deps.Shared.Do(func(s *editor.Session) {
		playing = s.Player.State(playback.ModeTimeline) == playback.Playing
	})
	if playing {
		e.play.SetText("Pause")
	} else {
		e.play.SetText("Play")
	}

	var texts []string
	for _, m := range e.deps.Notes.Active() {
		texts = append(texts, m.Text)
	}
	if text := strings.Join(texts, "  |  "); text != e.notes.Text {
		e.notes.SetText(text)
	}
}

func (e *editorWindow) toolbar() fyne.CanvasObject {
	e.play = widget.NewButton("Play", e.togglePlay)

	zoom := widget.NewSlider(render.MinZoom, render.MaxZoom)
	zoom.Step = 0.1
	zoom.Value = 1
	zoom.OnChanged = func(v float64) {
		e.edit(func(s *editor.Session) { s.Timeline.SetZoom(v) })
	}

	return container.NewBorder(nil, nil,
		container.NewHBox(
			widget.NewButton("Import", e.openImport),
			widget.NewButton("Open", e.openProject),
			widget.NewButton("Save", e.saveProject),
			widget.NewButton("Export", e.exportTimeline),
			widget.NewSeparator(),
			e.play,
			widget.NewButton("Split", e.split),
			widget.NewButton("Copy", func() { e.editErr(func(s *editor.Session) error { return s.Copy() }) }),
			widget.NewButton("Paste", func() {
				e.editErr(func(s *editor.Session) error { _, err := s.Paste(); return err })
			}),
			widget.NewButton("Delete", func() { e.editErr(func(s *editor.Session) error { return s.DeleteSelected() }) }),
			widget.NewButton("Undo", func() { e.edit(func(s *editor.Session) { s.Undo() }) }),
			widget.NewButton("Redo", func() { e.edit(func(s *editor.Session) { s.Redo() }) }),
		),
		nil,
		zoom,
	)
}

func (e *editorWindow) shortcuts() {
	c := e.win.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		e.edit(func(s *editor.Session) { s.Undo() })
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}, func(fyne.Shortcut) {
		e.edit(func(s *editor.Session) { s.Redo() })
	})
	c.AddShortcut(&fyne.ShortcutCopy{}, func(fyne.Shortcut) {
		e.editErr(func(s *editor.Session) error { return s.Copy() })
	})
	c.AddShortcut(&fyne.ShortcutPaste{}, func(fyne.Shortcut) {
		e.editErr(func(s *editor.Session) error { _, err := s.Paste(); return err })
	})
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeySpace:
			e.togglePlay()
		case fyne.KeyDelete, fyne.KeyBackspace:
			e.editErr(func(s *editor.Session) error { return s.DeleteSelected() })
		case fyne.KeyS:
			e.split()
		}
	})
}

// edit runs fn against the session and repaints the timeline
func (e *editorWindow) edit(fn func(s *editor.Session)) {
	e.deps.Shared.Do(fn)
	e.tl.redrawIfDirty()
}

// editErr is edit for operations whose failure the user should see
func (e *editorWindow) editErr(fn func(s *editor.Session) error) {
	var err error
	e.edit(func(s *editor.Session) { err = fn(s) })
	if err != nil {
		e.deps.Notes.Error(err)
	}
}

func (e *editorWindow) togglePlay() {
	e.edit(func(s *editor.Session) {
		if s.Player.State(playback.ModeTimeline) == playback.Playing {
			s.Player.Pause()
		} else {
			s.Player.Play()
		}
	})
}

func (e *editorWindow) split() {
	e.editErr(func(s *editor.Session) error {
		_, _, err := s.SplitAtPlayhead()
		return err
	})
}

func (e *editorWindow) openImport() {
	fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
		if err != nil {
			e.deps.Notes.Error(err)
			return
		}
		if ur == nil {
			return
		}
		path := ur.URI().Path()
		ur.Close()
		e.importPaths(path)
	}, e.win)
	fd.SetFilter(storage.NewExtensionFileFilter(media.Extensions))
	fd.Show()
}

// importPaths probes off the UI goroutine and appends the results to the timeline
func (e *editorWindow) importPaths(paths ...string) {
	if e.deps.Importer == nil {
		return
	}
	go func() {
		res := e.deps.Importer.Import(e.ctx, paths)
		fyne.Do(func() {
			e.edit(func(s *editor.Session) { s.AddImported(res) })
		})
	}()
}

func (e *editorWindow) openProject() {
	fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
		if err != nil || ur == nil {
			return
		}
		path := ur.URI().Path()
		ur.Close()

		proj, err := pipeline.LoadProject(path)
		if err != nil {
			e.deps.Notes.Error(err)
			return
		}
		e.editErr(func(s *editor.Session) error {
			if err := proj.Apply(s.Store); err != nil {
				return err
			}
			if proj.Zoom > 0 {
				s.Timeline.SetZoom(proj.Zoom)
			}
			s.Seek(proj.Playhead)
			return nil
		})
		e.pip.cfg = proj.PiP
		e.pip.apply()
		e.deps.Notes.Info(fmt.Sprintf("Opened %s", proj.Name))
	}, e.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml"}))
	fd.Show()
}

func (e *editorWindow) saveProject() {
	fd := dialog.NewFileSave(func(uw fyne.URIWriteCloser, err error) {
		if err != nil || uw == nil {
			return
		}
		path := uw.URI().Path()
		uw.Close()

		var proj *pipeline.Project
		e.deps.Shared.Do(func(s *editor.Session) {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			proj = pipeline.NewProject(name, s.Store, e.pip.cfg)
			proj.Playhead = s.Timeline.Playhead()
			proj.Zoom = s.Timeline.View().Zoom
		})
		if err := pipeline.SaveProject(path, proj); err != nil {
			e.deps.Notes.Error(err)
			return
		}
		e.deps.Notes.Info("Project saved")
	}, e.win)
	fd.SetFileName("project.yaml")
	fd.Show()
}

func (e *editorWindow) exportTimeline() {
	if e.deps.Pipeline == nil {
		return
	}
	fd := dialog.NewFileSave(func(uw fyne.URIWriteCloser, err error) {
		if err != nil || uw == nil {
			return
		}
		path := uw.URI().Path()
		uw.Close()

		var timeline []clips.Clip
		e.deps.Shared.Do(func(s *editor.Session) { timeline = s.Store.Clips() })

		e.deps.Notes.Info("Exporting...")
		go func() {
			err := e.deps.Pipeline.Export(e.ctx, timeline, pipeline.ExportOptions{Output: path})
			if err != nil {
				e.logger.Error().Err(err).Str("output", path).Msg("export failed")
				e.deps.Notes.Error(err)
				return
			}
			e.deps.Notes.Info("Exported " + filepath.Base(path))
		}()
	}, e.win)
	fd.SetFileName("export.mp4")
	fd.Show()
}
