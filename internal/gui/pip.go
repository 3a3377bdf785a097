package gui

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/compositor"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/frameloop"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/internal/prefs"
)

// previewFPS is the rate requested from capture helpers for the live view
const previewFPS = 15

// metricsEvery is how many frame pumps pass between status updates
const metricsEvery = 30

// Finisher composites a finished recording
type Finisher interface {
	FinishPiP(ctx context.Context, rec pipeline.PiPRecording) (pipeline.PiPResult, error)
}

// pipPanel holds the live picture-in-picture preview and recording controls
type pipPanel struct {
	ctx      context.Context
	cfg      overlays.Config
	prefs    *prefs.Store
	screen   *capture.Sidecar
	camera   *capture.Sidecar
	devices  ffmpeg.Devices
	finisher Finisher
	dir      string
	notes    *editor.Notifier
	imported func(path string)

	comp   *compositor.Compositor
	pump   *frameloop.Loop
	view   *canvas.Image
	take   *recordingTake
	paused bool
	pumps  int
	label  *widget.Label
	// recording is read by the frame pump off the UI goroutine
	recording atomic.Bool

	logger zerolog.Logger
}

func newPiPPanel(ctx context.Context, deps Deps, notes *editor.Notifier, imported func(string)) *pipPanel {
	p := &pipPanel{
		ctx:      ctx,
		cfg:      overlays.DefaultConfig(),
		prefs:    deps.Prefs,
		screen:   deps.Screen,
		camera:   deps.Camera,
		devices:  deps.Devices,
		dir:      deps.Config.Capture.OutputDir,
		notes:    notes,
		imported: imported,
		logger:   deps.Logger.With().Str("component", "pip").Logger(),
	}
	if deps.Pipeline != nil {
		p.finisher = deps.Pipeline
	}
	if p.prefs != nil {
		p.cfg = p.prefs.PiPConfig(ctx)
	}

	p.view = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 16, 9)))
	p.view.FillMode = canvas.ImageFillContain
	p.view.SetMinSize(fyne.NewSize(320, 180))

	p.comp = compositor.New(p.cfg, compositor.DefaultRefreshInterval, func(frame *image.RGBA) {
		fyne.Do(func() {
			p.view.Image = frame
			p.view.Refresh()
		})
	}, frameloop.RealScheduler, deps.Logger)
	p.pump = frameloop.New(compositor.DefaultRefreshInterval, p.pumpFrames, frameloop.RealScheduler)

	if p.screen != nil {
		p.screen.OnEvent(p.onEvent(SourceScreen))
	}
	if p.camera != nil {
		p.camera.OnEvent(p.onEvent(SourceCamera))
	}
	return p
}

func (p *pipPanel) content() fyne.CanvasObject {
	positions := []string{string(overlays.TopLeft), string(overlays.TopRight), string(overlays.BottomLeft), string(overlays.BottomRight)}
	position := widget.NewSelect(positions, func(v string) {
		if pos, err := overlays.ParsePosition(v); err == nil {
			p.cfg.Position = pos
			p.apply()
		}
	})
	position.SetSelected(string(p.cfg.Position))

	sizes := []string{string(overlays.Small), string(overlays.Medium), string(overlays.Large)}
	size := widget.NewSelect(sizes, func(v string) {
		if s, err := overlays.ParseSize(v); err == nil {
			p.cfg.Size = s
			p.apply()
		}
	})
	size.SetSelected(string(p.cfg.Size))

	audio := widget.NewCheck("Include audio", func(on bool) {
		p.cfg.IncludeAudio = on
		p.apply()
	})
	audio.SetChecked(p.cfg.IncludeAudio)

	p.label = widget.NewLabel("Preview off")
	live := widget.NewCheck("Live preview", func(on bool) {
		if on {
			p.startPreview()
		} else {
			p.stopPreview()
		}
	})

	var record, pause *widget.Button
	pause = widget.NewButton("Pause", func() {
		if p.togglePause() {
			pause.SetText("Resume")
		} else {
			pause.SetText("Pause")
		}
	})
	pause.Disable()
	record = widget.NewButton("Record", func() {
		if p.take == nil {
			if p.startRecording() {
				record.SetText("Stop")
				pause.Enable()
			}
			return
		}
		p.stopRecording()
		record.SetText("Record")
		pause.SetText("Pause")
		pause.Disable()
	})

	return container.NewBorder(
		container.NewHBox(position, size, audio, live, record, pause),
		p.label, nil, nil,
		p.view,
	)
}

// apply pushes the configuration to the live view and saves it
func (p *pipPanel) apply() {
	p.comp.SetConfig(p.cfg)
	if p.prefs == nil {
		return
	}
	if err := p.prefs.SetPiPConfig(p.ctx, p.cfg); err != nil {
		p.logger.Warn().Err(err).Msg("failed to save pip config")
	}
}

func (p *pipPanel) startPreview() {
	if p.screen == nil {
		p.notes.Error(fmt.Errorf("%w: no capture helper configured", capture.ErrDeviceAccess))
		return
	}
	for _, sc := range p.sidecars() {
		if !sc.Running() {
			if err := sc.Start(p.ctx); err != nil {
				p.notes.Error(err)
				return
			}
		}
		if err := sc.StartPreview(previewFPS); err != nil {
			p.notes.Error(err)
			return
		}
	}
	p.pump.Enable()
	p.comp.Enable()
	p.label.SetText("Preview on")
}

func (p *pipPanel) stopPreview() {
	p.comp.Disable()
	p.pump.Disable()
	for _, sc := range p.sidecars() {
		if sc.Running() {
			sc.StopPreview()
		}
	}
	p.label.SetText("Preview off")
}

func (p *pipPanel) pumpFrames() {
	if p.screen != nil {
		if _, err := pumpFrame(&p.screen.Frames, &p.comp.Primary); err != nil {
			p.logger.Debug().Err(err).Msg("dropped screen frame")
		}
	}
	if p.camera != nil {
		if _, err := pumpFrame(&p.camera.Frames, &p.comp.Secondary); err != nil {
			p.logger.Debug().Err(err).Msg("dropped camera frame")
		}
	}

	p.pumps++
	if p.screen == nil || p.recording.Load() || p.pumps%metricsEvery != 0 {
		return
	}
	if m, ok := p.screen.Metrics(); ok {
		text := fmt.Sprintf("Preview %.1f fps, %d dropped", m.CurrentFPS, m.DroppedFrames)
		fyne.Do(func() { p.label.SetText(text) })
	}
}

func (p *pipPanel) startRecording() bool {
	if p.screen == nil {
		p.notes.Error(fmt.Errorf("%w: no capture helper configured", capture.ErrDeviceAccess))
		return false
	}
	for _, sc := range p.sidecars() {
		if !sc.Running() {
			if err := sc.Start(p.ctx); err != nil {
				p.notes.Error(err)
				return false
			}
		}
	}

	take := newRecordingTake(p.dir, time.Now(), p.camera != nil, p.cfg)
	if err := p.screen.StartRecording(take.Request(SourceScreen, firstDevice(p.devices.Screens), firstDevice(p.devices.Microphones))); err != nil {
		p.notes.Error(err)
		return false
	}
	if p.camera != nil {
		if err := p.camera.StartRecording(take.Request(SourceCamera, firstDevice(p.devices.Cameras), "")); err != nil {
			p.screen.StopRecording()
			p.notes.Error(err)
			return false
		}
	}
	p.take = take
	p.recording.Store(true)
	p.label.SetText("Recording")
	return true
}

// togglePause pauses or resumes every helper and reports whether the take is paused
func (p *pipPanel) togglePause() bool {
	if p.take == nil {
		return false
	}
	for _, sc := range p.sidecars() {
		var err error
		if p.paused {
			err = sc.ResumeRecording()
		} else {
			err = sc.PauseRecording()
		}
		if err != nil {
			p.notes.Error(err)
			return p.paused
		}
	}
	p.paused = !p.paused
	if p.paused {
		p.label.SetText("Recording paused")
	} else {
		p.label.SetText("Recording")
	}
	return p.paused
}

func (p *pipPanel) stopRecording() {
	p.paused = false
	for _, sc := range p.sidecars() {
		if err := sc.StopRecording(); err != nil {
			p.notes.Error(err)
		}
	}
	p.label.SetText("Finishing recording")
}

// onEvent handles helper events; it runs on the helper's reader goroutine
func (p *pipPanel) onEvent(src Source) func(capture.Event) {
	return func(ev capture.Event) {
		switch e := ev.(type) {
		case capture.DeviceError:
			fyne.Do(func() { p.notes.Error(e.Err()) })
		case capture.RecordingStopped:
			fyne.Do(func() { p.recordingStopped(src, e) })
		}
	}
}

func (p *pipPanel) recordingStopped(src Source, ev capture.RecordingStopped) {
	if p.take == nil {
		return
	}
	rec, done := p.take.Stopped(src, ev)
	if !done {
		return
	}
	p.take = nil
	p.recording.Store(false)
	if p.finisher == nil {
		p.notes.Error(fmt.Errorf("ffmpeg unavailable, recording kept at %s", rec.ScreenPath))
		p.label.SetText("Saved " + rec.ScreenPath)
		return
	}

	go func() {
		res, err := p.finisher.FinishPiP(p.ctx, rec)
		fyne.Do(func() {
			switch {
			case err != nil:
				p.notes.Error(err)
				p.label.SetText("Recording failed")
			case res.CompositeErr != nil:
				p.notes.Error(res.CompositeErr)
				p.label.SetText("Saved screen recording")
				p.imported(res.Output)
			default:
				p.label.SetText("Saved " + res.Output)
				p.imported(res.Output)
			}
		})
	}()
}

func (p *pipPanel) sidecars() []*capture.Sidecar {
	var out []*capture.Sidecar
	if p.screen != nil {
		out = append(out, p.screen)
	}
	if p.camera != nil {
		out = append(out, p.camera)
	}
	return out
}

func (p *pipPanel) shutdown() {
	p.stopPreview()
	for _, sc := range p.sidecars() {
		if sc.Running() {
			sc.Stop()
		}
	}
}

func firstDevice(devices []ffmpeg.Device) string {
	if len(devices) == 0 {
		return ""
	}
	return fmt.Sprintf("%d", devices[0].Index)
}
