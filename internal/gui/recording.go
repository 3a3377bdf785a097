package gui

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/pipeline"
)

// Source names a capture helper
type Source string

const (
	SourceScreen Source = "screen"
	SourceCamera Source = "camera"
)

// recordingTake tracks one screen and optional camera recording until every
// helper has reported its finished file.
type recordingTake struct {
	paths    map[Source]string
	finished map[Source]string
	cfg      overlays.Config
	output   string
}

func newRecordingTake(dir string, started time.Time, withCamera bool, cfg overlays.Config) *recordingTake {
	stamp := started.Format("20060102-150405")
	t := &recordingTake{
		paths: map[Source]string{
			SourceScreen: filepath.Join(dir, fmt.Sprintf("recording-%s-screen.mp4", stamp)),
		},
		finished: make(map[Source]string),
		cfg:      cfg,
		output:   filepath.Join(dir, fmt.Sprintf("recording-%s.mp4", stamp)),
	}
	if withCamera {
		t.paths[SourceCamera] = filepath.Join(dir, fmt.Sprintf("recording-%s-camera.mp4", stamp))
	}
	return t
}

// Request returns the helper request for src
func (t *recordingTake) Request(src Source, device, microphone string) capture.RecordingRequest {
	req := capture.RecordingRequest{OutputPath: t.paths[src]}
	switch src {
	case SourceScreen:
		req.Screen = device
		if t.cfg.IncludeAudio {
			req.Microphone = microphone
		}
	case SourceCamera:
		req.Camera = device
	}
	return req
}

// Stopped records a finished file. It returns the composite job once every
// expected source has reported.
func (t *recordingTake) Stopped(src Source, ev capture.RecordingStopped) (pipeline.PiPRecording, bool) {
	if _, ok := t.paths[src]; !ok {
		return pipeline.PiPRecording{}, false
	}
	t.finished[src] = ev.Path
	if len(t.finished) < len(t.paths) {
		return pipeline.PiPRecording{}, false
	}
	return pipeline.PiPRecording{
		ScreenPath: t.finished[SourceScreen],
		CameraPath: t.finished[SourceCamera],
		Output:     t.output,
		Config:     t.cfg,
	}, true
}

// pumpFrame decodes the newest preview frame from src into dst.
// It reports false when no new frame was waiting.
func pumpFrame(src *capture.FrameSlot, dst *capture.Slot[image.Image]) (bool, error) {
	f, ok := src.Take()
	if !ok {
		return false, nil
	}
	img, err := f.Image()
	if err != nil {
		return false, err
	}
	dst.Put(img)
	return true, nil
}
