package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/media"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/internal/playback"
	"github.com/keagan/clipforge/internal/render"
	"github.com/keagan/clipforge/pkg/util"
)

// Default timeline viewport for hosts without a window
const (
	defaultViewWidth  = 1280
	defaultViewHeight = 120
)

// newSession builds an editing session on a virtual playback clock.
// When path is set the project's clips are loaded first.
func newSession(cfg *config.Config, path string) (*editor.Session, *playback.ClockBackend, *pipeline.Project, error) {
	store := clips.NewStore(clips.WithHistoryLimit(cfg.Timeline.HistoryLimit))

	var proj *pipeline.Project
	if path != "" {
		p, err := pipeline.LoadProject(path)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := p.Apply(store); err != nil {
			return nil, nil, nil, err
		}
		store.ResetHistory()
		proj = p
	}

	backend := playback.NewClockBackend(func(ref string) error {
		if !util.FileExists(ref) {
			return fmt.Errorf("%s: file not found", ref)
		}
		return nil
	})
	player := playback.NewSynchronizer(store, backend, cfg.PlaybackOptions(), log.Logger)
	backend.Attach(player)

	view := cfg.NewView(defaultViewWidth, defaultViewHeight)
	timeline := render.NewTimeline(store, view, log.Logger)
	timeline.SetSnapPixels(cfg.Timeline.SnapPixels)

	notes := editor.NewNotifier(editor.DefaultMessageTTL, nil, log.Logger)
	session := editor.NewSession(store, timeline, player, notes, log.Logger)

	if proj != nil {
		if proj.Zoom > 0 {
			timeline.SetZoom(proj.Zoom)
		}
		session.Seek(proj.Playhead)
	}
	return session, backend, proj, nil
}

func newExecutor(cfg *config.Config) (*ffmpeg.Executor, error) {
	return ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
}

func newPipeline(cfg *config.Config, exec *ffmpeg.Executor) *pipeline.Pipeline {
	return pipeline.New(log.Logger, &pipeline.Config{
		TempDir: cfg.TempDir,
		Preset:  cfg.FFmpeg.Preset,
	}, exec)
}

// newMediaTools returns the importer and pipeline, or nils when ffmpeg is missing
func newMediaTools(cfg *config.Config, logger zerolog.Logger) (*ffmpeg.Executor, *media.Importer, *pipeline.Pipeline) {
	exec, err := newExecutor(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("ffmpeg unavailable, import and export are disabled")
		return nil, nil, nil
	}
	if err := util.EnsureDir(cfg.TempDir); err != nil {
		logger.Warn().Err(err).Str("dir", cfg.TempDir).Msg("failed to create temp dir")
	}
	return exec, media.NewImporter(exec, log.Logger), newPipeline(cfg, exec)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
