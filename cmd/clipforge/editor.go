package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/gui"
	"github.com/keagan/clipforge/internal/prefs"
)

var editorCmd = &cobra.Command{
	Use:   "editor",
	Short: "Open the timeline editor window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		logger := log.With().Str("component", "editor").Logger()

		session, backend, _, err := newSession(cfg, projectFile)
		if err != nil {
			return err
		}

		deps := gui.Deps{
			Config: cfg,
			Shared: editor.NewShared(session, backend),
			Notes:  session.Notes,
			Logger: log.Logger,
		}

		exec, importer, pipe := newMediaTools(cfg, logger)
		if exec != nil {
			deps.Importer = importer
			deps.Pipeline = pipe
			deps.Thumbnails = exec

			devices, err := exec.ListDevices(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("capture devices unavailable")
			}
			deps.Devices = devices
		}

		store, err := prefs.Open(cfg.Prefs.Path, log.Logger)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.Prefs.Path).Msg("preferences unavailable")
		} else {
			defer store.Close()
			deps.Prefs = store
		}

		if cfg.Capture.HelperBinary != "" {
			deps.Screen = newSidecar(cfg, ffmpeg.DeviceScreen)
			if len(deps.Devices.Cameras) > 0 {
				deps.Camera = newSidecar(cfg, ffmpeg.DeviceCamera)
			}
		}

		gui.Run(ctx, deps)

		for _, sc := range []*capture.Sidecar{deps.Screen, deps.Camera} {
			if sc != nil && sc.Running() {
				if err := sc.Stop(); err != nil {
					logger.Warn().Err(err).Msg("capture helper did not stop cleanly")
				}
			}
		}
		return nil
	},
}

func newSidecar(cfg *config.Config, kind ffmpeg.DeviceKind) *capture.Sidecar {
	args := append([]string{}, cfg.Capture.HelperArgs...)
	args = append(args, "--source", string(kind))
	return capture.NewSidecar(cfg.Capture.HelperBinary, args, log.With().Str("source", string(kind)).Logger())
}
