package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/api"
	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/frameloop"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/shell"
)

var listenAddr string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit a timeline interactively from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)
		logger := log.With().Str("component", "shell").Logger()

		session, backend, proj, err := newSession(cfg, projectFile)
		if err != nil {
			return err
		}

		opts := shell.Options{PiP: overlays.DefaultConfig(), Out: os.Stdout}
		if proj != nil {
			opts.PiP = proj.PiP
		}
		exec, importer, pipe := newMediaTools(cfg, logger)
		if exec != nil {
			opts.Importer = importer
			opts.Exporter = pipe
		}

		return shell.New(editor.NewShared(session, backend), opts, log.Logger).Run(ctx)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timeline over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		logger := log.With().Str("component", "serve").Logger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		session, backend, _, err := newSession(cfg, projectFile)
		if err != nil {
			return err
		}
		shared := editor.NewShared(session, backend)

		addr := cfg.API.Listen
		if listenAddr != "" {
			addr = listenAddr
		}
		srvCfg := api.ServerConfig{
			Addr:      addr,
			Session:   shared,
			Logger:    log.Logger,
			StartTime: time.Now(),
		}
		if exec, importer, _ := newMediaTools(cfg, logger); exec != nil {
			srvCfg.Importer = importer
		}
		server := api.NewServer(srvCfg)

		ticker := frameloop.New(shell.TickInterval, func() { shared.Step(shell.TickInterval) }, frameloop.RealScheduler)
		ticker.Enable()
		defer ticker.Disable()

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default from config)")
}
