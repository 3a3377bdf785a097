package main

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/prefs"
)

var (
	prefsPosition string
	prefsSize     string
	prefsAudio    bool
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openPrefs(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		return printJSON(map[string]any{
			"preview_rate": store.PreviewRate(ctx),
			"pip":          store.PiPConfig(ctx),
		})
	},
}

var prefsRateCmd = &cobra.Command{
	Use:   "preview-rate [fps]",
	Short: "Set the preview sample rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fps, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", args[0], err)
		}
		store, err := openPrefs(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		stored, err := store.SetPreviewRate(cmd.Context(), fps)
		if err != nil {
			return err
		}
		if stored != fps {
			log.Warn().Float64("requested", fps).Float64("stored", stored).Msg("preview rate clamped")
		}
		fmt.Printf("preview rate: %g fps\n", stored)
		return nil
	},
}

var prefsPiPCmd = &cobra.Command{
	Use:   "pip",
	Short: "Set the default picture-in-picture layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		pip, err := overlayFlags(prefsPosition, prefsSize, prefsAudio)
		if err != nil {
			return err
		}
		store, err := openPrefs(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SetPiPConfig(cmd.Context(), pip); err != nil {
			return err
		}
		return printJSON(pip)
	},
}

func openPrefs(cmd *cobra.Command) (*prefs.Store, error) {
	cfg := config.FromContext(cmd.Context())
	return prefs.Open(cfg.Prefs.Path, log.Logger)
}

func init() {
	prefsPiPCmd.Flags().StringVar(&prefsPosition, "position", "bottom-right", "overlay corner")
	prefsPiPCmd.Flags().StringVar(&prefsSize, "size", "medium", "overlay size (small|medium|large)")
	prefsPiPCmd.Flags().BoolVar(&prefsAudio, "audio", true, "keep screen audio in composites")

	prefsCmd.AddCommand(prefsRateCmd)
	prefsCmd.AddCommand(prefsPiPCmd)
}
