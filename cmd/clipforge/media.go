package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/media"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/pkg/util"
)

var (
	importInto string

	compositePosition string
	compositeSize     string
	compositeAudio    bool
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Probe media files and optionally append them to a project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}
		res := media.NewImporter(exec, log.Logger).Import(ctx, args)
		for _, err := range res.Errors {
			log.Warn().Err(err).Msg("skipped")
		}
		if res.Rejected > 0 {
			log.Warn().Int("count", res.Rejected).Strs("supported", media.Extensions).Msg("unsupported files ignored")
		}
		if len(res.Imported) == 0 {
			return fmt.Errorf("no media imported")
		}

		if importInto == "" {
			return printJSON(res.Imported)
		}

		store := clips.NewStore()
		proj := &pipeline.Project{
			Name: strings.TrimSuffix(filepath.Base(importInto), filepath.Ext(importInto)),
			PiP:  overlays.DefaultConfig(),
		}
		if util.FileExists(importInto) {
			if proj, err = pipeline.LoadProject(importInto); err != nil {
				return err
			}
			if err := proj.Apply(store); err != nil {
				return err
			}
		}

		added, err := media.AppendAll(store, res.Imported)
		if err != nil {
			return err
		}
		proj.Clips = store.Clips()
		if err := pipeline.SaveProject(importInto, proj); err != nil {
			return err
		}

		log.Info().Int("added", len(added)).Str("project", importInto).Float64("duration", store.EndTime()).Msg("project updated")
		return nil
	},
}

var compositeCmd = &cobra.Command{
	Use:   "composite [screen] [camera] [output]",
	Short: "Overlay a camera recording onto a screen recording",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		pip, err := overlayFlags(compositePosition, compositeSize, compositeAudio)
		if err != nil {
			return err
		}
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		res, err := newPipeline(cfg, exec).FinishPiP(ctx, pipeline.PiPRecording{
			ScreenPath: args[0],
			CameraPath: args[1],
			Output:     args[2],
			Config:     pip,
		})
		if err != nil {
			return err
		}
		if res.CompositeErr != nil {
			log.Warn().Err(res.CompositeErr).Str("output", res.Output).Msg("kept screen recording without overlay")
			return nil
		}
		log.Info().Str("output", res.Output).Msg("composite written")
		return nil
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List screens, cameras and microphones",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exec, err := newExecutor(config.FromContext(ctx))
		if err != nil {
			return err
		}
		devices, err := exec.ListDevices(ctx)
		if err != nil {
			return err
		}
		return printJSON(devices)
	},
}

// overlayFlags turns command-line strings into a validated overlay config
func overlayFlags(position, size string, audio bool) (overlays.Config, error) {
	pos, err := overlays.ParsePosition(position)
	if err != nil {
		return overlays.Config{}, err
	}
	sz, err := overlays.ParseSize(size)
	if err != nil {
		return overlays.Config{}, err
	}
	cfg := overlays.Config{Position: pos, Size: sz, IncludeAudio: audio}
	return cfg, cfg.Validate()
}

func init() {
	importCmd.Flags().StringVar(&importInto, "into", "", "project file to append the media to")

	compositeCmd.Flags().StringVar(&compositePosition, "position", string(overlays.DefaultConfig().Position), "overlay corner")
	compositeCmd.Flags().StringVar(&compositeSize, "size", string(overlays.DefaultConfig().Size), "overlay size (small|medium|large)")
	compositeCmd.Flags().BoolVar(&compositeAudio, "audio", true, "keep the screen recording's audio")
}
