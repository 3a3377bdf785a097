package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/export"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/pipeline"
	"github.com/keagan/clipforge/internal/render"
	"github.com/keagan/clipforge/pkg/util"
)

var (
	exportPreset string

	edlTitle  string
	edlFPS    float64
	edlOutput string

	snapshotWidth  int
	snapshotHeight int
	snapshotZoom   float64
)

var exportCmd = &cobra.Command{
	Use:   "export [project] [output]",
	Short: "Render a project's timeline to a single video",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromContext(ctx)

		proj, err := pipeline.LoadProject(args[0])
		if err != nil {
			return err
		}
		exec, err := newExecutor(cfg)
		if err != nil {
			return err
		}
		if err := util.EnsureDir(cfg.TempDir); err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}

		err = newPipeline(cfg, exec).Export(ctx, proj.Clips, pipeline.ExportOptions{
			Output: args[1],
			Preset: exportPreset,
			ProgressFunc: func(p *ffmpeg.Progress) {
				fmt.Printf("\rencoding %s (speed %s)   ", p.Time, p.Speed)
			},
		})
		fmt.Println()
		if err != nil {
			return err
		}
		log.Info().Str("output", args[1]).Int("clips", len(proj.Clips)).Msg("export complete")
		return nil
	},
}

var edlCmd = &cobra.Command{
	Use:   "edl [project]",
	Short: "Write a CMX3600 edit decision list for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := pipeline.LoadProject(args[0])
		if err != nil {
			return err
		}
		title := edlTitle
		if title == "" {
			title = proj.Name
		}
		edl := export.GenerateEDL(proj.Clips, title, edlFPS)

		if edlOutput == "" {
			fmt.Print(edl)
			return nil
		}
		if err := os.WriteFile(edlOutput, []byte(edl), 0644); err != nil {
			return fmt.Errorf("failed to write edl: %w", err)
		}
		log.Info().Str("output", edlOutput).Msg("edl written")
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [output.png]",
	Short: "Render the timeline of a project to a PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if !strings.EqualFold(filepath.Ext(args[0]), ".png") {
			return fmt.Errorf("snapshot output must be a .png file")
		}

		session, _, _, err := newSession(cfg, projectFile)
		if err != nil {
			return err
		}
		tl := session.Timeline
		tl.Resize(snapshotWidth, snapshotHeight)
		if snapshotZoom > 0 {
			tl.SetZoom(snapshotZoom)
		}

		raster := render.NewRasterExecutor(snapshotWidth, snapshotHeight)
		tl.Invalidate()
		tl.Frame(raster)

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if err := png.Encode(f, raster.Image); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		log.Info().Str("output", args[0]).Msg("snapshot written")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPreset, "preset", "", "x264 preset (default from config)")

	edlCmd.Flags().StringVar(&edlTitle, "title", "", "EDL title (default: project name)")
	edlCmd.Flags().Float64Var(&edlFPS, "fps", 0, "frame rate (default: first clip's rate)")
	edlCmd.Flags().StringVarP(&edlOutput, "output", "o", "", "write to file instead of stdout")

	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", defaultViewWidth, "image width")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", defaultViewHeight, "image height")
	snapshotCmd.Flags().Float64Var(&snapshotZoom, "zoom", 0, "pixels-per-second zoom (default from config)")
}
