package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/overlays"
)

var (
	rectPosition     string
	rectSize         string
	rectWidth        int
	rectHeight       int
	rectSourceWidth  int
	rectSourceHeight int
)

var pipCmd = &cobra.Command{
	Use:   "pip",
	Short: "Picture-in-picture geometry",
}

var pipRectCmd = &cobra.Command{
	Use:   "rect",
	Short: "Print the overlay rectangle for a container size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := overlayFlags(rectPosition, rectSize, false)
		if err != nil {
			return err
		}
		if rectWidth <= 0 || rectHeight <= 0 {
			return fmt.Errorf("container size must be positive, got %dx%d", rectWidth, rectHeight)
		}
		return printJSON(overlays.OverlayRect(cfg, rectWidth, rectHeight,
			overlays.Aspect(rectSourceWidth, rectSourceHeight)))
	},
}

var pipCheckCmd = &cobra.Command{
	Use:   "check [vectors.yaml]",
	Short: "Verify overlay geometry against recorded vectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vectors, err := overlays.LoadVectors(args[0])
		if err != nil {
			return err
		}
		mismatches := overlays.CheckVectors(vectors)
		for _, m := range mismatches {
			fmt.Printf("FAIL %s: want %+v, got %+v\n", m.Vector.Name, m.Vector.Want, m.Got)
		}
		if len(mismatches) > 0 {
			return fmt.Errorf("%d of %d vectors failed", len(mismatches), len(vectors))
		}
		fmt.Printf("ok: %d vectors\n", len(vectors))
		return nil
	},
}

func init() {
	def := overlays.DefaultConfig()
	pipRectCmd.Flags().StringVar(&rectPosition, "position", string(def.Position), "overlay corner")
	pipRectCmd.Flags().StringVar(&rectSize, "size", string(def.Size), "overlay size (small|medium|large)")
	pipRectCmd.Flags().IntVar(&rectWidth, "width", 1920, "container width")
	pipRectCmd.Flags().IntVar(&rectHeight, "height", 1080, "container height")
	pipRectCmd.Flags().IntVar(&rectSourceWidth, "source-width", 0, "overlay source width (0 uses 16:9)")
	pipRectCmd.Flags().IntVar(&rectSourceHeight, "source-height", 0, "overlay source height")

	pipCmd.AddCommand(pipRectCmd)
	pipCmd.AddCommand(pipCheckCmd)
}
