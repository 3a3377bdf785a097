package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/keagan/clipforge/internal/config"
	"github.com/keagan/clipforge/internal/logging"
)

var (
	cfgFile     string
	verbose     bool
	logFormat   string
	projectFile string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipforge",
	Short: "clipforge - timeline video editor",
	Long:  "A timeline editor for screen and camera recordings: trim, arrange, preview, composite picture-in-picture and export.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		logging.Init(verbose, format)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./clipforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console|json)")

	for _, cmd := range []*cobra.Command{editorCmd, shellCmd, serveCmd, snapshotCmd} {
		cmd.Flags().StringVarP(&projectFile, "project", "p", "", "project file to open")
	}

	rootCmd.AddCommand(editorCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(pipCmd)
	rootCmd.AddCommand(compositeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(edlCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(snapshotCmd)
}
