package cmd

import (
	"context"
	"fmt"
	"os"

	"video-processing/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	cfgErr  error
)

var rootCmd = &cobra.Command{
	Use:   "video-processing",
	Short: "Trim and compress videos with ffmpeg",
	Long: `video-processing trims and compresses video files in a managed working
directory:

  - Trim a video by start/end position (stream copy, no re-encode)
  - Compress a video by resolution, bitrate/CRF, frame rate or preset
  - Pick a range interactively in the editor
  - Publish outputs to Google Drive or S3-compatible storage
  - Relay job events to Redis

Example:
  video-processing trim --source recording.mp4 --start 00:00:05 --end 00:00:20
  video-processing compress --input recording.mp4 --preset MEDIUM_QUALITY`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultPath+")")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	// A missing file falls back to defaults so the tool works without setup
	cfg, cfgErr = config.LoadOrDefault(cfgFile)
}

// GetConfig returns the loaded configuration, nil if it failed to load
func GetConfig() *config.Config {
	return cfg
}

func loadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfgFile, cfgErr)
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}
