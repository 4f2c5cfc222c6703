package cmd

import (
	"context"
	"fmt"
	"sync/atomic"

	"video-processing/application/pipeline"
	"video-processing/domain/video"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	compressInput         string
	compressPreset        string
	compressWidth         int
	compressHeight        int
	compressBitrate       string
	compressCRF           int
	compressAudioBitrate  string
	compressFPS           float64
	compressEncoderPreset string
	compressJSON          bool
)

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Re-encode a video with lower size settings",
	Long: `Re-encode a video to H.264/AAC with the given settings.

Unset values come from --preset when given, then from the compress section of
the configuration. A resolution with only a width or a height keeps the
source aspect ratio. The output is written to the working directory as
compress-<timestamp>-<id>.mp4.

Example:
  video-processing compress --input recording.mp4 --height 720 --crf 26
  video-processing compress --input recording.mp4 --preset SOCIAL_MEDIA
  video-processing compress --input recording.mp4 --bitrate 2M --fps 30`,
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)
	compressCmd.Flags().StringVar(&compressInput, "input", "", "Path or http(s) URL of the source video (required)")
	compressCmd.Flags().StringVar(&compressPreset, "preset", "", "Named preset (see 'presets')")
	compressCmd.Flags().IntVar(&compressWidth, "width", 0, "Target width in pixels")
	compressCmd.Flags().IntVar(&compressHeight, "height", 0, "Target height in pixels")
	compressCmd.Flags().StringVar(&compressBitrate, "bitrate", "", "Target video bitrate, e.g. 2M or 800k")
	compressCmd.Flags().IntVar(&compressCRF, "crf", 0, "Constant rate factor 0-51 (overrides --bitrate)")
	compressCmd.Flags().StringVar(&compressAudioBitrate, "audio-bitrate", "", "Audio bitrate, e.g. 128k")
	compressCmd.Flags().Float64Var(&compressFPS, "fps", 0, "Output frame rate")
	compressCmd.Flags().StringVar(&compressEncoderPreset, "encoder-preset", "", "x264 speed preset, e.g. fast or slow")
	compressCmd.Flags().BoolVar(&compressJSON, "json", false, "Print the result as JSON")
	compressCmd.MarkFlagRequired("input")
}

func runCompress(cmd *cobra.Command, args []string) error {
	opts := video.CompressOptions{
		InputPath:     compressInput,
		Bitrate:       compressBitrate,
		AudioBitrate:  compressAudioBitrate,
		EncoderPreset: compressEncoderPreset,
	}
	flags := cmd.Flags()
	if flags.Changed("width") || flags.Changed("height") {
		opts.Resolution = &video.Resolution{Width: compressWidth, Height: compressHeight}
	}
	if flags.Changed("crf") {
		crf := compressCRF
		opts.CRF = &crf
	}
	if flags.Changed("fps") {
		fps := compressFPS
		opts.FPS = &fps
	}

	ctx, stop := interruptContext(cmd.Context())
	defer stop()

	app, err := newAppFromFlags(ctx)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	if err := app.VerifyInstalled(ctx); err != nil {
		return err
	}

	return RunCompressWithDependencies(ctx, app.Coordinator, app.Bus, opts, compressPreset, compressJSON, cmd.OutOrStdout())
}

// Compressor starts compress jobs
type Compressor interface {
	Compress(ctx context.Context, opts video.CompressOptions) (*pipeline.Handle, error)
}

// RunCompressWithDependencies runs the compress command with injected dependencies (for testing)
func RunCompressWithDependencies(
	ctx context.Context,
	compressor Compressor,
	src EventSource,
	opts video.CompressOptions,
	preset string,
	asJSON bool,
	output OutputWriter,
) error {
	if preset != "" {
		merged, err := video.ApplyPreset(preset, opts)
		if err != nil {
			return video.InvalidOptions("%v", err)
		}
		opts = merged
	}

	out := &lockedWriter{out: output}
	var jobID atomic.Value
	jobID.Store("")
	stopWatching := watchProgress(src, out, func() string { return jobID.Load().(string) })

	if !asJSON {
		fmt.Fprintf(out, "Compressing %s...\n", opts.InputPath)
	}

	h, err := compressor.Compress(ctx, opts)
	if err != nil {
		stopWatching()
		return err
	}
	jobID.Store(h.ID())

	result, err := awaitJob(ctx, h)
	stopWatching()
	if err != nil {
		return err
	}

	if asJSON {
		if result.Cancelled() {
			return writeJSON(out, map[string]any{"jobId": result.JobID, "cancelled": true})
		}
		r := result.Compress
		return writeJSON(out, map[string]any{
			"outputPath":       r.OutputPath,
			"originalSize":     r.OriginalSize,
			"compressedSize":   r.CompressedSize,
			"compressionRatio": r.RatioPercent(),
			"duration":         r.Duration,
		})
	}

	if result.Cancelled() {
		fmt.Fprintf(out, "Compression cancelled.\n")
		return nil
	}

	r := result.Compress
	fmt.Fprintf(out, "Successfully created: %s\n", r.OutputPath)
	fmt.Fprintf(out, "  Original size:   %s\n", humanize.IBytes(uint64(r.OriginalSize)))
	fmt.Fprintf(out, "  Compressed size: %s\n", humanize.IBytes(uint64(r.CompressedSize)))
	fmt.Fprintf(out, "  Saved:           %.2f%%\n", r.RatioPercent())
	fmt.Fprintf(out, "  Duration:        %s\n", video.TimestampFromMilliseconds(r.Duration))
	return nil
}
