package cmd

import (
	"context"
	"fmt"
	"sync/atomic"

	"video-processing/application/pipeline"
	"video-processing/domain/video"

	"github.com/spf13/cobra"
)

var (
	trimSourcePath string
	trimStartTime  string
	trimEndTime    string
	trimSave       bool
	trimJSON       bool
)

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Trim a video to specified positions",
	Long: `Trim a video file to the specified start and end positions.

Positions are HH:MM:SS[.mmm] timestamps or plain milliseconds. Streams are
copied without re-encoding. The output is written to the working directory
as trim-<timestamp>-<id>.mp4.

Example:
  video-processing trim --source recording.mp4 --start "00:00:05" --end "00:00:20"
  video-processing trim --source recording.mp4 --start 5000 --end 20000 --save`,
	RunE: runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)
	trimCmd.Flags().StringVar(&trimSourcePath, "source", "", "Path or http(s) URL of the source video (required)")
	trimCmd.Flags().StringVar(&trimStartTime, "start", "", "Start position, HH:MM:SS[.mmm] or milliseconds (required)")
	trimCmd.Flags().StringVar(&trimEndTime, "end", "", "End position, HH:MM:SS[.mmm] or milliseconds (required)")
	trimCmd.Flags().BoolVar(&trimSave, "save", false, "Also publish the output to the configured library")
	trimCmd.Flags().BoolVar(&trimJSON, "json", false, "Print the result as JSON")
	trimCmd.MarkFlagRequired("source")
	trimCmd.MarkFlagRequired("start")
	trimCmd.MarkFlagRequired("end")
}

func runTrim(cmd *cobra.Command, args []string) error {
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

	return RunTrimWithDependencies(
		ctx,
		app.Coordinator,
		app.Bus,
		trimSourcePath,
		trimStartTime,
		trimEndTime,
		trimSave,
		trimJSON,
		cmd.OutOrStdout(),
	)
}

// Trimmer starts non-interactive trims
type Trimmer interface {
	Trim(ctx context.Context, source string, opts video.TrimOptions) (*pipeline.Handle, error)
}

// RunTrimWithDependencies runs the trim command with injected dependencies (for testing)
func RunTrimWithDependencies(
	ctx context.Context,
	trimmer Trimmer,
	src EventSource,
	sourcePath string,
	startTime string,
	endTime string,
	save bool,
	asJSON bool,
	output OutputWriter,
) error {
	start, err := video.ParsePosition(startTime)
	if err != nil {
		return video.NewError(video.KindInvalidInput, video.CodeInvalidTimeRange, fmt.Sprintf("invalid start time: %v", err), err)
	}
	end, err := video.ParsePosition(endTime)
	if err != nil {
		return video.NewError(video.KindInvalidInput, video.CodeInvalidTimeRange, fmt.Sprintf("invalid end time: %v", err), err)
	}

	out := &lockedWriter{out: output}
	var jobID atomic.Value
	jobID.Store("")
	stopWatching := watchProgress(src, out, func() string { return jobID.Load().(string) })

	if !asJSON {
		fmt.Fprintf(out, "Trimming video from %s to %s...\n",
			video.TimestampFromMilliseconds(start), video.TimestampFromMilliseconds(end))
	}

	h, err := trimmer.Trim(ctx, sourcePath, video.TrimOptions{
		StartTimeMs:   start,
		EndTimeMs:     end,
		SaveToLibrary: save,
	})
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
		return writeJSON(out, result.Trim)
	}

	if result.Cancelled() {
		fmt.Fprintf(out, "Trim cancelled.\n")
		return nil
	}

	fmt.Fprintf(out, "Successfully created: %s\n", result.Trim.OutputPath)
	fmt.Fprintf(out, "  Duration: %s\n", video.TimestampFromMilliseconds(result.Trim.Duration))
	if result.Trim.LibraryLocation != "" {
		fmt.Fprintf(out, "  Saved to library: %s\n", result.Trim.LibraryLocation)
	}
	return nil
}
