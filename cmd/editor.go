package cmd

import (
	"context"
	"errors"
	"fmt"

	"video-processing/application/pipeline"
	"video-processing/domain/video"

	"github.com/spf13/cobra"
)

var (
	editorSource      string
	editorSave        bool
	editorMaxDuration int
)

var editorCmd = &cobra.Command{
	Use:   "editor",
	Short: "Pick a trim range interactively",
	Long: `Open the trim editor on a video and choose the range to keep.

The editor prompts for the start and end positions, shows the selection and
asks for confirmation. Declining cancels the editor. An invalid range can be
corrected without reopening the editor.

Example:
  video-processing editor --source recording.mp4
  video-processing editor --source recording.mp4 --max-duration 60 --save`,
	RunE: runEditor,
}

func init() {
	rootCmd.AddCommand(editorCmd)
	editorCmd.Flags().StringVar(&editorSource, "source", "", "Path or http(s) URL of the source video (required)")
	editorCmd.Flags().BoolVar(&editorSave, "save", false, "Also publish the output to the configured library")
	editorCmd.Flags().IntVar(&editorMaxDuration, "max-duration", 0, "Longest selectable range in seconds (0 for unlimited)")
	editorCmd.MarkFlagRequired("source")
}

func runEditor(cmd *cobra.Command, args []string) error {
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

	opts := pipeline.EditorOptions{
		Display:       video.DisplayOptions{MaxDuration: editorMaxDuration},
		SaveToLibrary: editorSave,
	}
	return RunEditorWithDependencies(ctx, app.Coordinator, app.Bus, DefaultPrompter, editorSource, opts, cmd.OutOrStdout())
}

// EditorOpener opens interactive editor sessions
type EditorOpener interface {
	OpenEditor(source string, opts pipeline.EditorOptions) (*pipeline.EditorSession, error)
}

// maxRangeAttempts bounds how often an invalid range is re-prompted
const maxRangeAttempts = 3

// RunEditorWithDependencies runs the editor command with injected dependencies (for testing)
func RunEditorWithDependencies(
	ctx context.Context,
	opener EditorOpener,
	src EventSource,
	prompter Prompter,
	sourcePath string,
	opts pipeline.EditorOptions,
	output OutputWriter,
) error {
	session, err := opener.OpenEditor(sourcePath, opts)
	if err != nil {
		return err
	}
	defer session.Close()

	out := &lockedWriter{out: output}
	fmt.Fprintf(out, "Editing %s\n", sourcePath)

	for attempt := 1; ; attempt++ {
		start, end, err := promptRange(prompter, opts.Display)
		if retryRange(err, attempt) {
			fmt.Fprintf(out, "%s\n", video.AsError(err).Message)
			continue
		}
		if err != nil {
			return cancelEditor(session, out, err)
		}

		ok, err := prompter.Confirm(fmt.Sprintf("Trim %s to %s?",
			video.TimestampFromMilliseconds(start), video.TimestampFromMilliseconds(end)), true)
		if err != nil || !ok {
			return cancelEditor(session, out, err)
		}

		h, err := session.Trim(ctx, start, end)
		if err != nil {
			return err
		}

		stopWatching := watchProgress(src, out, h.ID)
		result, err := awaitJob(ctx, h)
		stopWatching()

		if retryRange(err, attempt) {
			fmt.Fprintf(out, "%s\n", video.AsError(err).Message)
			continue
		}
		if err != nil {
			return err
		}

		if result.Cancelled() {
			fmt.Fprintf(out, "Trim cancelled.\n")
			return nil
		}
		fmt.Fprintf(out, "Successfully created: %s\n", result.Trim.OutputPath)
		if result.Trim.LibraryLocation != "" {
			fmt.Fprintf(out, "  Saved to library: %s\n", result.Trim.LibraryLocation)
		}
		return nil
	}
}

// retryRange reports whether err is a bad range the user may enter again
func retryRange(err error, attempt int) bool {
	var verr *video.Error
	return errors.As(err, &verr) && verr.Code == video.CodeInvalidTimeRange && attempt < maxRangeAttempts
}

// promptRange asks for a selection. Unparseable positions and selections
// over the display limit are INVALID_TIME_RANGE errors.
func promptRange(prompter Prompter, display video.DisplayOptions) (int64, int64, error) {
	startInput, err := prompter.Input("Start position (HH:MM:SS[.mmm] or ms)?", "00:00:00")
	if err != nil {
		return 0, 0, err
	}
	start, err := video.ParsePosition(startInput)
	if err != nil {
		return 0, 0, invalidRange(err)
	}

	endInput, err := prompter.Input("End position (HH:MM:SS[.mmm] or ms)?", "")
	if err != nil {
		return 0, 0, err
	}
	end, err := video.ParsePosition(endInput)
	if err != nil {
		return 0, 0, invalidRange(err)
	}

	if display.MaxDuration > 0 && end-start > int64(display.MaxDuration)*1000 {
		return 0, 0, video.NewError(video.KindInvalidInput, video.CodeInvalidTimeRange,
			fmt.Sprintf("selection is longer than %d seconds", display.MaxDuration), nil)
	}
	return start, end, nil
}

func invalidRange(err error) error {
	return video.NewError(video.KindInvalidInput, video.CodeInvalidTimeRange, err.Error(), err)
}

// cancelEditor dismisses the editor. A prompt failure is returned after the
// editor has been cancelled.
func cancelEditor(session *pipeline.EditorSession, out OutputWriter, cause error) error {
	if err := session.Cancel(); err != nil && !errors.Is(err, pipeline.ErrNoEditorOpen) {
		return err
	}
	if cause != nil {
		return cause
	}
	fmt.Fprintf(out, "Editor cancelled.\n")
	return nil
}
