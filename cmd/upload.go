package cmd

import (
	"context"
	"fmt"
	"io"

	"video-processing/application/distribution"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Publish a working directory file to the library",
	Long: `Upload a file to the configured library (Google Drive or S3).

Without a path the most recent file in the working directory is uploaded.

Example:
  video-processing upload
  video-processing upload /tmp/video-processing/trim-20250101-101500-1a2b3c4d.mp4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newAppFromFlags(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	publisher := distribution.NewPublishService(app.Library, app.Store, cmd.OutOrStdout())
	return RunUploadWithDependencies(ctx, publisher, path, cmd.OutOrStdout())
}

// Publisher uploads working directory files to the library
type Publisher interface {
	Publish(ctx context.Context, path string) (*distribution.PublishResult, error)
	PublishLatest(ctx context.Context) (*distribution.PublishResult, error)
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(ctx context.Context, publisher Publisher, path string, output io.Writer) error {
	var (
		result *distribution.PublishResult
		err    error
	)
	if path == "" {
		result, err = publisher.PublishLatest(ctx)
	} else {
		result, err = publisher.Publish(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(output, "Upload complete!\n")
	fmt.Fprintf(output, "  Size: %s\n", humanize.IBytes(uint64(result.Size)))
	fmt.Fprintf(output, "  Location: %s\n", result.Location)
	return nil
}
