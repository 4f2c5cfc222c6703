package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>...",
	Short: "Check whether files can be used as sources",
	Long: `Check that each path exists, is readable and has a supported video
extension. http(s) URLs are checked by extension only.

Example:
  video-processing validate recording.mp4 clip.mov`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := newAppFromFlags(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	return RunValidateWithDependencies(app.Coordinator, args, cmd.OutOrStdout())
}

// FileValidator reports whether a path is a usable source
type FileValidator interface {
	IsValidFile(path string) bool
}

// RunValidateWithDependencies runs the validate command with injected dependencies (for testing)
func RunValidateWithDependencies(v FileValidator, paths []string, out OutputWriter) error {
	invalid := 0
	for _, p := range paths {
		if v.IsValidFile(p) {
			fmt.Fprintf(out, "valid:   %s\n", p)
			continue
		}
		invalid++
		fmt.Fprintf(out, "invalid: %s\n", p)
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d files are not valid sources", invalid, len(paths))
	}
	return nil
}
