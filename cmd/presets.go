package cmd

import (
	"fmt"
	"text/tabwriter"

	"video-processing/domain/video"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in compression presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunPresetsWithDependencies(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

// RunPresetsWithDependencies prints the preset table
func RunPresetsWithDependencies(out OutputWriter) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRESOLUTION\tBITRATE\tCRF\tAUDIO\tFPS")
	for _, name := range video.PresetNames() {
		p := video.Presets[name]
		fps := "source"
		if p.FPS > 0 {
			fps = fmt.Sprintf("%g", p.FPS)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", name, formatResolution(p.Resolution), p.Bitrate, p.CRF, p.AudioBitrate, fps)
	}
	return w.Flush()
}

func formatResolution(r *video.Resolution) string {
	switch {
	case r == nil:
		return "source"
	case r.Width > 0 && r.Height > 0:
		return fmt.Sprintf("%dx%d", r.Width, r.Height)
	case r.Height > 0:
		return fmt.Sprintf("%dp", r.Height)
	default:
		return fmt.Sprintf("%dw", r.Width)
	}
}
