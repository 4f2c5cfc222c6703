package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"video-processing/application/distribution"
	"video-processing/domain/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage files in the working directory",
	Long: `List, delete or clean the outputs in the working directory.

Examples:
  video-processing files list
  video-processing files delete trim-20250101-101500-1a2b3c4d.mp4
  video-processing files clean
  video-processing files prune --max-size 2GB`,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List working directory files, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())
		return RunFilesListWithDependencies(app.Coordinator, cmd.OutOrStdout())
	},
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete one file from the working directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())
		return RunFilesDeleteWithDependencies(app.Coordinator, args[0], cmd.OutOrStdout())
	},
}

var filesCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every file in the working directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())
		return RunFilesCleanWithDependencies(app.Coordinator, cmd.OutOrStdout())
	},
}

var filesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete the oldest outputs until the working directory fits a size limit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppFromFlags(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())
		maxSize, _ := cmd.Flags().GetString("max-size")
		return RunFilesPruneWithDependencies(distribution.NewRetentionService(app.Store), maxSize, cmd.OutOrStdout())
	},
}

func init() {
	filesPruneCmd.Flags().String("max-size", "5GB", "Size limit for the working directory (e.g. 500MB, 2GiB)")

	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesPruneCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesDeleteCmd)
	filesCmd.AddCommand(filesCleanCmd)
}

// FileManager is the working directory surface of the coordinator
type FileManager interface {
	Files() ([]storage.Entry, error)
	CleanFiles() (int, error)
	DeleteFile(path string) error
}

// RunFilesListWithDependencies runs the list command with injected dependencies (for testing)
func RunFilesListWithDependencies(files FileManager, out OutputWriter) error {
	entries, err := files.Files()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No files in working directory.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tORIGIN\tSIZE\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			filepath.Base(e.Path), e.Origin, humanize.IBytes(uint64(e.Size)), e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// RunFilesDeleteWithDependencies runs the delete command with injected dependencies (for testing)
func RunFilesDeleteWithDependencies(files FileManager, path string, out OutputWriter) error {
	if err := files.DeleteFile(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", path)
	return nil
}

// RunFilesCleanWithDependencies runs the clean command with injected dependencies (for testing)
func RunFilesCleanWithDependencies(files FileManager, out OutputWriter) error {
	removed, err := files.CleanFiles()
	fmt.Fprintf(out, "Removed %d files\n", removed)
	if err != nil {
		return fmt.Errorf("some files could not be removed: %w", err)
	}
	return nil
}

// Pruner enforces a working directory size limit
type Pruner interface {
	EnforceLimit(maxBytes int64) (*distribution.CleanupResult, error)
}

// RunFilesPruneWithDependencies runs the prune command with injected dependencies (for testing)
func RunFilesPruneWithDependencies(pruner Pruner, maxSize string, out OutputWriter) error {
	limit, err := humanize.ParseBytes(maxSize)
	if err != nil {
		return fmt.Errorf("invalid --max-size %q: %w", maxSize, err)
	}

	result, err := pruner.EnforceLimit(int64(limit))
	if result != nil {
		for _, f := range result.DeletedFiles {
			fmt.Fprintf(out, "Deleted %s (%s)\n", filepath.Base(f.Name), humanize.IBytes(uint64(f.Size)))
		}
		fmt.Fprintf(out, "Pruned %d files, freed %s, %s remaining\n",
			len(result.DeletedFiles), humanize.IBytes(uint64(result.FreedBytes)), humanize.IBytes(uint64(result.RemainingBytes)))
	}
	return err
}
