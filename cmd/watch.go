package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alde/tinypdf/internal/watch"
)

var watchDebounce = watch.DefaultDebounce

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Compress PDF files as they appear in a directory",
	Long: `Watch a directory and compress every PDF written into it once the file
has stopped changing. Results are written to <name>_compressed.pdf, or into
--output-dir when given. Stop with Ctrl+C.

Examples:
  tinypdf watch ~/Scans
  tinypdf watch inbox --output-dir outbox --preset high`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watchDebounce, "Time a file must stay unchanged before compression")
	addCompressionFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	files, engine, err := newFileCompressor(1)
	if err != nil {
		return err
	}
	defer engine.Close()

	w := &watch.Watcher{
		Dir:      dir,
		Debounce: watchDebounce,
		Logger:   log,
		Handle: func(ctx context.Context, path string) error {
			result, err := files.CompressFile(ctx, path, "", nil)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s (%s)\n", filepath.Base(path), result.OutputPath, result.SavingsText())
			return nil
		},
	}

	fmt.Printf("Watching %s with %s\n", dir, files.Settings)
	return w.Run(cmd.Context())
}
