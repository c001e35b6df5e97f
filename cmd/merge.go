package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alde/tinypdf/internal/batch"
	"github.com/alde/tinypdf/pkg/merge"
)

var (
	mergeOutput   string
	mergeDivider  bool
	mergeOptimize bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge [input files...]",
	Short: "Merge PDF files into one document",
	Long: `Merge two or more PDF files into one document, in the order given.
Pages are copied as they are, nothing is re-encoded.

Examples:
  tinypdf merge cover.pdf body.pdf appendix.pdf -o book.pdf
  tinypdf merge a.pdf b.pdf -o both.pdf --divider`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file path (required)")
	mergeCmd.Flags().BoolVar(&mergeDivider, "divider", false, "Insert a blank page between documents")
	mergeCmd.Flags().BoolVar(&mergeOptimize, "optimize", false, "Run a lossless structural optimization on the output")
	mergeCmd.Flags().StringVar(&cfg.Password, "password", cfg.Password, "Password for encrypted inputs")

	mergeCmd.MarkFlagRequired("output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	if ext := strings.ToLower(filepath.Ext(mergeOutput)); ext != ".pdf" {
		return fmt.Errorf("unsupported output format: %s (only .pdf is supported)", ext)
	}

	inputs := make([]merge.Input, 0, len(args))
	for _, path := range args {
		if err := validateMergeInput(path, cfg.MaxInputSize); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs = append(inputs, merge.Input{Name: filepath.Base(path), Data: data})
	}

	merger := merge.New(log)
	merger.DividerPage = mergeDivider
	merger.Password = cfg.Password

	result, err := merger.Merge(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	output := result.Output
	if mergeOptimize {
		if output, err = merge.Optimize(output); err != nil {
			return err
		}
	}

	if err := batch.WriteFileAtomic(mergeOutput, output); err != nil {
		return err
	}

	fmt.Printf("Merged %d documents into %s\n", len(result.Inputs), mergeOutput)
	for _, in := range result.Inputs {
		fmt.Printf("  %-30s %4d pages  %s\n", in.Name, in.PageCount, humanize.Bytes(uint64(in.Size)))
	}
	fmt.Printf("Total:         %d pages (%s)\n", result.PageCount, humanize.Bytes(uint64(len(output))))

	return nil
}

// validateMergeInput accepts existing .pdf files within the size limit
func validateMergeInput(path string, limit int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file does not exist: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("input is a directory: %s", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return fmt.Errorf("unsupported input format: %s (only .pdf is supported)", path)
	}
	if info.Size() > limit {
		return fmt.Errorf("%s exceeds the input size limit of %s", path, humanize.IBytes(uint64(limit)))
	}
	return nil
}
