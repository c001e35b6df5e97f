package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alde/tinypdf/internal/batch"
	"github.com/alde/tinypdf/pkg/codec"
	"github.com/alde/tinypdf/pkg/compressor"
	"github.com/alde/tinypdf/pkg/pdfium"
	"github.com/alde/tinypdf/pkg/progress"
)

var compressOutput string

var compressCmd = &cobra.Command{
	Use:   "compress [input files...]",
	Short: "Compress PDF files by rasterizing their pages",
	Long: `Compress PDF files by rendering every page to a JPEG image and building
a new document from the images. Text becomes part of the image, so the
output is no longer searchable.

Each input is written to <name>_compressed.pdf unless -o or --output-dir
is given.

Examples:
  tinypdf compress report.pdf
  tinypdf compress report.pdf -o small.pdf --preset maximum
  tinypdf compress scans/*.pdf --dpi 100 --quality 0.6 --workers 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)

	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "Output file path (single input only)")
	addCompressionFlags(compressCmd)
}

// workerCount resolves the configured number of concurrent files
func workerCount(inputs int) int {
	n := cfg.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > inputs {
		n = inputs
	}
	return max(n, 1)
}

// newFileCompressor wires the PDFium engine, the JPEG codec and the
// configured settings together
func newFileCompressor(workers int) (*batch.FileCompressor, *pdfium.Engine, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, nil, err
	}

	engineCfg := pdfium.DefaultConfig()
	// every run holds a source and an output document
	engineCfg.MaxTotal = max(engineCfg.MaxTotal, 2*workers)

	engine, err := pdfium.NewEngine(engineCfg)
	if err != nil {
		return nil, nil, err
	}

	comp := compressor.New(engine.Reader(), codec.NewJPEG(cfg.Grayscale), engine.Writer(), compressor.Options{
		YieldEvery: cfg.YieldEvery,
		MaxPixels:  int64(cfg.MaxPixels),
		Logger:     log,
	})

	return &batch.FileCompressor{
		Compressor:   comp,
		Settings:     s,
		Password:     cfg.Password,
		MaxInputSize: cfg.MaxInputSize,
		Optimize:     cfg.Optimize,
		OutputDir:    cfg.OutputDir,
		Logger:       log,
	}, engine, nil
}

func runCompress(cmd *cobra.Command, args []string) error {
	inputs := batch.UniquePaths(args)
	if compressOutput != "" && len(inputs) > 1 {
		return fmt.Errorf("--output can only be used with a single input file")
	}

	workers := workerCount(len(inputs))
	files, engine, err := newFileCompressor(workers)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("Compressing with %s\n", files.Settings)

	if len(inputs) == 1 {
		bar := progress.NewBar(os.Stdout, "Processing pages")
		result, err := files.CompressFile(cmd.Context(), inputs[0], compressOutput, bar.Update)
		if err != nil {
			bar.Finish("FAILED")
			return err
		}
		bar.Finish("DONE")
		displayResult(result)
		return nil
	}

	tracker := progress.NewTracker(os.Stdout, len(inputs))
	outcomes := files.Run(cmd.Context(), workers, tracker, inputs)

	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		tracker.AddSaved(int64(o.Result.OriginalSize - o.Result.CompressedSize))
	}
	tracker.Finish()

	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", o.InputPath, o.Err)
			continue
		}
		fmt.Printf("  %s -> %s (%s)\n", o.InputPath, o.Result.OutputPath, o.Result.SavingsText())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

func displayResult(r *batch.FileResult) {
	fmt.Printf("\nCompression completed successfully\n")
	fmt.Printf("================================================================\n")
	fmt.Print(r.Summary(r.InputPath, r.OutputPath))
	fmt.Printf("================================================================\n")

	if verbose {
		for _, p := range r.Pages {
			fmt.Printf("  page %3d: %.0fx%.0f pt -> %dx%d px, %d bytes\n",
				p.Number, p.SourceSize.Width, p.SourceSize.Height, p.PixelWidth, p.PixelHeight, p.ImageBytes)
		}
	}
}
