package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alde/tinypdf/internal/batch"
	"github.com/alde/tinypdf/pkg/codec"
	"github.com/alde/tinypdf/pkg/pagerange"
	"github.com/alde/tinypdf/pkg/pdfium"
	"github.com/alde/tinypdf/pkg/progress"
	"github.com/alde/tinypdf/pkg/settings"
)

var (
	rasterOutputDir string
	rasterPages     string
	rasterFormat    string
	rasterDPI       int
	rasterQuality   float64
	rasterMaxWidth  int
)

var rasterizeCmd = &cobra.Command{
	Use:   "rasterize [pdf file]",
	Short: "Export PDF pages as images",
	Long: `Render PDF pages to image files, one file per page.

Examples:
  tinypdf rasterize book.pdf -o pages/
  tinypdf rasterize book.pdf -o pages/ --pages "1-3,10" --format png --dpi 200
  tinypdf rasterize book.pdf -o thumbs/ --format webp --max-width 400`,
	Args: cobra.ExactArgs(1),
	RunE: runRasterize,
}

func init() {
	rootCmd.AddCommand(rasterizeCmd)

	rasterizeCmd.Flags().StringVarP(&rasterOutputDir, "output", "o", "", "Output directory (required)")
	rasterizeCmd.Flags().StringVar(&rasterPages, "pages", "", "Page ranges to export (e.g., \"1-2,5,10-\"), default all")
	rasterizeCmd.Flags().StringVar(&rasterFormat, "format", string(codec.FormatJPEG), "Image format (jpeg, png, webp)")
	rasterizeCmd.Flags().IntVar(&rasterDPI, "dpi", 150, "Render resolution in DPI")
	rasterizeCmd.Flags().Float64Var(&rasterQuality, "quality", 0.85, "Image quality (0-1], ignored for png")
	rasterizeCmd.Flags().IntVar(&rasterMaxWidth, "max-width", 0, "Downscale images wider than this many pixels (0 = off)")

	rasterizeCmd.MarkFlagRequired("output")
}

func runRasterize(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	format, err := codec.ParseFormat(rasterFormat)
	if err != nil {
		return err
	}

	s, err := settings.Resolve(settings.CustomChoice{Resolution: rasterDPI, Quality: rasterQuality})
	if err != nil {
		return err
	}

	selection, err := pagerange.Parse(rasterPages)
	if err != nil {
		return fmt.Errorf("invalid page ranges: %w", err)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read PDF file: %w", err)
	}
	if int64(len(data)) > cfg.MaxInputSize {
		return fmt.Errorf("%s exceeds the input size limit of %s", inputPath, humanize.IBytes(uint64(cfg.MaxInputSize)))
	}

	engine, err := pdfium.NewEngine(pdfium.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, err := engine.Reader().Load(cmd.Context(), data, cfg.Password)
	if err != nil {
		return err
	}
	defer doc.Close()

	total, err := doc.PageCount()
	if err != nil {
		return err
	}
	if err := selection.Validate(total); err != nil {
		return fmt.Errorf("invalid page range: %w", err)
	}

	if err := os.MkdirAll(rasterOutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	pages := selection.Pages(total)
	bar := progress.NewBar(os.Stdout, "Rendering pages")

	var written uint64
	for i, page := range pages {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		bar.Update(i+1, len(pages))

		raster, err := doc.RenderPage(page-1, s.Resolution)
		if err != nil {
			bar.Finish("FAILED")
			return err
		}

		img := raster.Image
		if rasterMaxWidth > 0 && img.Bounds().Dx() > rasterMaxWidth {
			img = imaging.Resize(img, rasterMaxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		err = codec.Encode(&buf, img, format, s.Quality)
		raster.Release()
		if err != nil {
			bar.Finish("FAILED")
			return fmt.Errorf("failed to encode page %d: %w", page, err)
		}

		name := fmt.Sprintf("%s-page-%03d%s", base, page, format.Extension())
		if err := batch.WriteFileAtomic(filepath.Join(rasterOutputDir, name), buf.Bytes()); err != nil {
			bar.Finish("FAILED")
			return err
		}
		written += uint64(buf.Len())

		log.Debug().Int("page", page).Str("file", name).Int("bytes", buf.Len()).Msg("page exported")
	}
	bar.Finish("DONE")

	fmt.Printf("Exported %d pages to %s (%s)\n", len(pages), rasterOutputDir, humanize.Bytes(written))
	return nil
}
