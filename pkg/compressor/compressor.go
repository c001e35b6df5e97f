// Package compressor shrinks PDF documents by rasterizing every page to a
// JPEG image and assembling the images into a new document.
package compressor

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/alde/tinypdf/pkg/settings"
)

// ContentType of every produced document
const ContentType = "application/pdf"

// DefaultYieldEvery is the number of pages between cooperative yields
const DefaultYieldEvery = 5

// Options contains run-independent compressor settings
type Options struct {
	// YieldEvery pages the loop yields to the Go scheduler. Zero means
	// DefaultYieldEvery, a negative value disables yielding.
	YieldEvery int
	// MaxPixels caps the raster size of a single page. Zero means no limit.
	MaxPixels int64
	Logger    zerolog.Logger
}

// ProgressFunc is called with the 1-based page about to be processed
type ProgressFunc func(current, total int)

// RunRequest is the input of one compression run
type RunRequest struct {
	Source   []byte
	Settings settings.Settings
	// Password is tried when the source is encrypted
	Password string
}

// PageReport describes how one page was converted
type PageReport struct {
	Number      int
	SourceSize  Size
	PixelWidth  int
	PixelHeight int
	OutputSize  Size
	ImageBytes  int
}

// RunResult is the outcome of a successful run
type RunResult struct {
	Output         []byte
	PageCount      int
	OriginalSize   int
	CompressedSize int
	Settings       settings.Settings
	Pages          []PageReport
	Duration       time.Duration
}

// Compressor drives the rasterize, encode and assemble steps for each page
type Compressor struct {
	reader  DocumentReader
	codec   RasterCodec
	writer  DocumentWriter
	options Options
}

// New creates a compressor from its three collaborators
func New(reader DocumentReader, codec RasterCodec, writer DocumentWriter, opts Options) *Compressor {
	if opts.YieldEvery == 0 {
		opts.YieldEvery = DefaultYieldEvery
	}
	return &Compressor{
		reader:  reader,
		codec:   codec,
		writer:  writer,
		options: opts,
	}
}

// Compress runs the whole pipeline. Pages are processed strictly in order and
// onProgress (which may be nil) is invoked before each page is rasterized.
// Any failure aborts the run and no output is returned.
func (c *Compressor) Compress(ctx context.Context, req RunRequest, onProgress ProgressFunc) (*RunResult, error) {
	startTime := time.Now()
	log := c.options.Logger

	if err := ValidateHeader(req.Source); err != nil {
		return nil, stageError(StageLoad, 0, ErrCorruptDocument, err)
	}
	source := RepairTrailer(req.Source)

	doc, err := c.reader.Load(ctx, source, req.Password)
	if err != nil {
		return nil, stageError(StageLoad, 0, ErrCorruptDocument, err)
	}
	defer doc.Close()

	pageCount, err := doc.PageCount()
	if err != nil {
		return nil, stageError(StageLoad, 0, ErrCorruptDocument, err)
	}
	if pageCount == 0 {
		return nil, stageError(StageLoad, 0, ErrEmptyDocument, nil)
	}

	log.Debug().
		Int("pages", pageCount).
		Int("dpi", req.Settings.Resolution).
		Float64("quality", req.Settings.Quality).
		Msg("starting compression")

	builder, err := c.writer.Create(ctx)
	if err != nil {
		return nil, stageError(StageAssemble, 0, ErrAssembly, err)
	}
	defer builder.Close()

	reports := make([]PageReport, 0, pageCount)

	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, stageError(StageCancel, page, ErrCancelled, err)
		}

		if onProgress != nil {
			onProgress(page, pageCount)
		}

		report, data, err := c.processPage(doc, page, req.Settings)
		if err != nil {
			return nil, err
		}

		ref, err := builder.AddPage(report.OutputSize.Width, report.OutputSize.Height)
		if err != nil {
			return nil, stageError(StageAssemble, page, ErrAssembly, err)
		}
		err = builder.PlaceImage(ref, data, 0, 0, report.OutputSize.Width, report.OutputSize.Height)
		if err != nil {
			return nil, stageError(StageAssemble, page, ErrAssembly, err)
		}

		reports = append(reports, report)

		log.Debug().
			Int("page", page).
			Int("width_px", report.PixelWidth).
			Int("height_px", report.PixelHeight).
			Int("image_bytes", report.ImageBytes).
			Msg("page compressed")

		if c.options.YieldEvery > 0 && page%c.options.YieldEvery == 0 {
			runtime.Gosched()
		}
	}

	output, err := builder.Finalize()
	if err != nil {
		return nil, stageError(StageFinalize, 0, ErrAssembly, err)
	}

	result := &RunResult{
		Output:         output,
		PageCount:      pageCount,
		OriginalSize:   len(req.Source),
		CompressedSize: len(output),
		Settings:       req.Settings,
		Pages:          reports,
		Duration:       time.Since(startTime),
	}

	log.Debug().
		Int("original_size", result.OriginalSize).
		Int("compressed_size", result.CompressedSize).
		Dur("duration", result.Duration).
		Msg("compression finished")

	return result, nil
}

// processPage rasterizes and encodes one page. The raster is released before returning.
func (c *Compressor) processPage(doc Document, page int, s settings.Settings) (PageReport, []byte, error) {
	index := page - 1
	scale := s.Scale()

	size, err := doc.PageSize(index)
	if err != nil {
		return PageReport{}, nil, stageError(StageRender, page, ErrRenderFailure, err)
	}

	if c.options.MaxPixels > 0 {
		pixels := int64(math.Ceil(size.Width*scale)) * int64(math.Ceil(size.Height*scale))
		if pixels > c.options.MaxPixels {
			return PageReport{}, nil, stageError(StageRender, page, ErrOutOfMemory,
				fmt.Errorf("raster of %d pixels exceeds limit of %d", pixels, c.options.MaxPixels))
		}
	}

	raster, err := doc.RenderPage(index, s.Resolution)
	if err != nil {
		return PageReport{}, nil, stageError(StageRender, page, ErrRenderFailure, err)
	}
	defer raster.Release()

	bounds := raster.Image.Bounds()
	if bounds.Empty() {
		return PageReport{}, nil, stageError(StageRender, page, ErrRenderFailure,
			fmt.Errorf("renderer returned an empty raster"))
	}

	data, err := c.codec.Encode(raster.Image, s.Quality)
	if err != nil {
		return PageReport{}, nil, stageError(StageEncode, page, ErrOutOfMemory, err)
	}

	// invert the render scale so the image reproduces the source page's physical size
	report := PageReport{
		Number:      page,
		SourceSize:  size,
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
		OutputSize: Size{
			Width:  float64(bounds.Dx()) / scale,
			Height: float64(bounds.Dy()) / scale,
		},
		ImageBytes: len(data),
	}
	return report, data, nil
}
