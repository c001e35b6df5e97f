package compressor

import (
	"context"
	"image"
)

// Size is a page size in PDF points (1/72 inch)
type Size struct {
	Width  float64
	Height float64
}

// Raster is a rendered page. Release must be called once the image is no longer used.
type Raster struct {
	Image   image.Image
	release func()
}

// NewRaster wraps a rendered image; release may be nil
func NewRaster(img image.Image, release func()) *Raster {
	return &Raster{Image: img, release: release}
}

// Release frees the memory backing the raster
func (r *Raster) Release() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// Document is a decoded source document owned by a single run
type Document interface {
	PageCount() (int, error)
	// PageSize returns the displayed size of the zero-based page, after page rotation
	PageSize(index int) (Size, error)
	// RenderPage rasterizes the zero-based page at the given dots per inch
	RenderPage(index int, dpi int) (*Raster, error)
	Close() error
}

// DocumentReader decodes source bytes
type DocumentReader interface {
	Load(ctx context.Context, data []byte, password string) (Document, error)
}

// RasterCodec compresses a raster into a lossy image stream.
// Encoding must be deterministic for fixed inputs.
type RasterCodec interface {
	Encode(img image.Image, quality float64) ([]byte, error)
}

// PageRef identifies a page added to a Builder
type PageRef int

// Builder accumulates output pages. Close releases resources and is safe after Finalize.
type Builder interface {
	AddPage(width, height float64) (PageRef, error)
	// PlaceImage draws a JPEG stream on the page; x, y are measured from the top-left corner
	PlaceImage(page PageRef, jpegData []byte, x, y, width, height float64) error
	Finalize() ([]byte, error)
	Close() error
}

// DocumentWriter creates output documents
type DocumentWriter interface {
	Create(ctx context.Context) (Builder, error)
}
