package pdfium

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"

	"github.com/alde/tinypdf/pkg/compressor"
)

// Reader opens source documents. It implements compressor.DocumentReader.
type Reader struct {
	engine *Engine
}

// Load opens data as a PDF. The password is only used for encrypted files.
func (r *Reader) Load(ctx context.Context, data []byte, password string) (compressor.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	instance, err := r.engine.instance()
	if err != nil {
		return nil, err
	}

	req := &requests.OpenDocument{File: &data}
	if password != "" {
		req.Password = &password
	}

	doc, err := instance.OpenDocument(req)
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to open PDF document: %w", err)
	}

	return &Document{instance: instance, handle: doc.Document}, nil
}

// Document is an open source document
type Document struct {
	instance pdfium.Pdfium
	handle   references.FPDF_DOCUMENT
	closed   bool
}

func (d *Document) page(index int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: d.handle,
			Index:    index,
		},
	}
}

// PageCount returns the number of pages
func (d *Document) PageCount() (int, error) {
	resp, err := d.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: d.handle,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return resp.PageCount, nil
}

// PageSize returns the displayed size of a page in points, with rotation applied
func (d *Document) PageSize(index int) (compressor.Size, error) {
	resp, err := d.instance.GetPageSize(&requests.GetPageSize{
		Page: d.page(index),
	})
	if err != nil {
		return compressor.Size{}, fmt.Errorf("failed to get size of page %d: %w", index+1, err)
	}
	return compressor.Size{Width: resp.Width, Height: resp.Height}, nil
}

// RenderPage rasterizes a page at the given resolution. Transparent areas
// are flattened onto white since JPEG has no alpha channel.
func (d *Document) RenderPage(index, dpi int) (*compressor.Raster, error) {
	resp, err := d.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		Page: d.page(index),
		DPI:  dpi,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}
	if resp.Result.Image == nil {
		resp.Cleanup()
		return nil, fmt.Errorf("failed to render page %d: no image returned", index+1)
	}

	if resp.Result.HasTransparency {
		flat := flatten(resp.Result.Image)
		resp.Cleanup()
		return compressor.NewRaster(flat, nil), nil
	}

	return compressor.NewRaster(resp.Result.Image, resp.Cleanup), nil
}

func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// Close releases the document and returns its instance to the pool
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	_, closeErr := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.handle,
	})
	return errors.Join(closeErr, d.instance.Close())
}
