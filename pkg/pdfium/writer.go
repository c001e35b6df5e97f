package pdfium

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/structs"

	"github.com/alde/tinypdf/pkg/compressor"
)

// Writer creates output documents. It implements compressor.DocumentWriter.
type Writer struct {
	engine *Engine
}

// Create starts a new empty document
func (w *Writer) Create(ctx context.Context) (compressor.Builder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	instance, err := w.engine.instance()
	if err != nil {
		return nil, err
	}

	doc, err := instance.FPDF_CreateNewDocument(&requests.FPDF_CreateNewDocument{})
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return &Builder{instance: instance, handle: doc.Document}, nil
}

type outputPage struct {
	handle references.FPDF_PAGE
	height float64
}

// Builder assembles image pages into a document
type Builder struct {
	instance pdfium.Pdfium
	handle   references.FPDF_DOCUMENT
	pages    []outputPage
	open     []references.FPDF_PAGE
	closed   bool
}

// AddPage appends a page of the given size in points
func (b *Builder) AddPage(width, height float64) (compressor.PageRef, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid page size %.2fx%.2f", width, height)
	}

	resp, err := b.instance.FPDFPage_New(&requests.FPDFPage_New{
		Document:  b.handle,
		PageIndex: len(b.pages),
		Width:     width,
		Height:    height,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add page: %w", err)
	}

	b.pages = append(b.pages, outputPage{handle: resp.Page, height: height})
	b.open = append(b.open, resp.Page)
	return compressor.PageRef(len(b.pages) - 1), nil
}

// PlaceImage embeds a JPEG stream without re-encoding and scales it to the
// given rectangle
func (b *Builder) PlaceImage(ref compressor.PageRef, jpegData []byte, x, y, width, height float64) error {
	if int(ref) < 0 || int(ref) >= len(b.pages) {
		return fmt.Errorf("unknown page %d", ref)
	}
	page := b.pages[ref]

	obj, err := b.instance.FPDFPageObj_NewImageObj(&requests.FPDFPageObj_NewImageObj{
		Document: b.handle,
	})
	if err != nil {
		return fmt.Errorf("failed to create image object: %w", err)
	}

	_, err = b.instance.FPDFImageObj_LoadJpegFileInline(&requests.FPDFImageObj_LoadJpegFileInline{
		ImageObject:    obj.PageObject,
		FileReader:     bytes.NewReader(jpegData),
		FileReaderSize: int64(len(jpegData)),
	})
	if err != nil {
		b.instance.FPDFPageObj_Destroy(&requests.FPDFPageObj_Destroy{PageObject: obj.PageObject})
		return fmt.Errorf("failed to load jpeg: %w", err)
	}

	// image space is the unit square, PDF space starts at the bottom-left corner
	_, err = b.instance.FPDFImageObj_SetMatrix(&requests.FPDFImageObj_SetMatrix{
		ImageObject: obj.PageObject,
		Transform: structs.FPDF_FS_MATRIX{
			A: float32(width),
			D: float32(height),
			E: float32(x),
			F: float32(page.height - y - height),
		},
	})
	if err != nil {
		b.instance.FPDFPageObj_Destroy(&requests.FPDFPageObj_Destroy{PageObject: obj.PageObject})
		return fmt.Errorf("failed to position image: %w", err)
	}

	pageRef := requests.Page{ByReference: &page.handle}

	_, err = b.instance.FPDFPage_InsertObject(&requests.FPDFPage_InsertObject{
		Page:       pageRef,
		PageObject: obj.PageObject,
	})
	if err != nil {
		b.instance.FPDFPageObj_Destroy(&requests.FPDFPageObj_Destroy{PageObject: obj.PageObject})
		return fmt.Errorf("failed to insert image: %w", err)
	}

	if _, err := b.instance.FPDFPage_GenerateContent(&requests.FPDFPage_GenerateContent{Page: pageRef}); err != nil {
		return fmt.Errorf("failed to generate page content: %w", err)
	}

	return nil
}

// Finalize serializes the document. The builder must still be closed.
func (b *Builder) Finalize() ([]byte, error) {
	if b.closed {
		return nil, errors.New("builder is closed")
	}
	if err := b.closePages(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	_, err := b.instance.FPDF_SaveAsCopy(&requests.FPDF_SaveAsCopy{
		Document:   b.handle,
		FileWriter: &buf,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *Builder) closePages() error {
	var errs []error
	for _, handle := range b.open {
		if _, err := b.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: handle}); err != nil {
			errs = append(errs, err)
		}
	}
	b.open = nil
	return errors.Join(errs...)
}

// Close releases the document and returns its instance to the pool
func (b *Builder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	pagesErr := b.closePages()
	_, docErr := b.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: b.handle,
	})
	return errors.Join(pagesErr, docErr, b.instance.Close())
}
