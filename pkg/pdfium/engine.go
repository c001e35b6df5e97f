// Package pdfium implements the document reader and writer used by the
// compressor on top of PDFium, running as WebAssembly so no cgo is needed.
package pdfium

import (
	"fmt"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// Config sizes the PDFium instance pool
type Config struct {
	MinIdle  int
	MaxIdle  int
	MaxTotal int
	// InstanceTimeout bounds the wait for a free instance
	InstanceTimeout time.Duration
}

// DefaultConfig returns the pool settings used by the CLI
func DefaultConfig() Config {
	return Config{
		MinIdle:         1,
		MaxIdle:         2,
		MaxTotal:        4,
		InstanceTimeout: 30 * time.Second,
	}
}

// Engine owns a pool of PDFium instances. Each opened or created document
// holds one instance until it is closed, so MaxTotal bounds concurrency.
type Engine struct {
	pool    pdfium.Pool
	timeout time.Duration
}

// NewEngine initializes PDFium
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.MaxTotal < 2 {
		// a compression run holds one source and one output document
		cfg.MaxTotal = 2
	}
	if cfg.InstanceTimeout <= 0 {
		cfg.InstanceTimeout = 30 * time.Second
	}

	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  cfg.MinIdle,
		MaxIdle:  cfg.MaxIdle,
		MaxTotal: cfg.MaxTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium: %w", err)
	}

	return &Engine{pool: pool, timeout: cfg.InstanceTimeout}, nil
}

func (e *Engine) instance() (pdfium.Pdfium, error) {
	instance, err := e.pool.GetInstance(e.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}
	return instance, nil
}

// Reader returns a document reader backed by this engine
func (e *Engine) Reader() *Reader {
	return &Reader{engine: e}
}

// Writer returns a document writer backed by this engine
func (e *Engine) Writer() *Writer {
	return &Writer{engine: e}
}

// Close shuts down the pool. Documents must be closed first.
func (e *Engine) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}
