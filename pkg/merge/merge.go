// Package merge concatenates PDF documents by copying their page trees.
// Page content is never re-encoded.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

var (
	ErrTooFewInputs    = errors.New("at least two documents are required")
	ErrCorruptDocument = errors.New("corrupt document")
	ErrEncrypted       = errors.New("document is password protected")
)

func init() {
	// pdfcpu would otherwise create a config directory in the user's home
	api.DisableConfigDir()
}

// Input is one document to merge
type Input struct {
	Name string
	Data []byte
}

// InputInfo describes a merged input
type InputInfo struct {
	Name      string
	PageCount int
	Size      int
}

// Result of a merge
type Result struct {
	Output    []byte
	PageCount int
	Inputs    []InputInfo
}

// Merger merges documents with a fixed pdfcpu configuration
type Merger struct {
	// DividerPage inserts a blank page between inputs
	DividerPage bool
	// Password opens encrypted inputs. Inputs that only restrict
	// permissions open without one.
	Password string
	Logger   zerolog.Logger
}

// New creates a merger with default settings
func New(logger zerolog.Logger) *Merger {
	return &Merger{Logger: logger}
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func (m *Merger) configuration() *model.Configuration {
	conf := configuration()
	conf.UserPW = m.Password
	conf.OwnerPW = m.Password
	return conf
}

// open returns the input with any encryption removed, and its page count
func (m *Merger) open(in Input) ([]byte, int, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(in.Data), m.configuration())
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return nil, 0, fmt.Errorf("%w: %s", ErrEncrypted, in.Name)
		}
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, in.Name, err)
	}
	if ctx.Encrypt == nil {
		return in.Data, ctx.PageCount, nil
	}

	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(in.Data), &buf, m.configuration()); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrEncrypted, in.Name, err)
	}
	m.Logger.Debug().Str("input", in.Name).Msg("merge input decrypted")
	return buf.Bytes(), ctx.PageCount, nil
}

// Merge concatenates inputs in the given order
func Merge(ctx context.Context, inputs []Input) (*Result, error) {
	return New(zerolog.Nop()).Merge(ctx, inputs)
}

// Merge concatenates inputs in the given order
func (m *Merger) Merge(ctx context.Context, inputs []Input) (*Result, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewInputs, len(inputs))
	}

	infos := make([]InputInfo, 0, len(inputs))
	readers := make([]io.ReadSeeker, 0, len(inputs))
	expected := 0

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, count, err := m.open(in)
		if err != nil {
			return nil, err
		}

		m.Logger.Debug().Str("input", in.Name).Int("pages", count).Msg("merge input read")

		infos = append(infos, InputInfo{Name: in.Name, PageCount: count, Size: len(in.Data)})
		readers = append(readers, bytes.NewReader(data))
		expected += count
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, m.DividerPage, configuration()); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}

	pageCount, err := api.PageCount(bytes.NewReader(buf.Bytes()), configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to read merged document: %w", err)
	}

	if !m.DividerPage && pageCount != expected {
		return nil, fmt.Errorf("merged document has %d pages, expected %d", pageCount, expected)
	}

	m.Logger.Debug().Int("inputs", len(inputs)).Int("pages", pageCount).Msg("merge finished")

	return &Result{
		Output:    buf.Bytes(),
		PageCount: pageCount,
		Inputs:    infos,
	}, nil
}
