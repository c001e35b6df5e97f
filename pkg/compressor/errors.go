package compressor

import (
	"errors"
	"fmt"
)

var (
	ErrCorruptDocument = errors.New("corrupt document")
	ErrEmptyDocument   = errors.New("document has no pages")
	ErrRenderFailure   = errors.New("page could not be rendered")
	ErrOutOfMemory     = errors.New("out of memory")
	ErrCancelled       = errors.New("compression cancelled")
	ErrAssembly        = errors.New("output document could not be assembled")
	ErrInputTooLarge   = errors.New("input exceeds size limit")
)

// Stage names the pipeline step that failed
type Stage string

const (
	StageLoad     Stage = "load"
	StageRender   Stage = "render"
	StageEncode   Stage = "encode"
	StageAssemble Stage = "assemble"
	StageFinalize Stage = "finalize"
	StageCancel   Stage = "cancel"
)

// Error is returned by Compress. It wraps one of the sentinel errors above
// together with the underlying cause.
type Error struct {
	Stage Stage
	Page  int // 1-based, zero when not tied to a page
	Kind  error
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (%s, page %d)", msg, e.Stage, e.Page)
	} else {
		msg = fmt.Sprintf("%s (%s)", msg, e.Stage)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageError(stage Stage, page int, kind, err error) error {
	return &Error{Stage: stage, Page: page, Kind: kind, Err: err}
}

// FailedPage returns the 1-based page a compression error refers to, if any
func FailedPage(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Page > 0 {
		return e.Page, true
	}
	return 0, false
}
