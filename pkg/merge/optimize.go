package merge

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Optimize rewrites a document with duplicate objects removed and streams
// compressed. It never touches image data, so it is lossless. When the
// result is not smaller the input is returned unchanged.
func Optimize(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, configuration()); err != nil {
		return nil, fmt.Errorf("failed to optimize document: %w", err)
	}

	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}
