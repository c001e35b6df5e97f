package compressor

import (
	"bytes"
	"fmt"
)

var (
	pdfHeader = []byte("%PDF-")
	eofMarker = []byte("%%EOF")
)

// headers may be preceded by junk within the first kilobyte
const headerWindow = 1024

// ValidateHeader performs a cheap check that data looks like a PDF file
func ValidateHeader(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("input is empty")
	}

	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, pdfHeader) {
		return fmt.Errorf("file does not start with PDF header")
	}

	return nil
}

// RepairTrailer drops bytes after the last %%EOF marker, which some tools
// append and which break strict parsers. Data without a marker is returned
// unchanged so the reader can attempt its own recovery.
func RepairTrailer(data []byte) []byte {
	lastEOFIndex := bytes.LastIndex(data, eofMarker)
	if lastEOFIndex == -1 {
		return data
	}

	end := lastEOFIndex + len(eofMarker)
	// keep a single line ending after the marker
	if end < len(data) && data[end] == '\r' {
		end++
	}
	if end < len(data) && data[end] == '\n' {
		end++
	}
	return data[:end]
}
