package compressor

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Ratio returns compressed size divided by original size
func (r *RunResult) Ratio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.CompressedSize) / float64(r.OriginalSize)
}

// Savings returns the size reduction in whole percent. It is negative when
// the output grew.
func (r *RunResult) Savings() int {
	if r.OriginalSize == 0 {
		return 0
	}
	return int(math.Round((1 - r.Ratio()) * 100))
}

// SavingsText describes the size change the way it is shown to users
func (r *RunResult) SavingsText() string {
	saved := r.Savings()
	if saved > 0 {
		return fmt.Sprintf("%d%%", saved)
	}
	return fmt.Sprintf("+%d%% (larger)", -saved)
}

// Summary renders the result as human readable lines
func (r *RunResult) Summary(inputName, outputName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Input:         %s (%s)\n", filepath.Base(inputName), humanize.Bytes(uint64(r.OriginalSize)))
	fmt.Fprintf(&b, "Output:        %s (%s)\n", filepath.Base(outputName), humanize.Bytes(uint64(r.CompressedSize)))
	fmt.Fprintf(&b, "Savings:       %s\n", r.SavingsText())
	fmt.Fprintf(&b, "Pages:         %d\n", r.PageCount)
	fmt.Fprintf(&b, "Settings:      %s\n", r.Settings)
	fmt.Fprintf(&b, "Processing:    %v\n", r.Duration.Round(time.Millisecond))

	return b.String()
}

// OutputName derives the default output path for an input document
func OutputName(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := inputPath
	if strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(inputPath, ext)
	}
	return base + "_compressed.pdf"
}

// PointsToMillimeters converts a PDF length to millimeters
func PointsToMillimeters(points float64) float64 {
	return points * 25.4 / 72
}
