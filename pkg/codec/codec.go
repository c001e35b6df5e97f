// Package codec encodes rendered page rasters into image files.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/alde/tinypdf/pkg/settings"
)

var ErrUnknownFormat = errors.New("unknown image format")

// Format is an output image format
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatJPEG, FormatPNG, FormatWebP}
}

// ParseFormat accepts a format name or a common file extension
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Extension returns the file extension including the leading dot
func (f Format) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}

// Encode writes img to w in the given format. Quality is ignored for PNG.
func Encode(w io.Writer, img image.Image, format Format, quality float64) error {
	switch format {
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(settings.Percent(quality)))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{
			Lossless: false,
			Quality:  float32(settings.Percent(quality)),
		})
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// JPEG is the raster codec used when assembling compressed documents
type JPEG struct {
	grayscale bool
}

// NewJPEG creates a JPEG codec. With grayscale set, color is dropped before encoding.
func NewJPEG(grayscale bool) *JPEG {
	return &JPEG{grayscale: grayscale}
}

// Encode compresses img to a baseline JPEG
func (j *JPEG) Encode(img image.Image, quality float64) ([]byte, error) {
	if !(quality > 0 && quality <= 1) {
		return nil, fmt.Errorf("quality %v outside (0, 1]", quality)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("cannot encode an empty image")
	}

	if j.grayscale {
		img = toGray(img)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatJPEG, quality); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// toGray desaturates img into a single channel image so the encoder writes
// one component instead of three
func toGray(img image.Image) *image.Gray {
	desaturated := imaging.Grayscale(img)
	bounds := desaturated.Bounds()
	gray := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		src := desaturated.Pix[y*desaturated.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return gray
}
