package compressor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alde/tinypdf/pkg/codec"
	"github.com/alde/tinypdf/pkg/settings"
)

var (
	letter    = Size{Width: 612, Height: 792}
	landscape = Size{Width: 792, Height: 612}
	a4        = Size{Width: 595, Height: 842}
)

type fakeReader struct {
	pages      []Size
	loadErr    error
	renderErr  map[int]error
	events     *[]string
	doc        *fakeDocument
	seenSource []byte
}

func (r *fakeReader) Load(_ context.Context, data []byte, _ string) (Document, error) {
	r.seenSource = data
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	r.doc = &fakeDocument{reader: r}
	return r.doc, nil
}

type fakeDocument struct {
	reader   *fakeReader
	closed   bool
	released int
}

func (d *fakeDocument) PageCount() (int, error) { return len(d.reader.pages), nil }

func (d *fakeDocument) PageSize(index int) (Size, error) {
	if index < 0 || index >= len(d.reader.pages) {
		return Size{}, fmt.Errorf("page %d out of range", index)
	}
	return d.reader.pages[index], nil
}

func (d *fakeDocument) RenderPage(index, dpi int) (*Raster, error) {
	if d.reader.events != nil {
		*d.reader.events = append(*d.reader.events, fmt.Sprintf("render:%d", index+1))
	}
	if err := d.reader.renderErr[index+1]; err != nil {
		return nil, err
	}
	size := d.reader.pages[index]
	scale := float64(dpi) / 72
	w := int(math.Round(size.Width * scale))
	h := int(math.Round(size.Height * scale))
	return NewRaster(photo(w, h), func() { d.released++ }), nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

// photo produces deterministic content with gradients and noise, which
// behaves like photographic material under JPEG compression
func photo(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(2463534242)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			noise := uint8(seed % 24)
			img.Set(x, y, color.RGBA{
				R: uint8(x*255/w) ^ noise,
				G: uint8(y*255/h) + noise,
				B: uint8((x+y)*127/(w+h)) + noise,
				A: 255,
			})
		}
	}
	return img
}

type placedPage struct {
	width, height float64
	image         []byte
	x, y, w, h    float64
}

type fakeWriter struct {
	builder     *fakeBuilder
	finalizeErr error
}

func (w *fakeWriter) Create(context.Context) (Builder, error) {
	w.builder = &fakeBuilder{finalizeErr: w.finalizeErr}
	return w.builder, nil
}

type fakeBuilder struct {
	pages       []placedPage
	finalized   bool
	closed      bool
	finalizeErr error
}

func (b *fakeBuilder) AddPage(width, height float64) (PageRef, error) {
	b.pages = append(b.pages, placedPage{width: width, height: height})
	return PageRef(len(b.pages) - 1), nil
}

func (b *fakeBuilder) PlaceImage(page PageRef, data []byte, x, y, w, h float64) error {
	p := &b.pages[page]
	p.image = data
	p.x, p.y, p.w, p.h = x, y, w, h
	return nil
}

func (b *fakeBuilder) Finalize() ([]byte, error) {
	if b.finalizeErr != nil {
		return nil, b.finalizeErr
	}
	b.finalized = true
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	for _, p := range b.pages {
		buf.Write(p.image)
	}
	return buf.Bytes(), nil
}

func (b *fakeBuilder) Close() error {
	b.closed = true
	return nil
}

func sourcePDF(size int) []byte {
	data := bytes.Repeat([]byte("0"), size)
	copy(data, "%PDF-1.7\n")
	return append(data, "\n%%EOF\n"...)
}

func newTestCompressor(r *fakeReader, w *fakeWriter) *Compressor {
	return New(r, codec.NewJPEG(false), w, Options{})
}

func mediumSettings(t *testing.T) settings.Settings {
	s, err := settings.Resolve(settings.PresetChoice{Name: "medium"})
	require.NoError(t, err)
	return s
}

func TestCompressThreeLetterPages(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter, letter, letter}}
	writer := &fakeWriter{}
	c := newTestCompressor(reader, writer)

	source := sourcePDF(16 << 20)
	result, err := c.Compress(context.Background(), RunRequest{
		Source:   source,
		Settings: mediumSettings(t),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, len(source), result.OriginalSize)
	assert.Equal(t, len(result.Output), result.CompressedSize)
	assert.Less(t, result.CompressedSize, result.OriginalSize)

	require.Len(t, writer.builder.pages, 3)
	for i, p := range writer.builder.pages {
		assert.InDelta(t, 612, p.width, 1, "page %d width", i+1)
		assert.InDelta(t, 792, p.height, 1, "page %d height", i+1)
		assert.Equal(t, 0.0, p.x)
		assert.Equal(t, 0.0, p.y)
		assert.Equal(t, p.width, p.w)
		assert.Equal(t, p.height, p.h)
		assert.NotEmpty(t, p.image)
	}

	assert.Equal(t, 1020, result.Pages[0].PixelWidth)
	assert.Equal(t, 1320, result.Pages[0].PixelHeight)
	assert.True(t, writer.builder.finalized)
	assert.True(t, writer.builder.closed)
	assert.True(t, reader.doc.closed)
	assert.Equal(t, 3, reader.doc.released)
}

func TestCompressPreservesAspectRatioPerPage(t *testing.T) {
	pages := []Size{letter, landscape, a4, {Width: 200, Height: 1000}}
	reader := &fakeReader{pages: pages}
	writer := &fakeWriter{}
	c := newTestCompressor(reader, writer)

	for _, preset := range settings.Presets() {
		t.Run(preset.Name, func(t *testing.T) {
			_, err := c.Compress(context.Background(), RunRequest{
				Source:   sourcePDF(1024),
				Settings: preset.Settings(),
			}, nil)
			require.NoError(t, err)

			require.Len(t, writer.builder.pages, len(pages))
			for i, p := range writer.builder.pages {
				want := pages[i].Width / pages[i].Height
				got := p.width / p.height
				assert.InDelta(t, want, got, 0.01, "page %d aspect ratio", i+1)
				assert.InDelta(t, pages[i].Width, p.width, 1, "page %d width", i+1)
				assert.InDelta(t, pages[i].Height, p.height, 1, "page %d height", i+1)
			}
		})
	}
}

func TestCompressProgressPrecedesRendering(t *testing.T) {
	var events []string
	reader := &fakeReader{pages: []Size{letter, landscape, letter, a4, letter, letter, letter}, events: &events}
	c := newTestCompressor(reader, &fakeWriter{})

	var calls [][2]int
	_, err := c.Compress(context.Background(), RunRequest{
		Source:   sourcePDF(1024),
		Settings: settings.Settings{Resolution: 36, Quality: 0.5},
	}, func(current, total int) {
		calls = append(calls, [2]int{current, total})
		events = append(events, fmt.Sprintf("progress:%d", current))
	})
	require.NoError(t, err)

	require.Len(t, calls, 7)
	for i, call := range calls {
		assert.Equal(t, i+1, call[0])
		assert.Equal(t, 7, call[1])
	}

	for page := 1; page <= 7; page++ {
		assert.Equal(t, fmt.Sprintf("progress:%d", page), events[2*(page-1)])
		assert.Equal(t, fmt.Sprintf("render:%d", page), events[2*(page-1)+1])
	}
}

func TestCompressEmptyInput(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter}}
	c := newTestCompressor(reader, &fakeWriter{})

	result, err := c.Compress(context.Background(), RunRequest{Settings: mediumSettings(t)}, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCorruptDocument)
	assert.Nil(t, reader.doc, "reader should not be invoked for empty input")
}

func TestCompressEmptyDocument(t *testing.T) {
	reader := &fakeReader{}
	writer := &fakeWriter{}
	c := newTestCompressor(reader, writer)

	result, err := c.Compress(context.Background(), RunRequest{
		Source:   sourcePDF(64),
		Settings: mediumSettings(t),
	}, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.True(t, reader.doc.closed)
	assert.Nil(t, writer.builder, "no output document should be created")
}

func TestCompressLoadFailure(t *testing.T) {
	reader := &fakeReader{loadErr: errors.New("xref table broken")}
	c := newTestCompressor(reader, &fakeWriter{})

	_, err := c.Compress(context.Background(), RunRequest{
		Source:   sourcePDF(64),
		Settings: mediumSettings(t),
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptDocument)
	assert.Contains(t, err.Error(), "xref table broken")

	_, ok := FailedPage(err)
	assert.False(t, ok)
}

func TestCompressRenderFailureAborts(t *testing.T) {
	cause := errors.New("unsupported content stream")
	reader := &fakeReader{
		pages:     []Size{letter, letter, letter},
		renderErr: map[int]error{2: cause},
	}
	writer := &fakeWriter{}
	c := newTestCompressor(reader, writer)

	result, err := c.Compress(context.Background(), RunRequest{
		Source:   sourcePDF(64),
		Settings: mediumSettings(t),
	}, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRenderFailure)
	assert.ErrorIs(t, err, cause)

	page, ok := FailedPage(err)
	assert.True(t, ok)
	assert.Equal(t, 2, page)
	assert.Contains(t, err.Error(), "page 2")

	assert.False(t, writer.builder.finalized)
	assert.True(t, writer.builder.closed)
	assert.True(t, reader.doc.closed)
}

func TestCompressCancellation(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter, letter, letter, letter}}
	writer := &fakeWriter{}
	c := newTestCompressor(reader, writer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int
	result, err := c.Compress(ctx, RunRequest{
		Source:   sourcePDF(64),
		Settings: settings.Settings{Resolution: 36, Quality: 0.5},
	}, func(current, _ int) {
		seen = append(seen, current)
		if current == 2 {
			cancel()
		}
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1, 2}, seen)
	assert.False(t, writer.builder.finalized)
}

func TestCompressRasterBudget(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter}}
	c := New(reader, codec.NewJPEG(false), &fakeWriter{}, Options{MaxPixels: 1000 * 1000})

	_, err := c.Compress(context.Background(), RunRequest{
		Source:   sourcePDF(64),
		Settings: settings.Settings{Resolution: 200, Quality: 0.9},
	}, nil)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 0, reader.doc.released, "page must not be rendered")
}

func TestCompressFinalizeFailure(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter}}
	c := newTestCompressor(reader, &fakeWriter{finalizeErr: errors.New("disk full")})

	result, err := c.Compress(context.Background(), RunRequest{
		Source:   sourcePDF(64),
		Settings: settings.Settings{Resolution: 36, Quality: 0.5},
	}, nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAssembly)
}

func TestCompressDeterministicSize(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter, landscape}}
	c := newTestCompressor(reader, &fakeWriter{})
	req := RunRequest{Source: sourcePDF(64), Settings: mediumSettings(t)}

	first, err := c.Compress(context.Background(), req, nil)
	require.NoError(t, err)
	second, err := c.Compress(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, first.CompressedSize, second.CompressedSize)
}

func TestCompressSizeMonotonicAcrossPresets(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter}}
	c := newTestCompressor(reader, &fakeWriter{})

	previous := math.MaxInt
	for _, preset := range settings.Presets() {
		result, err := c.Compress(context.Background(), RunRequest{
			Source:   sourcePDF(64),
			Settings: preset.Settings(),
		}, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, result.CompressedSize, previous, "preset %s grew the output", preset.Name)
		previous = result.CompressedSize
	}
}

func TestCompressTrimsTrailingGarbage(t *testing.T) {
	reader := &fakeReader{pages: []Size{letter}}
	c := newTestCompressor(reader, &fakeWriter{})

	source := append(sourcePDF(64), "garbage after the trailer"...)
	result, err := c.Compress(context.Background(), RunRequest{
		Source:   source,
		Settings: settings.Settings{Resolution: 36, Quality: 0.5},
	}, nil)
	require.NoError(t, err)

	assert.True(t, bytes.HasSuffix(reader.seenSource, []byte("%%EOF\n")))
	assert.Equal(t, len(source), result.OriginalSize)
}
