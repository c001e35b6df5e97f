// Package settings turns a preset name or explicit user values into the
// rasterization resolution and JPEG quality used for one compression run.
package settings

import (
	"errors"
	"fmt"
	"math"
)

// ReferenceResolution is the PDF user-space unit density: one point is 1/72 inch.
const ReferenceResolution = 72

// Supported range for custom resolutions
const (
	MinResolution = 36
	MaxResolution = 300
)

var (
	ErrInvalidPreset    = errors.New("invalid preset")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Settings is the resolved (resolution, quality) pair for a run
type Settings struct {
	Resolution int
	Quality    float64
}

// Scale is the factor from page points to raster pixels
func (s Settings) Scale() float64 {
	return float64(s.Resolution) / ReferenceResolution
}

// Percent maps a quality fraction in (0, 1] onto the 1..100 scale used by
// image encoders
func Percent(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// JPEGQuality is the encoder quality for these settings
func (s Settings) JPEGQuality() int {
	return Percent(s.Quality)
}

func (s Settings) String() string {
	return fmt.Sprintf("%d DPI, %d%% quality", s.Resolution, s.JPEGQuality())
}

// Choice selects how settings are derived. It is either a PresetChoice or a CustomChoice.
type Choice interface {
	resolve() (Settings, error)
}

// PresetChoice picks an entry of the preset table
type PresetChoice struct {
	Name string
}

// CustomChoice carries user-chosen values
type CustomChoice struct {
	Resolution int
	Quality    float64
}

func (c PresetChoice) resolve() (Settings, error) {
	p, err := Lookup(c.Name)
	if err != nil {
		return Settings{}, err
	}
	return p.Settings(), nil
}

func (c CustomChoice) resolve() (Settings, error) {
	if c.Resolution < MinResolution || c.Resolution > MaxResolution {
		return Settings{}, fmt.Errorf("%w: resolution %d outside %d-%d",
			ErrInvalidParameter, c.Resolution, MinResolution, MaxResolution)
	}
	// written so that NaN fails too
	if !(c.Quality > 0 && c.Quality <= 1) {
		return Settings{}, fmt.Errorf("%w: quality %v outside (0,1]", ErrInvalidParameter, c.Quality)
	}
	return Settings{Resolution: c.Resolution, Quality: c.Quality}, nil
}

// Resolve maps a choice to concrete settings. It has no side effects.
func Resolve(c Choice) (Settings, error) {
	if c == nil {
		return Settings{}, fmt.Errorf("%w: no compression settings chosen", ErrInvalidParameter)
	}
	return c.resolve()
}
