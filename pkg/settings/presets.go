package settings

import (
	"fmt"
	"strings"
)

// Preset is a named, fixed compression parameter bundle
type Preset struct {
	Name        string
	Resolution  int     // DPI used to rasterize pages
	Quality     float64 // JPEG quality factor in (0,1]
	Description string
}

// DefaultPreset is used when neither a preset nor custom values are given
const DefaultPreset = "medium"

// Ordered from highest fidelity (largest output) to lowest fidelity (smallest output)
var presets = []Preset{
	{
		Name:        "minimal",
		Resolution:  200,
		Quality:     0.90,
		Description: "Minimal compression - best quality",
	},
	{
		Name:        "low",
		Resolution:  150,
		Quality:     0.85,
		Description: "Low compression - high quality",
	},
	{
		Name:        "medium",
		Resolution:  120,
		Quality:     0.75,
		Description: "Balanced compression",
	},
	{
		Name:        "high",
		Resolution:  96,
		Quality:     0.60,
		Description: "High compression",
	},
	{
		Name:        "maximum",
		Resolution:  72,
		Quality:     0.50,
		Description: "Maximum compression - smallest size",
	},
}

// Lookup returns a preset by name
func Lookup(name string) (Preset, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	for _, p := range presets {
		if p.Name == normalizedName {
			return p, nil
		}
	}

	return Preset{}, fmt.Errorf("%w: unknown preset '%s'. Available presets: %s",
		ErrInvalidPreset, name, strings.Join(Names(), ", "))
}

// Presets returns a copy of the preset table in order
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Names returns the preset names in table order
func Names() []string {
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	return names
}

// Settings returns the concrete settings of the preset
func (p Preset) Settings() Settings {
	return Settings{Resolution: p.Resolution, Quality: p.Quality}
}
