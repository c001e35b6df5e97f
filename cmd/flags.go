package cmd

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alde/tinypdf/pkg/settings"
)

// presetValue is a pflag.Value that only accepts known preset names
type presetValue struct {
	dst *string
}

func (p presetValue) String() string {
	if p.dst == nil {
		return ""
	}
	return *p.dst
}

func (p presetValue) Set(s string) error {
	preset, err := settings.Lookup(s)
	if err != nil {
		return err
	}
	*p.dst = preset.Name
	return nil
}

func (p presetValue) Type() string { return "preset" }

// byteSizeValue is a pflag.Value accepting sizes like "50MiB"
type byteSizeValue struct {
	dst *int64
}

func (b byteSizeValue) String() string {
	if b.dst == nil {
		return ""
	}
	return humanize.IBytes(uint64(*b.dst))
}

func (b byteSizeValue) Set(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	*b.dst = int64(n)
	return nil
}

func (b byteSizeValue) Type() string { return "size" }

// optionalIntValue is a pflag.Value that leaves its target nil until set
type optionalIntValue struct {
	dst **int
}

func (o optionalIntValue) String() string {
	if o.dst == nil || *o.dst == nil {
		return ""
	}
	return strconv.Itoa(**o.dst)
}

func (o optionalIntValue) Set(s string) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*o.dst = &i
	return nil
}

func (o optionalIntValue) Type() string { return "int" }

// optionalFloatValue is a pflag.Value that leaves its target nil until set
type optionalFloatValue struct {
	dst **float64
}

func (o optionalFloatValue) String() string {
	if o.dst == nil || *o.dst == nil {
		return ""
	}
	return strconv.FormatFloat(**o.dst, 'g', -1, 64)
}

func (o optionalFloatValue) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*o.dst = &f
	return nil
}

func (o optionalFloatValue) Type() string { return "float" }

// addCompressionFlags registers the flags shared by compress and watch
func addCompressionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Var(presetValue{&cfg.Preset}, "preset", "Compression preset ("+strings.Join(settings.Names(), ", ")+")")
	f.StringVar(&cfg.Mode, "mode", cfg.Mode, "Settings mode (preset, custom); inferred when empty")
	f.Var(optionalIntValue{&cfg.Resolution}, "dpi", "Custom rasterization resolution in DPI (36-300)")
	f.Var(optionalFloatValue{&cfg.Quality}, "quality", "Custom JPEG quality (0-1]")
	f.BoolVar(&cfg.Grayscale, "grayscale", cfg.Grayscale, "Drop color before encoding")
	f.BoolVar(&cfg.Optimize, "optimize", cfg.Optimize, "Run a lossless structural optimization on the output")
	f.StringVar(&cfg.Password, "password", cfg.Password, "Password for encrypted input")
	f.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory for compressed files (default: next to input)")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of files compressed concurrently (0 = auto)")
	f.IntVar(&cfg.YieldEvery, "yield-every", cfg.YieldEvery, "Pages between scheduler yields")
	f.IntVar(&cfg.MaxPixels, "max-pixels", cfg.MaxPixels, "Largest allowed page raster in pixels (0 = unlimited)")
	f.Var(byteSizeValue{&cfg.MaxInputSize}, "max-input-size", "Largest accepted input file")
}
