// Package config assembles CLI configuration from defaults, a config file,
// environment variables and command line flags, in increasing precedence.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/alde/tinypdf/pkg/settings"
)

// Settings derivation modes
const (
	ModeAuto   = ""
	ModePreset = "preset"
	ModeCustom = "custom"
)

// DefaultMaxInputSize matches the largest document accepted for compression
const DefaultMaxInputSize = 100 << 20

// Config holds CLI configuration for tinypdf.
type Config struct {
	Mode       string
	Preset     string
	Resolution *int
	Quality    *float64
	Grayscale  bool
	Optimize   bool
	Password   string

	OutputDir    string
	Workers      int
	YieldEvery   int
	MaxPixels    int
	MaxInputSize int64

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeAuto,
		Preset:       settings.DefaultPreset,
		Workers:      0, // one per CPU
		YieldEvery:   5,
		MaxPixels:    0,
		MaxInputSize: DefaultMaxInputSize,
		LogLevel:     "info",
	}
}

// Choice returns the settings derivation selected by the configuration. In
// custom mode a resolution or quality that was never given is taken from the
// preset. Given values are passed on unchanged, so out of range values are
// rejected by the resolver.
func (c *Config) Choice() settings.Choice {
	mode := c.Mode
	if mode == ModeAuto {
		mode = ModePreset
		if c.Resolution != nil || c.Quality != nil {
			mode = ModeCustom
		}
	}

	if mode == ModePreset {
		return settings.PresetChoice{Name: c.Preset}
	}

	var custom settings.CustomChoice
	if p, err := settings.Lookup(c.Preset); err == nil {
		custom = settings.CustomChoice{Resolution: p.Resolution, Quality: p.Quality}
	}
	if c.Resolution != nil {
		custom.Resolution = *c.Resolution
	}
	if c.Quality != nil {
		custom.Quality = *c.Quality
	}
	return custom
}

// Settings resolves the compression settings for a run
func (c *Config) Settings() (settings.Settings, error) {
	return settings.Resolve(c.Choice())
}

// Level returns the configured log level
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAuto, ModePreset, ModeCustom:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModePreset, ModeCustom, c.Mode)
	}

	if _, err := c.Settings(); err != nil {
		return err
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("max pixels must not be negative")
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("max input size must be positive")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// configSetter applies configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setOptionalInt sets an int pointer if present and flag not changed. Zero
// and negative values are kept so validation can reject them.
func (s *configSetter) setOptionalInt(flag string, value *int, dst **int) {
	if value == nil || s.changed[flag] {
		return
	}
	v := *value
	*dst = &v
}

// setOptionalFloat sets a float64 pointer if present and flag not changed.
func (s *configSetter) setOptionalFloat(flag string, value *float64, dst **float64) {
	if value == nil || s.changed[flag] {
		return
	}
	v := *value
	*dst = &v
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBytes parses a human readable size such as "50MiB".
func (s *configSetter) setBytes(flag, value string, dst *int64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = int64(n)
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setOptionalIntFromString parses a string to int and records it as given,
// whatever its sign.
func (s *configSetter) setOptionalIntFromString(flag, value string, dst **int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = &i
	return nil
}

// setOptionalFloatFromString parses a string to float64 and records it as given.
func (s *configSetter) setOptionalFloatFromString(flag, value string, dst **float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = &f
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
