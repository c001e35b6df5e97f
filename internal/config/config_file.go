package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config with sizes as strings so they can be written
// like "50MiB". The same keys are used for TOML and YAML files.
type FileConfig struct {
	Mode         string   `toml:"mode" yaml:"mode"`
	Preset       string   `toml:"preset" yaml:"preset"`
	Resolution   *int     `toml:"resolution" yaml:"resolution"`
	Quality      *float64 `toml:"quality" yaml:"quality"`
	Grayscale    *bool    `toml:"grayscale" yaml:"grayscale"`
	Optimize     *bool    `toml:"optimize" yaml:"optimize"`
	OutputDir    string   `toml:"output_dir" yaml:"output_dir"`
	Workers      int      `toml:"workers" yaml:"workers"`
	YieldEvery   int      `toml:"yield_every" yaml:"yield_every"`
	MaxPixels    int      `toml:"max_pixels" yaml:"max_pixels"`
	MaxInputSize string   `toml:"max_input_size" yaml:"max_input_size"`
	LogLevel     string   `toml:"log_level" yaml:"log_level"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.tinypdf/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".tinypdf", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("mode", fc.Mode, &cfg.Mode)
	s.setString("preset", fc.Preset, &cfg.Preset)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setOptionalInt("dpi", fc.Resolution, &cfg.Resolution)
	s.setOptionalFloat("quality", fc.Quality, &cfg.Quality)
	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setInt("yield-every", fc.YieldEvery, &cfg.YieldEvery)
	s.setInt("max-pixels", fc.MaxPixels, &cfg.MaxPixels)

	if err := s.setBytes("max-input-size", fc.MaxInputSize, &cfg.MaxInputSize); err != nil {
		return err
	}

	s.setBool("grayscale", fc.Grayscale, &cfg.Grayscale)
	s.setBool("optimize", fc.Optimize, &cfg.Optimize)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
