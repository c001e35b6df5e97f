package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (TINYPDF_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("mode", os.Getenv("TINYPDF_MODE"), &cfg.Mode)
	s.setString("preset", os.Getenv("TINYPDF_PRESET"), &cfg.Preset)
	s.setString("output-dir", os.Getenv("TINYPDF_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("log-level", os.Getenv("TINYPDF_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("password", os.Getenv("TINYPDF_PASSWORD"), &cfg.Password)

	if err := s.setOptionalIntFromString("dpi", os.Getenv("TINYPDF_RESOLUTION"), &cfg.Resolution); err != nil {
		return err
	}
	if err := s.setOptionalFloatFromString("quality", os.Getenv("TINYPDF_QUALITY"), &cfg.Quality); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("TINYPDF_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setIntFromString("yield-every", os.Getenv("TINYPDF_YIELD_EVERY"), &cfg.YieldEvery); err != nil {
		return err
	}
	if err := s.setIntFromString("max-pixels", os.Getenv("TINYPDF_MAX_PIXELS"), &cfg.MaxPixels); err != nil {
		return err
	}
	if err := s.setBytes("max-input-size", os.Getenv("TINYPDF_MAX_INPUT_SIZE"), &cfg.MaxInputSize); err != nil {
		return err
	}

	s.setBoolFromString("grayscale", os.Getenv("TINYPDF_GRAYSCALE"), &cfg.Grayscale)
	s.setBoolFromString("optimize", os.Getenv("TINYPDF_OPTIMIZE"), &cfg.Optimize)

	return nil
}
