package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alde/tinypdf/internal/config"
	"github.com/alde/tinypdf/internal/logging"
)

var (
	cfg      = config.DefaultConfig()
	cfgFile  string
	envFiles []string
	verbose  bool
	log      = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "tinypdf",
	Short: "Shrink and merge PDF files locally",
	Long: `TinyPDF is a CLI tool for making PDF files smaller and combining them,
without sending anything to a server.

Currently supports:
- Compressing PDFs by rasterizing every page to a JPEG image
- Merging PDFs without touching page content
- Exporting page images and watching folders for new PDFs`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command. SIGINT and SIGTERM cancel running work.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (TOML or YAML, default ~/.tinypdf/config.toml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Environment files to load (default .env)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// loadConfig layers config file and environment below explicitly set flags
func loadConfig(cmd *cobra.Command, _ []string) error {
	changed := make(map[string]bool)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
	})

	if err := config.LoadDotEnv(envFiles...); err != nil {
		return fmt.Errorf("failed to load environment file: %w", err)
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if path != "" && (changed["config"] || config.FileExists(path)) {
		fc, err := config.LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}
	}

	if err := config.ApplyEnvConfig(&cfg, changed); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.Level()
	log = logging.Stderr(level)
	log.Debug().Str("config", path).Interface("settings", cfg.Choice()).Msg("configuration loaded")

	return nil
}
