// Package batch compresses PDF files on disk, one compression run per file.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alde/tinypdf/internal/worker"
	"github.com/alde/tinypdf/pkg/compressor"
	"github.com/alde/tinypdf/pkg/merge"
	"github.com/alde/tinypdf/pkg/settings"
)

// FileCompressor reads a document, compresses it and writes the result
type FileCompressor struct {
	Compressor   *compressor.Compressor
	Settings     settings.Settings
	Password     string
	MaxInputSize int64
	// Optimize runs a lossless structural optimization over the output
	Optimize  bool
	OutputDir string
	Logger    zerolog.Logger
}

// FileResult is the outcome of compressing one file
type FileResult struct {
	InputPath  string
	OutputPath string
	*compressor.RunResult
}

// OutputPath returns where the compressed version of inputPath is written
func (f *FileCompressor) OutputPath(inputPath string) string {
	name := compressor.OutputName(inputPath)
	if f.OutputDir == "" {
		return name
	}
	return filepath.Join(f.OutputDir, filepath.Base(name))
}

// CompressFile compresses inputPath into outputPath. An empty outputPath
// selects OutputPath(inputPath). Nothing is written when the run fails.
func (f *FileCompressor) CompressFile(ctx context.Context, inputPath, outputPath string, onProgress compressor.ProgressFunc) (*FileResult, error) {
	if outputPath == "" {
		outputPath = f.OutputPath(inputPath)
	}

	if err := f.validateInput(inputPath); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	result, err := f.Compressor.Compress(ctx, compressor.RunRequest{
		Source:   source,
		Settings: f.Settings,
		Password: f.Password,
	}, onProgress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(inputPath), err)
	}

	if f.Optimize {
		optimized, err := merge.Optimize(result.Output)
		if err != nil {
			f.Logger.Warn().Err(err).Str("file", inputPath).Msg("optimization skipped")
		} else {
			result.Output = optimized
			result.CompressedSize = len(optimized)
		}
	}

	if err := WriteFileAtomic(outputPath, result.Output); err != nil {
		return nil, err
	}

	f.Logger.Info().
		Str("input", inputPath).
		Str("output", outputPath).
		Int("pages", result.PageCount).
		Str("savings", result.SavingsText()).
		Msg("file compressed")

	return &FileResult{InputPath: inputPath, OutputPath: outputPath, RunResult: result}, nil
}

func (f *FileCompressor) validateInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input is a directory: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return fmt.Errorf("unsupported input format: %s (only .pdf is supported)", ext)
	}

	if f.MaxInputSize > 0 && info.Size() > f.MaxInputSize {
		return fmt.Errorf("%s: %w (%d bytes, limit %d)", filepath.Base(path), compressor.ErrInputTooLarge, info.Size(), f.MaxInputSize)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial document
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tinypdf-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Job compresses a single file inside a worker pool
type Job struct {
	files  *FileCompressor
	input  string
	result *FileResult
}

// NewJob creates a job for inputPath
func NewJob(files *FileCompressor, inputPath string) *Job {
	return &Job{files: files, input: inputPath}
}

func (j *Job) ID() string { return j.input }

func (j *Job) Process(ctx context.Context) error {
	result, err := j.files.CompressFile(ctx, j.input, "", nil)
	if err != nil {
		return err
	}
	j.result = result
	return nil
}

// Result returns the outcome once Process succeeded
func (j *Job) Result() *FileResult { return j.result }

// Outcome pairs an input with its result or error
type Outcome struct {
	InputPath string
	Result    *FileResult
	Err       error
}

// Run compresses every input using a worker pool. Outcomes are returned in
// input order.
func (f *FileCompressor) Run(ctx context.Context, workers int, observer worker.Observer, inputs []string) []Outcome {
	jobs := make([]worker.Job, 0, len(inputs))
	byInput := make(map[string]*Job, len(inputs))
	for _, in := range UniquePaths(inputs) {
		job := NewJob(f, in)
		jobs = append(jobs, job)
		byInput[in] = job
	}

	results := worker.Run(ctx, workers, observer, jobs)

	outcomes := make([]Outcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, Outcome{
			InputPath: r.JobID,
			Result:    byInput[r.JobID].Result(),
			Err:       r.Error,
		})
	}
	return outcomes
}

// UniquePaths cleans paths and drops repeats, keeping the first occurrence.
// Run compresses exactly this list.
func UniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		unique = append(unique, clean)
	}
	return unique
}
