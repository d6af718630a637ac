// Package validation checks input and output paths before the pipeline
// spends any remote calls.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "ndxcli/internal/errors"
)

// FileValidator provides pre-flight file checks for the command line tool
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is an existing, readable regular file.
// Missing paths and directories are NotFoundErrors; Excel lock files are
// FormatErrors.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewNotFoundError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewNotFoundError(path, fmt.Errorf("%s is a directory", path))
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return apperrors.NewFormatError(fmt.Sprintf("%s is a temporary Excel file", path), nil)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewNotFoundError(path, err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputPath ensures the parent directory of path exists and is
// writable. An empty path is accepted.
func (v *FileValidator) ValidateOutputPath(path string) error {
	if path == "" {
		return nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output path validated",
		slog.String("path", path))
	return nil
}

// ValidateRun checks both inputs and every non-empty output path, returning
// the first failure.
func (v *FileValidator) ValidateRun(inputs []string, outputs []string) error {
	for _, in := range inputs {
		if err := v.ValidateInputFile(in); err != nil {
			return err
		}
	}
	for _, out := range outputs {
		if err := v.ValidateOutputPath(out); err != nil {
			return err
		}
	}
	return nil
}
