package fileops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
	"github.com/bryanbarcelona/brybox/internal/ingest/options"
)

// FileOps provides the low-level file system operations behind the ingest
// pipeline: verified copies, deletes and directory creation.
type FileOps struct {
	metrics         *common.FileOperationMetrics
	healthUtils     *common.HealthUtils
	validationUtils *common.ValidationUtils
}

// NewFileOps creates a new file operations instance
func NewFileOps() *FileOps {
	return &FileOps{
		metrics:         &common.FileOperationMetrics{},
		healthUtils:     common.NewHealthUtils(),
		validationUtils: common.NewValidationUtils(),
	}
}

// CopyFile copies a single file, optionally preserving attributes and
// verifying the result. A failed verification removes the partial
// destination and returns an error wrapping common.ErrCopyVerification.
func (fo *FileOps) CopyFile(ctx context.Context, srcPath, dstPath string, opts options.CopyOptions) error {
	start := time.Now()

	if opts.DryRun {
		slog.Info("Dry run: would copy file", "src", srcPath, "dst", dstPath)
		return nil
	}

	if err := fo.validationUtils.ValidateContextCancellation(ctx); err != nil {
		return err
	}

	bytesCopied, err := fo.performFileCopy(ctx, srcPath, dstPath)
	if err != nil {
		fo.metrics.UpdateMetrics(start, false, 0)
		return fmt.Errorf("failed to copy file from %s to %s: %w", srcPath, dstPath, err)
	}

	if opts.PreservePerms || opts.PreserveTimes {
		if err := fo.copyFileAttributes(srcPath, dstPath, opts.PreservePerms, opts.PreserveTimes); err != nil {
			slog.Warn("Failed to copy file attributes", "error", err)
		}
	}

	if opts.Verify {
		if err := fo.verifyCopy(srcPath, dstPath); err != nil {
			if rmErr := os.Remove(dstPath); rmErr != nil && !os.IsNotExist(rmErr) {
				slog.Warn("Failed to remove unverified copy", "path", dstPath, "error", rmErr)
			}
			fo.metrics.UpdateMetrics(start, false, 0)
			return err
		}
	}

	fo.metrics.UpdateMetrics(start, true, bytesCopied)
	return nil
}

// DeleteFile deletes a single file
func (fo *FileOps) DeleteFile(ctx context.Context, path string) error {
	start := time.Now()

	if err := fo.validationUtils.ValidateContextCancellation(ctx); err != nil {
		return err
	}

	if err := fo.validationUtils.ValidateRequiredString(path, "path"); err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		fo.metrics.UpdateMetrics(start, false, 0)
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("failed to access file: %w", err)
	}

	if err := os.Remove(path); err != nil {
		fo.metrics.UpdateMetrics(start, false, 0)
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	fo.metrics.UpdateMetrics(start, true, 0)
	return nil
}

// CreateDirectory creates a directory with the specified permissions
func (fo *FileOps) CreateDirectory(ctx context.Context, path string, perms os.FileMode) error {
	if err := fo.validationUtils.ValidateContextCancellation(ctx); err != nil {
		return err
	}

	if err := fo.validationUtils.ValidateRequiredString(path, "path"); err != nil {
		return err
	}

	if err := os.MkdirAll(path, perms); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// IsHealthy reports whether a file passes the structural health probe.
func (fo *FileOps) IsHealthy(path string) bool {
	return fo.healthUtils.IsHealthy(path)
}

// FileSize returns the on-disk size of a file, or 0 when it cannot be read.
func (fo *FileOps) FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// GetMetrics returns performance metrics
func (fo *FileOps) GetMetrics() map[string]interface{} {
	return fo.metrics.GetMetrics()
}

// Private helper methods

func (fo *FileOps) performFileCopy(ctx context.Context, srcPath, dstPath string) (int64, error) {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	// Create destination directory if it doesn't exist
	dstDir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	bytesCopied, err := fo.copyWithCancellation(ctx, dstFile, srcFile)
	if err != nil {
		return bytesCopied, fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return bytesCopied, fmt.Errorf("failed to flush destination file: %w", err)
	}

	return bytesCopied, nil
}

func (fo *FileOps) copyWithCancellation(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buffer := make([]byte, 32*1024) // 32KB buffer
	var totalBytes int64

	for {
		select {
		case <-ctx.Done():
			return totalBytes, ctx.Err()
		default:
		}

		n, readErr := src.Read(buffer)
		if n > 0 {
			if _, writeErr := dst.Write(buffer[:n]); writeErr != nil {
				return totalBytes, writeErr
			}
			totalBytes += int64(n)
		}

		if readErr != nil {
			if readErr == io.EOF {
				return totalBytes, nil
			}
			return totalBytes, readErr
		}
	}
}

func (fo *FileOps) copyFileAttributes(srcPath, dstPath string, preservePerms, preserveTimes bool) error {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("failed to stat source %s: %w", srcPath, err)
	}

	if preservePerms {
		if err := os.Chmod(dstPath, srcInfo.Mode()); err != nil {
			return fmt.Errorf("failed to set permissions on %s: %w", dstPath, err)
		}
	}

	if preserveTimes {
		if err := os.Chtimes(dstPath, time.Now(), srcInfo.ModTime()); err != nil {
			return fmt.Errorf("failed to set times on %s: %w", dstPath, err)
		}
	}

	return nil
}

func (fo *FileOps) verifyCopy(srcPath, dstPath string) error {
	if _, err := os.Stat(dstPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: destination missing at %s", common.ErrCopyVerification, dstPath)
		}
		return fmt.Errorf("failed to stat copy destination: %w", err)
	}
	same, err := fo.healthUtils.SameSize(srcPath, dstPath)
	if err != nil {
		return fmt.Errorf("failed to compare copy sizes: %w", err)
	}
	if !same {
		return fmt.Errorf("%w: size mismatch between %s and %s", common.ErrCopyVerification, srcPath, dstPath)
	}
	if !fo.healthUtils.IsHealthy(dstPath) {
		return fmt.Errorf("%w: unhealthy copy at %s", common.ErrCopyVerification, dstPath)
	}
	return nil
}
