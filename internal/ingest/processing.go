package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// processAndCleanup runs the configured processor over every surviving
// staged file. A file only counts as processed when the processor reports
// success, the output passes its health check, and the output exists on
// disk; only then are the source image and its sidecars removed.
func (pp *PixelPorter) processAndCleanup(ctx context.Context, mappings []types.StagingMapping, result *types.PushResult) {
	if len(mappings) == 0 {
		slog.Info("No files to process")
		return
	}

	slog.Info("Processing staged files", "count", len(mappings))

	for _, mapping := range mappings {
		if err := pp.validationUtils.ValidateContextCancellation(ctx); err != nil {
			slog.Warn("Processing aborted", "error", err)
			return
		}

		if err := pp.processOne(ctx, mapping); err != nil {
			slog.Error("Processing failed", "path", mapping.StagedPath, "error", err)
			result.RecordFailure(fmt.Sprintf("%s: %v", filepath.Base(mapping.StagedPath), err))
			continue
		}
		result.Processed++
	}

	if result.Failed > 0 {
		slog.Warn("Processing completed with failures", "failed", result.Failed)
	}
}

func (pp *PixelPorter) processOne(ctx context.Context, mapping types.StagingMapping) error {
	stagedSize := pp.fileOps.FileSize(mapping.StagedPath)

	if err := pp.processor.Open(mapping.StagedPath); err != nil {
		return fmt.Errorf("failed to open staged file: %w", err)
	}

	procResult, err := pp.processor.Process()
	if err != nil {
		return fmt.Errorf("processor error: %w", err)
	}
	if !procResult.Success {
		msg := procResult.ErrorMessage
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("processing failed: %s", msg)
	}
	if !procResult.Healthy {
		return fmt.Errorf("health check failed for %s", procResult.TargetPath)
	}
	if _, err := os.Stat(procResult.TargetPath); err != nil {
		return fmt.Errorf("output file missing: %s", procResult.TargetPath)
	}

	// The staged temp is consumed: either the processor replaced it in
	// place or we remove the leftover here. Reporting the deletion before
	// the move lets a target path equal to the staged path net out.
	if procResult.TargetPath != mapping.StagedPath {
		if _, err := os.Stat(mapping.StagedPath); err == nil {
			if err := pp.fileOps.DeleteFile(ctx, mapping.StagedPath); err != nil {
				return fmt.Errorf("failed to remove staged temp: %w", err)
			}
		}
	}
	pp.publishDeleted(mapping.StagedPath, stagedSize)

	companions, err := pp.resolver.FindCompanions(mapping.Source)
	if err != nil {
		slog.Warn("Could not enumerate source sidecars", "path", mapping.Source, "error", err)
	}

	if err := pp.fileOps.DeleteFile(ctx, mapping.Source); err != nil {
		return fmt.Errorf("failed to remove source after processing: %w", err)
	}
	pp.publishMoved(mapping.Source, procResult.TargetPath, pp.fileOps.FileSize(procResult.TargetPath), procResult.Healthy)

	cleaned := 0
	for _, companion := range companions {
		size := pp.fileOps.FileSize(companion)
		if err := pp.fileOps.DeleteFile(ctx, companion); err != nil {
			slog.Warn("Could not remove source sidecar", "path", companion, "error", err)
			continue
		}
		pp.publishDeleted(companion, size)
		cleaned++
	}

	slog.Info("Processed", "source", mapping.Source, "target", procResult.TargetPath, "sidecars_cleaned", cleaned)
	return nil
}
