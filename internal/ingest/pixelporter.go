// Package ingest implements the staged photo ingestion pipeline: collision
// safe staging of primary images and their sidecars, content-based
// deduplication, capture-timestamp conflict resolution and an optional
// per-file processing step. Completed operations are reported through the
// event bus so a DirectoryVerifier can confirm the final filesystem state.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/bryanbarcelona/brybox/internal/events"
	"github.com/bryanbarcelona/brybox/internal/ingest/common"
	"github.com/bryanbarcelona/brybox/internal/ingest/fileops"
	"github.com/bryanbarcelona/brybox/internal/ingest/interfaces"
	"github.com/bryanbarcelona/brybox/internal/ingest/options"
	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// PixelPorter orchestrates photo ingestion from a source directory into a
// target directory in phases: staging, deduplication, timestamp resolution
// and processing.
type PixelPorter struct {
	bus             *events.Bus
	fileOps         *fileops.FileOps
	resolver        interfaces.SidecarResolver
	dedup           interfaces.Deduplicator
	timestamps      interfaces.TimestampTool
	processor       interfaces.FileProcessor
	validationUtils *common.ValidationUtils
}

// NewPixelPorter wires an ingestion pipeline. The bus may be nil when no
// verification is wanted. dedup, timestamps and processor may each be nil;
// the corresponding phase is skipped with a notice.
func NewPixelPorter(
	bus *events.Bus,
	resolver interfaces.SidecarResolver,
	dedup interfaces.Deduplicator,
	timestamps interfaces.TimestampTool,
	processor interfaces.FileProcessor,
) *PixelPorter {
	return &PixelPorter{
		bus:             bus,
		fileOps:         fileops.NewFileOps(),
		resolver:        resolver,
		dedup:           dedup,
		timestamps:      timestamps,
		processor:       processor,
		validationUtils: common.NewValidationUtils(),
	}
}

// Push runs the ingestion pipeline. The returned result is always non-nil
// and carries whatever was counted before an early abort.
func (pp *PixelPorter) Push(ctx context.Context, opts options.PushOptions) (*types.PushResult, error) {
	result := &types.PushResult{StartedAt: time.Now()}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	if err := pp.validationUtils.ValidateRequiredString(opts.SourceDir, "source directory"); err != nil {
		return result, err
	}
	if err := pp.validationUtils.ValidateRequiredString(opts.TargetDir, "target directory"); err != nil {
		return result, err
	}
	if err := pp.validationUtils.ValidateSourceDir(opts.SourceDir); err != nil {
		slog.Error("Source directory not usable", "path", opts.SourceDir, "error", err)
		return result, err
	}

	slog.Info("Processing photos",
		"source", opts.SourceDir,
		"target", opts.TargetDir,
		"dry_run", opts.DryRun)

	if !opts.DryRun {
		if err := pp.fileOps.CreateDirectory(ctx, opts.TargetDir, 0o755); err != nil {
			return result, err
		}
	}

	// Phase 1: stage everything under collision-safe temporary names.
	mappings, err := pp.stageFiles(ctx, opts, result)
	if err != nil {
		return result, err
	}

	// Phase 2a: drop byte-identical staged copies.
	if pp.dedup != nil {
		mappings, err = pp.removeDuplicates(ctx, mappings, opts.DryRun, result)
		if err != nil {
			return result, err
		}
	} else {
		slog.Info("No deduplicator configured, skipping duplicate removal")
	}

	// Phase 2b: make capture timestamps unique.
	if opts.UniqueTimestamps {
		if pp.timestamps != nil {
			pp.fixOverlappingTimestamps(ctx, mappings, opts.DryRun, result)
		} else {
			slog.Warn("No timestamp tool available, skipping timestamp uniqueness")
		}
	}

	// Phase 3: hand surviving staged files to the processor.
	if pp.processor != nil && !opts.DryRun {
		pp.processAndCleanup(ctx, mappings, result)
	} else {
		if pp.processor != nil {
			slog.Info("Dry run: would process staged files", "count", len(mappings))
		} else {
			slog.Info("No processor provided, files remain staged with temp names")
		}
		result.Processed = len(mappings)
	}

	pp.logSummary(opts.DryRun, result)
	return result, nil
}

func (pp *PixelPorter) logSummary(dryRun bool, result *types.PushResult) {
	slog.Info("Push summary",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"duplicates_removed", result.DuplicatesRemoved,
		"failed", result.Failed,
		"duration", time.Since(result.StartedAt))

	if result.Failed > 0 {
		slog.Warn("Errors occurred during push", "count", result.Failed)
		for i, msg := range result.Errors {
			if i == 5 {
				slog.Warn("Additional errors omitted", "count", len(result.Errors)-5)
				break
			}
			slog.Warn("Push error", "error", msg)
		}
	}

	if dryRun {
		slog.Info("Dry run complete, disable dry run to apply changes")
	}
}

// Event helpers. Publishers only emit events for operations that actually
// completed, so simulated and failed operations stay silent.

func (pp *PixelPorter) publishCopied(source, destination string, sourceSize, destinationSize int64, sourceHealthy, destinationHealthy bool) {
	if pp.bus == nil {
		return
	}
	evt, err := events.NewFileCopied(source, destination, sourceSize, destinationSize, sourceHealthy, destinationHealthy)
	if err != nil {
		slog.Warn("Dropping invalid copy event", "error", err)
		return
	}
	pp.bus.Publish(evt)
}

func (pp *PixelPorter) publishDeleted(path string, size int64) {
	if pp.bus == nil {
		return
	}
	evt, err := events.NewFileDeleted(path, size)
	if err != nil {
		slog.Warn("Dropping invalid delete event", "error", err)
		return
	}
	pp.bus.Publish(evt)
}

func (pp *PixelPorter) publishMoved(source, destination string, size int64, healthy bool) {
	if pp.bus == nil {
		return
	}
	evt, err := events.NewFileMoved(source, destination, size, healthy)
	if err != nil {
		slog.Warn("Dropping invalid move event", "error", err)
		return
	}
	pp.bus.Publish(evt)
}
