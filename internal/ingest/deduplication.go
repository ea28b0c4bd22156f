package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// removeDuplicates drops byte-identical staged copies, keeping the first
// staged file of every fingerprint group. Real runs fingerprint the staged
// copies (the bytes that actually landed); dry runs fingerprint the sources
// they were planned from. Returns the mappings that survive.
func (pp *PixelPorter) removeDuplicates(ctx context.Context, mappings []types.StagingMapping, dryRun bool, result *types.PushResult) ([]types.StagingMapping, error) {
	if len(mappings) < 2 {
		return mappings, nil
	}

	paths := make([]string, len(mappings))
	byPath := make(map[string]int, len(mappings))
	for i, mapping := range mappings {
		path := mapping.StagedPath
		if dryRun {
			path = mapping.Source
		}
		paths[i] = path
		byPath[path] = i
	}

	groups, err := pp.dedup.GroupByFingerprint(ctx, paths)
	if err != nil {
		return mappings, fmt.Errorf("deduplication failed: %w", err)
	}

	keep := make(map[int]bool, len(mappings))
	for _, group := range groups {
		if len(group.Paths) == 0 {
			continue
		}
		keep[byPath[group.Paths[0]]] = true

		for _, dupPath := range group.Paths[1:] {
			idx := byPath[dupPath]

			if dryRun {
				slog.Info("Dry run: would delete duplicate", "path", mappings[idx].StagedPath)
				result.DuplicatesRemoved++
				continue
			}

			if err := pp.deleteStagedDuplicate(ctx, mappings[idx]); err != nil {
				if ctx.Err() != nil {
					return mappings, ctx.Err()
				}
				slog.Error("Failed to delete duplicate", "path", dupPath, "error", err)
				result.RecordFailure(fmt.Sprintf("%s: %v", filepath.Base(dupPath), err))
				continue
			}

			slog.Info("Deleted duplicate", "path", dupPath)
			result.DuplicatesRemoved++
		}
	}

	// Paths the scan could not fingerprint appear in no group; they pass
	// through as unique rather than silently dropping out of the pipeline.
	grouped := make(map[string]bool, len(mappings))
	for _, group := range groups {
		for _, path := range group.Paths {
			grouped[path] = true
		}
	}

	kept := make([]types.StagingMapping, 0, len(mappings))
	for i, mapping := range mappings {
		if keep[i] || !grouped[paths[i]] {
			kept = append(kept, mapping)
		}
	}

	if result.DuplicatesRemoved > 0 {
		slog.Info("Removed duplicates", "count", result.DuplicatesRemoved, "dry_run", dryRun)
	}

	return kept, nil
}

// deleteStagedDuplicate removes one staged duplicate and its staged
// sidecars, reporting each deletion on the bus.
func (pp *PixelPorter) deleteStagedDuplicate(ctx context.Context, mapping types.StagingMapping) error {
	size := pp.fileOps.FileSize(mapping.StagedPath)
	if err := pp.fileOps.DeleteFile(ctx, mapping.StagedPath); err != nil {
		return err
	}
	pp.publishDeleted(mapping.StagedPath, size)

	for _, sidecar := range mapping.StagedSidecars {
		if _, err := os.Stat(sidecar); err != nil {
			continue
		}
		size := pp.fileOps.FileSize(sidecar)
		if err := pp.fileOps.DeleteFile(ctx, sidecar); err != nil {
			return err
		}
		pp.publishDeleted(sidecar, size)
	}

	return nil
}
