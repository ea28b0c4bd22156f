package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

const timeDisplayLayout = "2006:01:02 15:04:05"

// fixOverlappingTimestamps nudges EXIF capture times forward by one second
// at a time until no two staged files share the same second. Earlier files
// in staging order keep their original timestamps; later colliders move.
func (pp *PixelPorter) fixOverlappingTimestamps(ctx context.Context, mappings []types.StagingMapping, dryRun bool, result *types.PushResult) {
	if dryRun {
		slog.Info("Dry run: skipping timestamp adjustments")
		slog.Info("Dry run: EXIF dates are only rewritten on real runs")
		return
	}
	if len(mappings) == 0 {
		return
	}

	captured := make(map[string]time.Time, len(mappings))
	order := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		if err := pp.validationUtils.ValidateContextCancellation(ctx); err != nil {
			slog.Warn("Timestamp phase aborted", "error", err)
			return
		}

		ts, err := pp.timestamps.ReadDateTimeOriginal(ctx, mapping.StagedPath)
		if err != nil {
			if errors.Is(err, common.ErrNoTimestamp) {
				slog.Warn("No capture timestamp, skipping", "path", mapping.StagedPath)
			} else {
				slog.Warn("Could not read EXIF date", "path", mapping.StagedPath, "error", err)
				result.RecordFailure(fmt.Sprintf("%s: %v", filepath.Base(mapping.StagedPath), err))
			}
			continue
		}

		captured[mapping.StagedPath] = ts
		order = append(order, mapping.StagedPath)
	}

	if len(captured) == 0 {
		slog.Warn("No EXIF dates found to process")
		return
	}

	seen := make(map[int64]struct{}, len(captured))
	adjusted := 0
	for _, path := range order {
		original := captured[path]
		ts := original
		for {
			if _, taken := seen[ts.Unix()]; !taken {
				break
			}
			ts = ts.Add(time.Second)
		}
		seen[ts.Unix()] = struct{}{}

		if ts.Equal(original) {
			continue
		}

		if err := pp.timestamps.WriteAllDates(ctx, path, ts); err != nil {
			slog.Error("Failed to write adjusted dates", "path", path, "error", err)
			result.RecordFailure(fmt.Sprintf("%s: %v", filepath.Base(path), err))
			continue
		}

		slog.Info("Adjusted timestamp",
			"path", path,
			"from", original.Format(timeDisplayLayout),
			"to", ts.Format(timeDisplayLayout))
		adjusted++
	}

	slog.Info("Timestamp uniqueness pass complete", "scanned", len(captured), "adjusted", adjusted)
}
