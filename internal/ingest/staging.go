package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
	"github.com/bryanbarcelona/brybox/internal/ingest/interfaces"
	"github.com/bryanbarcelona/brybox/internal/ingest/options"
	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// primaryExts are the extensions treated as primary image assets.
var primaryExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".heic": true,
	".heif": true,
	".png":  true,
}

// isPrimaryAsset reports whether a filename names a primary image asset
// rather than a system file or sidecar.
func isPrimaryAsset(name string) bool {
	if strings.HasPrefix(name, "._") {
		return false
	}
	return primaryExts[strings.ToLower(filepath.Ext(name))]
}

// generateTempName builds a collision-safe staging filename keeping the
// original extension, e.g. "IMG_1704452123456abcd1234.HEIC".
func generateTempName(originalPath string) string {
	millis := time.Now().UnixMilli()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("IMG_%d%s%s", millis, suffix, filepath.Ext(originalPath))
}

// stageFiles copies every primary asset in the source directory (and its
// sidecars, when enabled) into the target directory under temporary names.
// Each staged family is recorded as a mapping for the later phases. A copy
// that fails verification or a sidecar whose name cannot be categorized
// aborts the phase: originals are untouched during staging, so stopping
// early is always safe. Any other per-file failure is counted, its partial
// copies removed, and the loop continues.
func (pp *PixelPorter) stageFiles(ctx context.Context, opts options.PushOptions, result *types.PushResult) ([]types.StagingMapping, error) {
	matcher := pp.loadIgnoreMatcher(opts)

	entries, err := os.ReadDir(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", opts.SourceDir, err)
	}

	var mappings []types.StagingMapping
	for _, entry := range entries {
		if err := pp.validationUtils.ValidateContextCancellation(ctx); err != nil {
			return mappings, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		sourcePath := filepath.Join(opts.SourceDir, name)

		if matcher != nil && matcher.MatchesPath(name) {
			slog.Debug("Skipping ignored file", "path", sourcePath)
			result.Skipped++
			continue
		}
		if !isPrimaryAsset(name) {
			result.Skipped++
			continue
		}

		mapping, err := pp.stageOne(ctx, sourcePath, opts)
		if err != nil {
			if ctx.Err() != nil {
				return mappings, ctx.Err()
			}
			pp.unstage(ctx, mapping)
			if errors.Is(err, common.ErrCopyVerification) || errors.Is(err, common.ErrUnrecognizedPattern) {
				slog.Error("Aborting staging", "path", sourcePath, "error", err)
				return mappings, fmt.Errorf("staging aborted at %s: %w", name, err)
			}
			slog.Error("Failed to stage file", "path", sourcePath, "error", err)
			result.RecordFailure(fmt.Sprintf("%s: %v", name, err))
			continue
		}
		mappings = append(mappings, mapping)
	}

	return mappings, nil
}

// stageOne stages a single primary asset and its sidecars. Sidecars go
// first so a failed primary copy never leaves an image without its
// companions. The returned mapping lists whatever was staged, even on
// error, so the caller can clean up.
func (pp *PixelPorter) stageOne(ctx context.Context, sourcePath string, opts options.PushOptions) (types.StagingMapping, error) {
	tempName := generateTempName(sourcePath)
	tempStem := strings.TrimSuffix(tempName, filepath.Ext(tempName))

	mapping := types.StagingMapping{
		Source:     sourcePath,
		StagedPath: filepath.Join(opts.TargetDir, tempName),
	}

	copyOpts := options.DefaultCopyOptions()
	copyOpts.DryRun = opts.DryRun

	if opts.MigrateSidecars {
		renames, err := pp.resolver.PlanRenames(sourcePath, tempStem)
		if err != nil {
			return mapping, fmt.Errorf("failed to plan sidecar renames: %w", err)
		}
		for _, rename := range renames {
			stagedSidecar := filepath.Join(opts.TargetDir, rename.NewName)
			if err := pp.fileOps.CopyFile(ctx, rename.Original, stagedSidecar, copyOpts); err != nil {
				return mapping, fmt.Errorf("failed to stage sidecar %s: %w", rename.Original, err)
			}
			mapping.StagedSidecars = append(mapping.StagedSidecars, stagedSidecar)
			if !opts.DryRun {
				pp.publishCopied(rename.Original, stagedSidecar,
					pp.fileOps.FileSize(rename.Original), pp.fileOps.FileSize(stagedSidecar),
					pp.fileOps.IsHealthy(rename.Original), pp.fileOps.IsHealthy(stagedSidecar))
				slog.Info("Staged sidecar", "src", rename.Original, "dst", stagedSidecar)
			}
		}
	}

	if err := pp.fileOps.CopyFile(ctx, sourcePath, mapping.StagedPath, copyOpts); err != nil {
		return mapping, fmt.Errorf("failed to stage image: %w", err)
	}

	if opts.DryRun {
		slog.Info("Dry run: would stage image",
			"src", sourcePath, "dst", mapping.StagedPath, "sidecars", len(mapping.StagedSidecars))
	} else {
		pp.publishCopied(sourcePath, mapping.StagedPath,
			pp.fileOps.FileSize(sourcePath), pp.fileOps.FileSize(mapping.StagedPath),
			pp.fileOps.IsHealthy(sourcePath), pp.fileOps.IsHealthy(mapping.StagedPath))
		slog.Info("Staged image",
			"src", sourcePath, "dst", mapping.StagedPath, "sidecars", len(mapping.StagedSidecars))
	}

	return mapping, nil
}

// unstage removes the partial results of a failed staging attempt so the
// target directory never accumulates orphans.
func (pp *PixelPorter) unstage(ctx context.Context, mapping types.StagingMapping) {
	paths := append([]string{}, mapping.StagedSidecars...)
	if mapping.StagedPath != "" {
		paths = append(paths, mapping.StagedPath)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		size := pp.fileOps.FileSize(path)
		if err := pp.fileOps.DeleteFile(ctx, path); err != nil {
			slog.Warn("Failed to remove partially staged file", "path", path, "error", err)
			continue
		}
		pp.publishDeleted(path, size)
	}
}

// loadIgnoreMatcher compiles the gitignore-style skip list from the source
// directory. A missing or empty ignore file disables matching.
func (pp *PixelPorter) loadIgnoreMatcher(opts options.PushOptions) interfaces.IgnoreChecker {
	if opts.IgnoreFile == "" {
		return nil
	}

	ignorePath := filepath.Join(opts.SourceDir, opts.IgnoreFile)
	if _, err := os.Stat(ignorePath); err != nil {
		return nil
	}

	matcher, err := ignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		slog.Warn("Failed to parse ignore file", "path", ignorePath, "error", err)
		return nil
	}

	slog.Debug("Loaded ignore file", "path", ignorePath)
	return matcher
}
