package events

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// VerifierStats reports the sizes of a verifier's tracked path sets and
// how many events of each kind it has absorbed.
type VerifierStats struct {
	InitialSourceFiles  int `json:"initial_source_files"`
	InitialTargetFiles  int `json:"initial_target_files"`
	ExpectedSourceFiles int `json:"expected_source_files"`
	ExpectedTargetFiles int `json:"expected_target_files"`
	CopiesTracked       int `json:"copies_tracked"`
	MovesTracked        int `json:"moves_tracked"`
	DeletionsTracked    int `json:"deletions_tracked"`
}

// DirectoryVerifier audits a batch of file operations after the fact. At
// construction it snapshots the source and target directories and subscribes
// to the three file-operation event types; every observed event mutates the
// expected state for the affected directory. Report then compares expected
// state against a fresh scan of the disk.
//
// Lifecycle: constructed (snapshots taken, subscriptions live) -> tracking
// (events accumulate) -> reported (any number of Report calls) -> closed.
// Close must run on every exit path - callers defer it immediately after
// construction - because a leaked subscription would keep mutating this
// verifier's state during later, unrelated runs. A DirectoryVerifier is not
// safe for concurrent use.
type DirectoryVerifier struct {
	bus       *Bus
	sourceDir string
	targetDir string

	initialSource  *PathSet
	initialTarget  *PathSet
	expectedSource *PathSet
	expectedTarget *PathSet

	copiesTracked    int
	movesTracked     int
	deletionsTracked int

	subs   []*Subscription
	closed bool
}

// NewDirectoryVerifier snapshots both directories and begins tracking
// events published on bus. A tracked directory that does not exist yet is
// created and treated as empty.
func NewDirectoryVerifier(bus *Bus, sourceDir, targetDir string) (*DirectoryVerifier, error) {
	if bus == nil {
		return nil, fmt.Errorf("directory verifier requires an event bus")
	}

	v := &DirectoryVerifier{
		bus:       bus,
		sourceDir: resolvePath(sourceDir),
		targetDir: resolvePath(targetDir),
	}

	var err error
	if v.initialSource, err = scanDirectory(v.sourceDir); err != nil {
		return nil, fmt.Errorf("snapshotting source directory: %w", err)
	}
	if v.initialTarget, err = scanDirectory(v.targetDir); err != nil {
		return nil, fmt.Errorf("snapshotting target directory: %w", err)
	}

	v.expectedSource = v.initialSource.Clone()
	v.expectedTarget = v.initialTarget.Clone()

	v.subs = []*Subscription{
		bus.Subscribe(EventFileMoved, v.handleFileMoved),
		bus.Subscribe(EventFileDeleted, v.handleFileDeleted),
		bus.Subscribe(EventFileCopied, v.handleFileCopied),
	}

	slog.Debug("Directory verifier tracking",
		"source", v.sourceDir,
		"target", v.targetDir,
		"source_files", v.initialSource.Len(),
		"target_files", v.initialTarget.Len())

	return v, nil
}

// handleFileMoved infers directory membership purely from path identity:
// the source leaves the expected source set and the destination joins the
// expected target set.
func (v *DirectoryVerifier) handleFileMoved(event Event) {
	e, ok := event.(*FileMoved)
	if !ok {
		return
	}
	destination := resolvePath(e.Destination)
	v.expectedSource.Remove(resolvePath(e.Source))
	v.expectedTarget.Add(destination)
	v.movesTracked++
	if !v.isTracked(destination) {
		slog.Warn("Moved destination falls outside tracked directories",
			"destination", destination,
			"source_dir", v.sourceDir,
			"target_dir", v.targetDir)
	}
}

// handleFileDeleted removes the path from both expected sets. Deletion may
// occur in either tree; removing from both is a safe over-approximation.
func (v *DirectoryVerifier) handleFileDeleted(event Event) {
	e, ok := event.(*FileDeleted)
	if !ok {
		return
	}
	path := resolvePath(e.Path)
	v.expectedSource.Remove(path)
	v.expectedTarget.Remove(path)
	v.deletionsTracked++
}

// handleFileCopied adds the destination to the expected target set. A copy
// leaves the original in place, so the source sets are untouched.
func (v *DirectoryVerifier) handleFileCopied(event Event) {
	e, ok := event.(*FileCopied)
	if !ok {
		return
	}
	v.expectedTarget.Add(resolvePath(e.Destination))
	v.copiesTracked++
}

// Report re-scans both directories and compares them against the expected
// state accumulated from events. It returns true only when neither
// directory has missing or unexpected files. The error covers scan
// failures; a mismatch is never an error. Each call re-scans disk, so
// repeated calls report current drift rather than the drift at first call.
func (v *DirectoryVerifier) Report() (bool, error) {
	sourceMissing, sourceUnexpected, err := v.verifyDirectory("source", v.sourceDir, v.expectedSource)
	if err != nil {
		return false, err
	}
	targetMissing, targetUnexpected, err := v.verifyDirectory("target", v.targetDir, v.expectedTarget)
	if err != nil {
		return false, err
	}

	if len(sourceMissing)+len(sourceUnexpected)+len(targetMissing)+len(targetUnexpected) == 0 {
		slog.Info("Directory verification passed",
			"source", v.sourceDir,
			"target", v.targetDir)
		return true, nil
	}

	slog.Warn("Directory verification failed",
		"source_missing", len(sourceMissing),
		"source_unexpected", len(sourceUnexpected),
		"target_missing", len(targetMissing),
		"target_unexpected", len(targetUnexpected))
	return false, nil
}

// verifyDirectory compares the expected set for one directory against a
// fresh scan, logging every discrepancy. The returned slices are in
// lexicographic order.
func (v *DirectoryVerifier) verifyDirectory(label, dir string, expected *PathSet) (missing, unexpected []string, err error) {
	actual, err := scanDirectory(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("rescanning %s directory: %w", label, err)
	}

	missing = expected.Diff(actual)
	unexpected = actual.Diff(expected)

	if len(missing) > 0 {
		slog.Warn("Expected files missing from disk", "directory", label, "count", len(missing))
		for _, path := range missing {
			slog.Warn("  - " + path)
		}
	}
	if len(unexpected) > 0 {
		slog.Warn("Unexpected files present on disk", "directory", label, "count", len(unexpected))
		for _, path := range unexpected {
			slog.Warn("  + " + path)
		}
	}

	return missing, unexpected, nil
}

// Stats returns the current sizes of the four tracked sets and the event
// tallies accumulated so far.
func (v *DirectoryVerifier) Stats() VerifierStats {
	return VerifierStats{
		InitialSourceFiles:  v.initialSource.Len(),
		InitialTargetFiles:  v.initialTarget.Len(),
		ExpectedSourceFiles: v.expectedSource.Len(),
		ExpectedTargetFiles: v.expectedTarget.Len(),
		CopiesTracked:       v.copiesTracked,
		MovesTracked:        v.movesTracked,
		DeletionsTracked:    v.deletionsTracked,
	}
}

// Close releases the verifier's subscriptions so later publishes on the bus
// no longer touch its state. It is safe to call more than once; only the
// first call does any work.
func (v *DirectoryVerifier) Close() {
	if v.closed {
		return
	}
	v.closed = true
	for _, sub := range v.subs {
		sub.Cancel()
	}
	v.subs = nil

	slog.Debug("Directory verifier closed",
		"source", v.sourceDir,
		"target", v.targetDir)
}

// isTracked reports whether path lies under either tracked root.
func (v *DirectoryVerifier) isTracked(path string) bool {
	return strings.HasPrefix(path, v.sourceDir+"/") || strings.HasPrefix(path, v.targetDir+"/")
}

// scanDirectory collects every file under dir as a set of resolved absolute
// paths. A missing directory is created and yields an empty set.
func scanDirectory(dir string) (*PathSet, error) {
	set := NewPathSet()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating tracked directory %s: %w", dir, mkErr)
		}
		return set, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		set.Add(resolvePath(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	return set, nil
}

// resolvePath yields a stable absolute form for set membership. Symlinks
// resolve when the path exists; for a path that is already gone the parent
// is resolved and the base rejoined, so event paths and scan results key
// identically even under symlinked temp roots.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return normalizePath(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return normalizePath(resolved)
	}
	dir, base := filepath.Split(abs)
	if resolvedDir, err := filepath.EvalSymlinks(filepath.Clean(dir)); err == nil {
		return normalizePath(filepath.Join(resolvedDir, base))
	}
	return normalizePath(abs)
}
