package interfaces

import (
	"context"
	"time"

	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// SidecarResolver discovers the companion files belonging to a primary image
// and plans their renames when the primary changes name.
type SidecarResolver interface {
	// FindCompanions returns every companion of imagePath that exists on
	// disk, in deterministic order and without duplicates.
	FindCompanions(imagePath string) ([]string, error)

	// PlanRenames maps each existing companion of imagePath to the bare
	// filename it should carry once the primary is renamed to newStem.
	// Companions whose naming pattern is not recognized fail the plan.
	PlanRenames(imagePath, newStem string) ([]types.SidecarRename, error)
}

// Deduplicator groups file paths by content fingerprint, preserving the
// order in which paths were supplied.
type Deduplicator interface {
	GroupByFingerprint(ctx context.Context, paths []string) ([]types.FingerprintGroup, error)
}

// TimestampTool reads and rewrites the embedded capture timestamp of an
// image file.
type TimestampTool interface {
	// ReadDateTimeOriginal returns the capture timestamp, or an error
	// wrapping common.ErrNoTimestamp when the file carries none.
	ReadDateTimeOriginal(ctx context.Context, path string) (time.Time, error)

	// WriteAllDates rewrites every date field of the file to ts.
	WriteAllDates(ctx context.Context, path string, ts time.Time) error
}

// IgnoreChecker interface for file ignore patterns
type IgnoreChecker interface {
	MatchesPath(path string) bool
}

// FileProcessor is the per-file extension point invoked after staging,
// deduplication and timestamp resolution. Implementations take ownership of
// the staged file and report where it ended up.
type FileProcessor interface {
	// Open prepares the processor for one staged file.
	Open(path string) error

	// Process consumes the opened file. A returned error means the
	// processor could not run at all; a result with Success false means it
	// ran and rejected the file.
	Process() (types.ProcessResult, error)
}
