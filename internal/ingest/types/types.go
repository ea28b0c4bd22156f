package types

import "time"

// StagingMapping ties one staged primary image back to its origin. Every
// mapping that survives deduplication corresponds to exactly one file family
// (primary plus sidecars) in the target directory.
type StagingMapping struct {
	Source         string   `json:"source"`                    // Original file in the source directory
	StagedPath     string   `json:"staged_path"`               // Collision-safe temporary copy under target
	StagedSidecars []string `json:"staged_sidecars,omitempty"` // Companions staged alongside the primary
}

// SidecarRename pairs a discovered companion file with its replacement name.
// NewName is always a bare filename, never a path, and preserves the
// hidden/edited category of the original.
type SidecarRename struct {
	Original string `json:"original"` // Existing companion path
	NewName  string `json:"new_name"` // Bare replacement filename
}

// FingerprintGroup collects the paths sharing one content fingerprint.
// Groups are emitted in order of first appearance and paths keep their input
// order, so the first path of each group is the canonical survivor.
type FingerprintGroup struct {
	Fingerprint string   `json:"fingerprint"`
	Paths       []string `json:"paths"`
}

// ProcessResult reports the outcome of an external per-file processor run.
type ProcessResult struct {
	Success      bool   `json:"success"`
	TargetPath   string `json:"target_path,omitempty"` // Final location produced by the processor
	Healthy      bool   `json:"healthy"`               // Post-processing health verdict
	ErrorMessage string `json:"error_message,omitempty"`
}

// PushResult accumulates the outcome of one ingestion run. It is returned
// even when the run aborts early, carrying whatever was counted so far.
type PushResult struct {
	Processed         int           `json:"processed"`          // Files carried through every enabled phase
	Skipped           int           `json:"skipped"`            // Regular files rejected by the primary-asset predicate
	Failed            int           `json:"failed"`             // Per-file recoverable failures
	DuplicatesRemoved int           `json:"duplicates_removed"` // Staged duplicates pruned (or previewed in dry-run)
	Errors            []string      `json:"errors,omitempty"`   // Messages matching the Failed count
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
}

// RecordFailure counts one recoverable per-file failure.
func (r *PushResult) RecordFailure(msg string) {
	r.Failed++
	r.Errors = append(r.Errors, msg)
}
