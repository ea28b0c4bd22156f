package options

import (
	"runtime"

	"github.com/bryanbarcelona/brybox/internal"
)

// PushOptions configures one ingestion run from a source directory into a
// target directory.
type PushOptions struct {
	SourceDir        string // Directory scanned for primary assets (must exist)
	TargetDir        string // Directory receiving staged copies (created on demand)
	MigrateSidecars  bool   // Stage companion files alongside each primary
	UniqueTimestamps bool   // Resolve capture-timestamp collisions after deduplication
	DryRun           bool   // Log intended operations without touching the filesystem
	IgnoreFile       string // Gitignore-style skip list in the source dir, "" disables
}

// DefaultPushOptions returns the standard ingestion configuration.
func DefaultPushOptions() PushOptions {
	return PushOptions{
		MigrateSidecars:  true,
		UniqueTimestamps: true,
		DryRun:           false,
		IgnoreFile:       internal.DefaultIgnoreFile,
	}
}

// CopyOptions configures verified single-file copies.
type CopyOptions struct {
	PreservePerms bool // Carry source permission bits to the copy
	PreserveTimes bool // Carry source modification time to the copy
	Verify        bool // Require matching sizes and a healthy destination after copying
	DryRun        bool // Log the copy without performing it
}

// DefaultCopyOptions returns the staging copy configuration.
func DefaultCopyOptions() CopyOptions {
	return CopyOptions{
		PreservePerms: true,
		PreserveTimes: true,
		Verify:        true,
	}
}

// DedupOptions tunes the concurrent fingerprint scan.
type DedupOptions struct {
	Workers   int // Concurrent hashing goroutines, 0 selects NumCPU
	ChunkSize int // Read buffer per file in bytes, 0 selects 8 KiB
}

// DefaultDedupOptions returns the standard fingerprint scan configuration.
func DefaultDedupOptions() DedupOptions {
	return DedupOptions{
		Workers:   runtime.NumCPU(),
		ChunkSize: 8 * 1024,
	}
}
