package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/bryanbarcelona/brybox/internal/ingest/options"
	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// Fingerprinter computes a content fingerprint for one file.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (string, error)
}

// SHA256Fingerprinter hashes file content in fixed-size chunks so large
// media files never load into memory whole.
type SHA256Fingerprinter struct {
	chunkSize int
}

// NewSHA256Fingerprinter creates a chunked SHA-256 fingerprinter.
func NewSHA256Fingerprinter(chunkSize int) *SHA256Fingerprinter {
	if chunkSize <= 0 {
		chunkSize = 8 * 1024
	}
	return &SHA256Fingerprinter{chunkSize: chunkSize}
}

// Fingerprint returns the hex-encoded SHA-256 of the file content.
func (f *SHA256Fingerprinter) Fingerprint(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buffer := make([]byte, f.chunkSize)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, readErr := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if readErr != nil {
			if readErr == io.EOF {
				return hex.EncodeToString(hasher.Sum(nil)), nil
			}
			return "", fmt.Errorf("failed to read %s: %w", path, readErr)
		}
	}
}

// StatFingerprinter derives a fingerprint from file size and modification
// time instead of content. Distinct files sharing both collide, so it trades
// accuracy for speed on imports where duplicates are byte-identical copies
// with preserved timestamps.
type StatFingerprinter struct{}

// NewStatFingerprinter creates a metadata-based fingerprinter.
func NewStatFingerprinter() *StatFingerprinter {
	return &StatFingerprinter{}
}

// Fingerprint returns a fingerprint derived from size and mtime.
func (f *StatFingerprinter) Fingerprint(_ context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano()), nil
}

// HashDeduplicator groups files by content fingerprint. Fingerprints are
// computed concurrently on a bounded pool; grouping preserves the order in
// which paths were supplied.
type HashDeduplicator struct {
	fingerprinter Fingerprinter
	workers       int
}

// NewHashDeduplicator creates a deduplicator backed by fp. A nil fp selects
// chunked SHA-256 hashing.
func NewHashDeduplicator(fp Fingerprinter, opts options.DedupOptions) *HashDeduplicator {
	if fp == nil {
		fp = NewSHA256Fingerprinter(opts.ChunkSize)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &HashDeduplicator{
		fingerprinter: fp,
		workers:       workers,
	}
}

// GroupByFingerprint fingerprints every path and groups identical content
// together. Groups appear in order of first appearance and keep their paths
// in input order, so the first path of a group is the canonical survivor.
// Unreadable files are skipped rather than failing the whole scan.
func (hd *HashDeduplicator) GroupByFingerprint(ctx context.Context, paths []string) ([]types.FingerprintGroup, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	// Per-index result slots keep the output independent of goroutine
	// scheduling.
	fingerprints := make([]string, len(paths))
	skipped := make([]bool, len(paths))

	p := pool.New().WithMaxGoroutines(hd.workers).WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		p.Go(func(ctx context.Context) error {
			fp, err := hd.fingerprinter.Fingerprint(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Debug("Skipping unreadable file", "path", path, "error", err)
				skipped[i] = true
				return nil
			}
			fingerprints[i] = fp
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("fingerprint scan failed: %w", err)
	}

	groups := make([]types.FingerprintGroup, 0, len(paths))
	groupIndex := make(map[string]int, len(paths))
	for i, path := range paths {
		if skipped[i] {
			continue
		}
		fp := fingerprints[i]
		gi, ok := groupIndex[fp]
		if !ok {
			gi = len(groups)
			groupIndex[fp] = gi
			groups = append(groups, types.FingerprintGroup{Fingerprint: fp})
		}
		groups[gi].Paths = append(groups[gi].Paths, path)
	}

	return groups, nil
}
