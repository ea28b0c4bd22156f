package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbarcelona/brybox/internal/ingest/options"
)

// fakeFingerprinter returns canned fingerprints keyed by path.
type fakeFingerprinter struct {
	fingerprints map[string]string
}

func (f *fakeFingerprinter) Fingerprint(_ context.Context, path string) (string, error) {
	fp, ok := f.fingerprints[path]
	if !ok {
		return "", fmt.Errorf("no fingerprint for %s", path)
	}
	return fp, nil
}

func makeDedupDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "brybox_dedup_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestGroupByFingerprintOrdersGroupsByFirstAppearance(t *testing.T) {
	dir := makeDedupDir(t, map[string]string{
		"a.jpg": "sunset",
		"b.jpg": "mountain",
		"c.jpg": "sunset",
		"d.jpg": "lake",
	})

	paths := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.jpg"),
		filepath.Join(dir, "d.jpg"),
	}

	hd := NewHashDeduplicator(nil, options.DefaultDedupOptions())
	groups, err := hd.GroupByFingerprint(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, []string{paths[0], paths[2]}, groups[0].Paths)
	assert.Equal(t, []string{paths[1]}, groups[1].Paths)
	assert.Equal(t, []string{paths[3]}, groups[2].Paths)

	for _, group := range groups {
		assert.Len(t, group.Fingerprint, 64)
	}
}

func TestGroupByFingerprintSkipsUnreadableFiles(t *testing.T) {
	dir := makeDedupDir(t, map[string]string{
		"real.jpg": "content",
	})

	paths := []string{
		filepath.Join(dir, "missing.jpg"),
		filepath.Join(dir, "real.jpg"),
	}

	hd := NewHashDeduplicator(nil, options.DefaultDedupOptions())
	groups, err := hd.GroupByFingerprint(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{paths[1]}, groups[0].Paths)
}

func TestGroupByFingerprintWithPluggableFingerprinter(t *testing.T) {
	fake := &fakeFingerprinter{fingerprints: map[string]string{
		"one": "same",
		"two": "same",
		"tre": "other",
	}}

	hd := NewHashDeduplicator(fake, options.DedupOptions{Workers: 2})
	groups, err := hd.GroupByFingerprint(context.Background(), []string{"one", "two", "tre"})
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "same", groups[0].Fingerprint)
	assert.Equal(t, []string{"one", "two"}, groups[0].Paths)
	assert.Equal(t, []string{"tre"}, groups[1].Paths)
}

func TestGroupByFingerprintEmptyInput(t *testing.T) {
	hd := NewHashDeduplicator(nil, options.DefaultDedupOptions())
	groups, err := hd.GroupByFingerprint(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, groups)
}

func TestGroupByFingerprintHonorsCancellation(t *testing.T) {
	dir := makeDedupDir(t, map[string]string{
		"a.jpg": "payload",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hd := NewHashDeduplicator(nil, options.DefaultDedupOptions())
	_, err := hd.GroupByFingerprint(ctx, []string{filepath.Join(dir, "a.jpg")})
	require.Error(t, err)
}

func TestSHA256FingerprinterMatchesKnownDigest(t *testing.T) {
	dir := makeDedupDir(t, map[string]string{
		"hello.txt": "hello",
	})

	fp, err := NewSHA256Fingerprinter(2).Fingerprint(context.Background(), filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", fp)
}

func TestStatFingerprinterUsesSizeAndMtime(t *testing.T) {
	dir := makeDedupDir(t, map[string]string{
		"a.jpg": "same-size",
		"b.jpg": "same-size",
		"c.jpg": "a much longer payload",
	})

	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		require.NoError(t, os.Chtimes(filepath.Join(dir, name), stamp, stamp))
	}

	sf := NewStatFingerprinter()
	fpA, err := sf.Fingerprint(context.Background(), filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	fpB, err := sf.Fingerprint(context.Background(), filepath.Join(dir, "b.jpg"))
	require.NoError(t, err)
	fpC, err := sf.Fingerprint(context.Background(), filepath.Join(dir, "c.jpg"))
	require.NoError(t, err)

	assert.Equal(t, fpA, fpB)
	assert.NotEqual(t, fpA, fpC)

	_, err = sf.Fingerprint(context.Background(), filepath.Join(dir, "missing.jpg"))
	require.Error(t, err)
}
