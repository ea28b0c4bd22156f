package fileops

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
	"github.com/bryanbarcelona/brybox/internal/ingest/options"
)

func makeFileOpsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "brybox_fileops_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
}

func TestCopyFilePreservesContentAndAttributes(t *testing.T) {
	dir := makeFileOpsDir(t)
	src := filepath.Join(dir, "note.mov")
	dst := filepath.Join(dir, "nested", "copy.mov")

	require.NoError(t, os.WriteFile(src, []byte("sidecar payload"), 0o640))

	fo := NewFileOps()
	err := fo.CopyFile(context.Background(), src, dst, options.DefaultCopyOptions())
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "sidecar payload", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	assert.EqualValues(t, int64(len("sidecar payload")), fo.GetMetrics()["total_bytes_transferred"])
}

func TestCopyFileVerifiesDecodableImages(t *testing.T) {
	dir := makeFileOpsDir(t)
	fo := NewFileOps()

	t.Run("healthy png passes", func(t *testing.T) {
		src := filepath.Join(dir, "ok.png")
		dst := filepath.Join(dir, "ok_copy.png")
		writeTestPNG(t, src)

		require.NoError(t, fo.CopyFile(context.Background(), src, dst, options.DefaultCopyOptions()))
		assert.True(t, fo.IsHealthy(dst))
	})

	t.Run("garbage jpeg fails and is removed", func(t *testing.T) {
		src := filepath.Join(dir, "broken.jpg")
		dst := filepath.Join(dir, "broken_copy.jpg")
		require.NoError(t, os.WriteFile(src, []byte("not a jpeg"), 0o644))

		err := fo.CopyFile(context.Background(), src, dst, options.DefaultCopyOptions())
		require.ErrorIs(t, err, common.ErrCopyVerification)

		_, statErr := os.Stat(dst)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestCopyFileDryRunTouchesNothing(t *testing.T) {
	dir := makeFileOpsDir(t)
	src := filepath.Join(dir, "photo.heic")
	dst := filepath.Join(dir, "photo_copy.heic")
	require.NoError(t, os.WriteFile(src, []byte("heic bytes"), 0o644))

	opts := options.DefaultCopyOptions()
	opts.DryRun = true
	require.NoError(t, NewFileOps().CopyFile(context.Background(), src, dst, opts))

	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestCopyFileRespectsCancellation(t *testing.T) {
	dir := makeFileOpsDir(t)
	src := filepath.Join(dir, "photo.png")
	writeTestPNG(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileOps().CopyFile(ctx, src, filepath.Join(dir, "copy.png"), options.DefaultCopyOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeleteFile(t *testing.T) {
	dir := makeFileOpsDir(t)
	fo := NewFileOps()

	t.Run("removes existing file", func(t *testing.T) {
		path := filepath.Join(dir, "stale.aae")
		require.NoError(t, os.WriteFile(path, []byte("<xml/>"), 0o644))

		require.NoError(t, fo.DeleteFile(context.Background(), path))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects missing file", func(t *testing.T) {
		err := fo.DeleteFile(context.Background(), filepath.Join(dir, "absent.aae"))
		require.Error(t, err)
	})
}

func TestCreateDirectory(t *testing.T) {
	dir := makeFileOpsDir(t)
	nested := filepath.Join(dir, "a", "b", "c")

	require.NoError(t, NewFileOps().CreateDirectory(context.Background(), nested, 0o755))

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileSize(t *testing.T) {
	dir := makeFileOpsDir(t)
	path := filepath.Join(dir, "sized.mov")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))

	fo := NewFileOps()
	assert.EqualValues(t, 5, fo.FileSize(path))
	assert.EqualValues(t, 0, fo.FileSize(filepath.Join(dir, "missing.mov")))
}
