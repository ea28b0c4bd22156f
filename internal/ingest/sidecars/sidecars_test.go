package sidecars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
)

func makeSidecarDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "brybox_sidecars_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestFindCompanionsDiscoversAllCategories(t *testing.T) {
	dir := makeSidecarDir(t, map[string]string{
		"IMG_1234.HEIC":    "primary",
		"IMG_1234.AAE":     "adjustments",
		"IMG_1234.mov":     "live photo",
		"IMG_1234.xmp":     "metadata",
		"IMG_O1234.aae":    "edited adjustments",
		"._IMG_1234.HEIC":  "resource fork",
		"._IMG_O1234.aae":  "edited resource fork",
		"IMG_12345.mov":    "different stem",
		"IMG_1234.txt":     "unknown extension",
		"._IMG_12345.HEIC": "different hidden stem",
	})

	companions, err := NewResolver().FindCompanions(filepath.Join(dir, "IMG_1234.HEIC"))
	require.NoError(t, err)

	expected := []string{
		filepath.Join(dir, "IMG_1234.AAE"),
		filepath.Join(dir, "IMG_1234.mov"),
		filepath.Join(dir, "IMG_1234.xmp"),
		filepath.Join(dir, "IMG_O1234.aae"),
		filepath.Join(dir, "._IMG_1234.HEIC"),
		filepath.Join(dir, "._IMG_O1234.aae"),
	}
	assert.Equal(t, expected, companions)
}

func TestFindCompanionsWithoutUnderscoreStem(t *testing.T) {
	dir := makeSidecarDir(t, map[string]string{
		"photo.jpg":   "primary",
		"photo.mov":   "live photo",
		"._photo.jpg": "resource fork",
		"photoO.aae":  "not an edited companion",
	})

	companions, err := NewResolver().FindCompanions(filepath.Join(dir, "photo.jpg"))
	require.NoError(t, err)

	expected := []string{
		filepath.Join(dir, "photo.mov"),
		filepath.Join(dir, "._photo.jpg"),
	}
	assert.Equal(t, expected, companions)
}

func TestFindCompanionsNeverReturnsThePrimary(t *testing.T) {
	dir := makeSidecarDir(t, map[string]string{
		"IMG_0042.mov": "a live photo video opened as the primary",
	})

	companions, err := NewResolver().FindCompanions(filepath.Join(dir, "IMG_0042.mov"))
	require.NoError(t, err)
	assert.Empty(t, companions)
}

func TestPlanRenamesPreservesCategories(t *testing.T) {
	dir := makeSidecarDir(t, map[string]string{
		"IMG_1234.HEIC":   "primary",
		"IMG_1234.mov":    "live photo",
		"IMG_O1234.aae":   "edited adjustments",
		"._IMG_1234.HEIC": "resource fork",
		"._IMG_O1234.aae": "edited resource fork",
	})

	newStem := "IMG_1704452123456abcd1234"
	renames, err := NewResolver().PlanRenames(filepath.Join(dir, "IMG_1234.HEIC"), newStem)
	require.NoError(t, err)

	got := make(map[string]string, len(renames))
	for _, rename := range renames {
		got[filepath.Base(rename.Original)] = rename.NewName
	}

	assert.Equal(t, map[string]string{
		"IMG_1234.mov":    "IMG_1704452123456abcd1234.mov",
		"IMG_O1234.aae":   "IMG_O1704452123456abcd1234.aae",
		"._IMG_1234.HEIC": "._IMG_1704452123456abcd1234.HEIC",
		"._IMG_O1234.aae": "._IMG_O1704452123456abcd1234.aae",
	}, got)

	// New names are bare filenames, never paths.
	for _, rename := range renames {
		assert.Equal(t, rename.NewName, filepath.Base(rename.NewName))
	}
}

func TestPlanRenameRejectsUnknownPattern(t *testing.T) {
	_, err := planRename("WEIRD.aae", "IMG_1234", "IMG_O1234", "IMG_new", "IMG_Onew")
	require.ErrorIs(t, err, common.ErrUnrecognizedPattern)
}

func TestEditedStem(t *testing.T) {
	assert.Equal(t, "IMG_O1234", editedStem("IMG_1234"))
	assert.Equal(t, "IMG_O1234_5678", editedStem("IMG_1234_5678"))
	assert.Equal(t, "", editedStem("photo"))
}
