package pipeline

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveFilename(t *testing.T) {
	cases := map[string]string{
		"ECA_PRODUCT":             "ECA_PRODUCT.ZIP",
		"ECA_PRODUCT.ZIP":         "ECA_PRODUCT.ZIP",
		"ECA_PRODUCT.zip":         "ECA_PRODUCT.ZIP",
		"ECA_PRODUCT.zip.ZIP":     "ECA_PRODUCT.ZIP",
		"ECA_PRODUCT.ZIP.ZIP.zip": "ECA_PRODUCT.ZIP",
		"ECA_PRODUCT.h5":          "ECA_PRODUCT.h5.ZIP",
	}
	for name, want := range cases {
		assert.Equal(t, want, archiveFilename(name), "name %q", name)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	w := zip.NewWriter(out)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "product.ZIP")
	writeZip(t, archivePath, map[string]string{
		"product.h5":       "payload",
		"meta/product.xml": "<meta/>",
	})

	destDir := filepath.Join(dir, "product")
	require.NoError(t, extractZip(archivePath, destDir))

	payload, err := os.ReadFile(filepath.Join(destDir, "product.h5"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(payload))

	meta, err := os.ReadFile(filepath.Join(destDir, "meta", "product.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<meta/>", string(meta))

	// The archive itself is left alone.
	_, err = os.Stat(archivePath)
	assert.NoError(t, err)
}

func TestExtractZip_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.ZIP")
	writeZip(t, archivePath, map[string]string{
		"../escaped.txt": "nope",
	})

	destDir := filepath.Join(dir, "out")
	err := extractZip(archivePath, destDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination directory")

	_, statErr := os.Stat(filepath.Join(dir, "escaped.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractZip_MissingArchive(t *testing.T) {
	err := extractZip(filepath.Join(t.TempDir(), "missing.ZIP"), t.TempDir())
	assert.Error(t, err)
}
