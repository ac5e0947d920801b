package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	mk := func(rel string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	mk("a.pdf")
	mk("sub/b.PNG")
	mk("sub/deep/c.txt")
	mk("notes.docx")
	mk(".hidden/skipped.pdf")
	mk(".stray.pdf")

	paths, stats, err := ScanDirectory(root)
	require.NoError(t, err)

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rels = append(rels, rel)
	}
	assert.ElementsMatch(t, []string{
		"a.pdf",
		filepath.Join("sub", "b.PNG"),
		filepath.Join("sub", "deep", "c.txt"),
	}, rels)
	assert.Equal(t, 3, stats.Matched)
}

func TestScanDirectory_MissingRoot(t *testing.T) {
	paths, stats, err := ScanDirectory(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Equal(t, 1, stats.Failed)
}

func TestAllowed(t *testing.T) {
	assert.True(t, allowed("x/invoice.pdf"))
	assert.True(t, allowed("x/scan.TIFF"))
	assert.True(t, allowed("x/pre-ocr.txt"))
	assert.False(t, allowed("x/report.docx"))
	assert.False(t, allowed("x/noext"))
}
