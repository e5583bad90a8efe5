package scan

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string, size int) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	b := touch(t, root, "b/SSIS-123.MKV", 10)
	a := touch(t, root, "a/ABP-001.mp4", 10)
	touch(t, root, "a/ABP-001.srt", 10)
	touch(t, root, "a/abp-001-sample.mp4", 10)
	touch(t, root, "a/ABP-001-trailer.mp4", 10)
	touch(t, root, ".hidden/IPX-001.mp4", 10)
	touch(t, root, "output/IPX-002.mp4", 10)
	touch(t, root, "failed/IPX-003.mp4", 10)

	got, err := Scan(root, Options{ExcludeDirs: []string{"output", "failed"}})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)
}

func TestScan_MinSizeAndFilter(t *testing.T) {
	root := t.TempDir()
	big := touch(t, root, "ABP-001.mp4", 2048)
	touch(t, root, "ABP-002.mp4", 10)
	touch(t, root, "SSIS-001.mp4", 2048)

	got, err := Scan(root, Options{MinSize: 1024, Filter: regexp.MustCompile(`ABP`)})
	require.NoError(t, err)
	assert.Equal(t, []string{big}, got)
}

func TestScan_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "ABP-001.mp4", 1)
	strm := touch(t, root, "ABP-002.strm", 1)

	got, err := Scan(root, Options{Extensions: []string{"strm"}})
	require.NoError(t, err)
	assert.Equal(t, []string{strm}, got)
}

func TestScan_SingleFile(t *testing.T) {
	root := t.TempDir()
	file := touch(t, root, "ABP-001.mp4", 1)
	other := touch(t, root, "notes.txt", 1)

	got, err := Scan(file, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, got)

	got, err = Scan(other, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScan_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := touch(t, root, "ABP-001.mp4", 1)
	if err := os.Symlink(target, filepath.Join(root, "ABP-002.mp4")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := Scan(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{target}, got)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}
