package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	f, ok := DetectFormat("pkg-1.0.tgz")
	assert.True(t, ok)
	assert.Equal(t, FormatTgz, f)

	f, ok = DetectFormat("pkg-1.0.txz")
	assert.True(t, ok)
	assert.Equal(t, FormatTxz, f)

	_, ok = DetectFormat("pkg-1.0-linux-x86_64")
	assert.False(t, ok)
}

func TestExtractTgzPreservesMtime(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.tgz")
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	body := []byte("hello world")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:    "bin/hello",
		Mode:    0755,
		Size:    int64(len(body)),
		ModTime: mtime,
	}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(srcPath, buf.Bytes(), 0644))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0755))
	require.NoError(t, Extract(srcPath, destDir, FormatTgz))

	target := filepath.Join(destDir, "bin/hello")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, body, data)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "mtime should be preserved")
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("share/doc/readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("readme"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(srcPath, buf.Bytes(), 0644))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0755))
	require.NoError(t, Extract(srcPath, destDir, FormatZip))

	data, err := os.ReadFile(filepath.Join(destDir, "share/doc/readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "readme", string(data))
}

func TestExtractTarRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "evil.tgz")

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	body := []byte("x")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "../../etc/passwd",
		Mode: 0644,
		Size: int64(len(body)),
	}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(srcPath, buf.Bytes(), 0644))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0755))
	err = Extract(srcPath, destDir, FormatTgz)
	assert.Error(t, err)
}
