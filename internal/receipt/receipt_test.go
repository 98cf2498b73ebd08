package receipt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFramesFormulaVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.yml")
	formulaBytes := []byte("bin_url: https://example.org/a.tgz\nbin_sha: deadbeef\n")

	require.NoError(t, Write(path, "a", formulaBytes, 1700000000))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := "pkgname: a\n" + string(formulaBytes) + "\nsignature: " + ToolVersion + "\ntimestamp: 1700000000\n"
	assert.Equal(t, expected, string(data))
}

func TestWriteLeavesNoPartialFileOnTempDirMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-parent", "receipt.yml")
	err := Write(path, "a", []byte("x"), 1)
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
