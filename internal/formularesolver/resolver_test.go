package formularesolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppkgd/ppkgd/internal/paths"
	"github.com/ppkgd/ppkgd/internal/ppkgerr"
	"github.com/ppkgd/ppkgd/internal/reporegistry"
)

func setupRepo(t *testing.T, home, repoName string, enabled bool, formulas map[string]string) *reporegistry.Registry {
	t.Helper()
	p, err := paths.New(home)
	require.NoError(t, err)

	repoDir := p.RepoDir(repoName)
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "formula"), 0755))
	for name, body := range formulas {
		require.NoError(t, os.WriteFile(filepath.Join(repoDir, "formula", name+".yml"), []byte(body), 0644))
	}

	reg := reporegistry.New(p, "")
	// Bypass Add (which requires a real git clone) and write the sidecar
	// config this test needs directly.
	cfgYAML := "url: file://local\nbranch: master\nenabled: " + boolStr(enabled) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, ".ppkgd-repo.yml"), []byte(cfgYAML), 0644))

	return reg
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestLookupFindsFormula(t *testing.T) {
	home := t.TempDir()
	sha := strings.Repeat("a", 64)
	reg := setupRepo(t, home, "core", true, map[string]string{
		"zlib": "bin_url: https://example.org/zlib.tgz\nbin_sha: " + sha + "\n",
	})

	r := New(reg)
	f, err := r.Lookup("zlib", "linux-x86_64")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/zlib.tgz", f.BinURL)
}

func TestLookupNotFound(t *testing.T) {
	home := t.TempDir()
	reg := setupRepo(t, home, "core", true, map[string]string{})

	r := New(reg)
	_, err := r.Lookup("missing", "linux-x86_64")
	require.Error(t, err)
	assert.ErrorIs(t, err, ppkgerr.ErrFormulaNotFound)
}

func TestLookupSkipsDisabledRepos(t *testing.T) {
	home := t.TempDir()
	p, err := paths.New(home)
	require.NoError(t, err)

	sha := strings.Repeat("a", 64)
	disabledDir := p.RepoDir("disabled")
	require.NoError(t, os.MkdirAll(filepath.Join(disabledDir, "formula"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(disabledDir, "formula", "zlib.yml"),
		[]byte("bin_url: https://example.org/disabled.tgz\nbin_sha: "+sha+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(disabledDir, ".ppkgd-repo.yml"),
		[]byte("url: file://local\nbranch: master\nenabled: false\n"), 0644))

	reg := reporegistry.New(p, "")
	r := New(reg)
	_, err = r.Lookup("zlib", "linux-x86_64")
	assert.ErrorIs(t, err, ppkgerr.ErrFormulaNotFound)
}
