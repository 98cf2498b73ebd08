package reporegistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppkgd/ppkgd/internal/paths"
)

// newLocalSourceRepo creates a throwaway git repository on disk with one
// commit on "master", usable as a clone source without any network access.
func newLocalSourceRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "formula"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "formula", "a.yml"), []byte("bin_url: x\n"), 0644))
	_, err = wt.Add("formula/a.yml")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.org"},
	})
	require.NoError(t, err)

	return dir
}

func TestAddAndList(t *testing.T) {
	home := t.TempDir()
	p, err := paths.New(home)
	require.NoError(t, err)

	srcDir := newLocalSourceRepo(t)

	reg := New(p, "")
	require.NoError(t, reg.Add("core", srcDir, "master", false, true))

	_, err = os.Stat(filepath.Join(p.RepoDir("core"), "formula", "a.yml"))
	require.NoError(t, err)

	repos, err := reg.List()
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "core", repos[0].Name)
	assert.Equal(t, srcDir, repos[0].Config.URL)
	assert.True(t, repos[0].Config.Enabled)
}

func TestAddDuplicateFails(t *testing.T) {
	home := t.TempDir()
	p, err := paths.New(home)
	require.NoError(t, err)

	srcDir := newLocalSourceRepo(t)

	reg := New(p, "")
	require.NoError(t, reg.Add("core", srcDir, "master", false, true))

	err = reg.Add("core", srcDir, "master", false, true)
	assert.Error(t, err)
}

func TestEnabledFiltersDisabled(t *testing.T) {
	home := t.TempDir()
	p, err := paths.New(home)
	require.NoError(t, err)

	srcDir := newLocalSourceRepo(t)

	reg := New(p, "")
	require.NoError(t, reg.Add("core", srcDir, "master", false, true))
	require.NoError(t, reg.Add("staging", srcDir, "master", false, false))

	enabled, err := reg.Enabled()
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "core", enabled[0].Name)
}
