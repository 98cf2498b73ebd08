// Package reporegistry manages the set of formula repositories registered
// under repos.d/: each is a plain git clone plus a sidecar config file,
// added atomically by staging in the session directory and renaming into
// place only once fully populated.
package reporegistry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitHTTP "github.com/go-git/go-git/v5/plumbing/transport/http"
	"gopkg.in/yaml.v3"

	"github.com/ppkgd/ppkgd/internal/paths"
	"github.com/ppkgd/ppkgd/internal/ppkgerr"
)

// Config is the sidecar file recorded alongside each repository's clone,
// at repos.d/<name>/.ppkgd-repo.yml.
type Config struct {
	URL                  string `yaml:"url"`
	Branch               string `yaml:"branch"`
	Pinned               bool   `yaml:"pinned"`
	Enabled              bool   `yaml:"enabled"`
	TimestampAdded       int64  `yaml:"timestamp-added"`
	TimestampLastUpdated int64  `yaml:"timestamp-last-updated"`
}

const configFileName = ".ppkgd-repo.yml"

// Repo pairs a registered repository's name with its on-disk config.
type Repo struct {
	Name   string
	Config Config
}

// Registry enumerates and mutates the repositories under repos.d/.
type Registry struct {
	paths *paths.Paths

	// githubToken, when set, is sent as HTTP basic auth (username "x-access-token")
	// on clone and pull, so private GitHub-hosted formula repositories resolve.
	githubToken string
}

// New returns a Registry rooted at the given Paths. githubToken may be empty;
// when set, it authenticates clone/pull requests against GitHub-hosted
// repositories over HTTPS.
func New(p *paths.Paths, githubToken string) *Registry {
	return &Registry{paths: p, githubToken: githubToken}
}

// auth returns the go-git transport auth method for this registry's
// configured token, or nil when no token is set.
func (r *Registry) auth() transport.AuthMethod {
	if r.githubToken == "" {
		return nil
	}
	return &gitHTTP.BasicAuth{Username: "x-access-token", Password: r.githubToken}
}

// RepoPath returns the on-disk directory of the named repository,
// regardless of whether it has been added yet.
func (r *Registry) RepoPath(name string) string {
	return r.paths.RepoDir(name)
}

// Add registers a new repository named name, cloning url at branch (default
// "master" when empty) into repos.d/<name>. The clone is staged in the
// session directory and only renamed into place once the clone and config
// write both succeed, so repos.d/<name> is always either absent or fully
// populated.
func (r *Registry) Add(name, url, branch string, pinned, enabled bool) error {
	if branch == "" {
		branch = "master"
	}

	repoDir := r.paths.RepoDir(name)
	if info, err := os.Stat(repoDir); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s", ppkgerr.ErrRepoAlreadyExists, name)
	}

	sessionDir, err := r.paths.PrepareSession()
	if err != nil {
		return err
	}

	refName := plumbing.NewBranchReferenceName(branch)
	_, err = git.PlainClone(sessionDir, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: refName,
		SingleBranch:  true,
		Auth:          r.auth(),
	})
	if err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}

	now := time.Now().Unix()
	cfg := Config{
		URL:                  url,
		Branch:               branch,
		Pinned:               pinned,
		Enabled:              enabled,
		TimestampAdded:       now,
		TimestampLastUpdated: now,
	}
	if err := writeConfig(sessionDir, cfg); err != nil {
		return err
	}

	if err := paths.EnsureDir(r.paths.ReposDir()); err != nil {
		return err
	}

	if err := os.Rename(sessionDir, repoDir); err != nil {
		return &ppkgerr.FilesystemError{Path: repoDir, Err: err}
	}

	return nil
}

// Sync fetches and fast-forwards the named repository's tracked branch in
// place, and updates its recorded timestamp-last-updated.
func (r *Registry) Sync(name string) error {
	repoDir := r.paths.RepoDir(name)
	cfg, err := readConfig(repoDir)
	if err != nil {
		return err
	}

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return fmt.Errorf("opening repo %s: %w", name, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree for %s: %w", name, err)
	}

	err = wt.Pull(&git.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(cfg.Branch),
		SingleBranch:  true,
		Force:         true,
		Auth:          r.auth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("syncing repo %s: %w", name, err)
	}

	cfg.TimestampLastUpdated = time.Now().Unix()
	return writeConfig(repoDir, cfg)
}

// List returns all registered repositories in lexicographic order by name.
func (r *Registry) List() ([]Repo, error) {
	entries, err := os.ReadDir(r.paths.ReposDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ppkgerr.FilesystemError{Path: r.paths.ReposDir(), Err: err}
	}

	var repos []Repo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		cfg, err := readConfig(r.paths.RepoDir(entry.Name()))
		if err != nil {
			continue // a directory without a valid config is not a repo
		}
		repos = append(repos, Repo{Name: entry.Name(), Config: cfg})
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}

// Enabled returns the subset of List whose Config.Enabled is true, in the
// same lexicographic order.
func (r *Registry) Enabled() ([]Repo, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	var enabled []Repo
	for _, repo := range all {
		if repo.Config.Enabled {
			enabled = append(enabled, repo)
		}
	}
	return enabled, nil
}

func writeConfig(repoDir string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling repo config: %w", err)
	}
	path := filepath.Join(repoDir, configFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ppkgerr.FilesystemError{Path: path, Err: err}
	}
	return nil
}

func readConfig(repoDir string) (Config, error) {
	path := filepath.Join(repoDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ppkgerr.FilesystemError{Path: path, Err: err}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing repo config %s: %w", path, err)
	}
	return cfg, nil
}
