// Package paths resolves the process-wide home directory and its
// well-known subdirectories, and carves out the per-process session
// directory. It is constructed once at the top-level entry point and
// passed explicitly to every component that needs it — no component
// below the application layer reads the environment for this itself.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves the home directory hierarchy for one ppkgd invocation.
type Paths struct {
	home string
	pid  int
}

// New returns a Paths rooted at home. If home is empty, it resolves to
// "$HOME/.ppkgd" (or "/root/.ppkgd" style fallback via os.UserHomeDir).
func New(home string) (*Paths, error) {
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		home = filepath.Join(userHome, ".ppkgd")
	}
	return &Paths{home: home, pid: os.Getpid()}, nil
}

// Home returns the resolved home directory.
func (p *Paths) Home() string { return p.home }

// ReposDir returns the directory holding registered formula repositories.
func (p *Paths) ReposDir() string { return filepath.Join(p.home, "repos.d") }

// RepoDir returns the directory for one named formula repository.
func (p *Paths) RepoDir(name string) string { return filepath.Join(p.ReposDir(), name) }

// DownloadsDir returns the content-addressed download cache directory.
func (p *Paths) DownloadsDir() string { return filepath.Join(p.home, "downloads") }

// InstalledDir returns the directory holding installed package payloads
// and stable installed-package symlinks.
func (p *Paths) InstalledDir() string { return filepath.Join(p.home, "installed") }

// RunDir returns the directory under which per-process session
// directories are created.
func (p *Paths) RunDir() string { return filepath.Join(p.home, "run") }

// SessionDir returns this process's session directory, run/<pid>.
func (p *Paths) SessionDir() string { return filepath.Join(p.RunDir(), fmt.Sprintf("%d", p.pid)) }

// EnsureDir guarantees that path exists, is a directory, and has mode
// 0700 on return. If path exists and is not a directory, it is removed
// first. A concurrent creation race (EEXIST) is treated as success.
func EnsureDir(path string) error {
	info, err := os.Lstat(path)
	if err == nil {
		if info.IsDir() {
			if info.Mode().Perm() != 0700 {
				if err := os.Chmod(path, 0700); err != nil {
					return fmt.Errorf("chmod %s: %w", path, err)
				}
			}
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing non-directory at %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.Mkdir(path, 0700); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// PrepareSession guarantees that run/<pid>/ exists and is empty on
// return. An existing directory is recursively removed and recreated; an
// existing non-directory is unlinked and recreated.
func (p *Paths) PrepareSession() (string, error) {
	if err := EnsureDir(p.RunDir()); err != nil {
		return "", err
	}

	sessionDir := p.SessionDir()

	info, err := os.Lstat(sessionDir)
	switch {
	case err == nil && info.IsDir():
		if err := os.RemoveAll(sessionDir); err != nil {
			return "", fmt.Errorf("clearing stale session dir %s: %w", sessionDir, err)
		}
	case err == nil:
		if err := os.Remove(sessionDir); err != nil {
			return "", fmt.Errorf("removing stale session entry %s: %w", sessionDir, err)
		}
	case !os.IsNotExist(err):
		return "", fmt.Errorf("stat %s: %w", sessionDir, err)
	}

	if err := os.Mkdir(sessionDir, 0700); err != nil {
		return "", fmt.Errorf("creating session dir %s: %w", sessionDir, err)
	}
	return sessionDir, nil
}
