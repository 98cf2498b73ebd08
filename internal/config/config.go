// Package config defines ppkgd's on-disk configuration shape and the
// defaulting/resolution rules applied after it is parsed.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config represents the complete application configuration.
type Config struct {
	Home         string             `yaml:"home"`
	HTTP         HTTPConfig         `yaml:"http,omitempty"`
	GitHub       GitHubConfig       `yaml:"github,omitempty"`
	Workers      WorkersConfig      `yaml:"workers"`
	Repositories []RepositoryConfig `yaml:"repositories"`

	// ConfigDir is the directory containing the loaded config file; set
	// during Load, not serialized.
	ConfigDir string `yaml:"-"`
}

// HTTPConfig contains HTTP client configuration.
type HTTPConfig struct {
	UserAgent       string `yaml:"user_agent,omitempty"`
	Timeout         int    `yaml:"timeout"` // seconds
	MaxIdleConns    int    `yaml:"max_idle_conns,omitempty"`
	MaxConnsPerHost int    `yaml:"max_conns_per_host,omitempty"`
}

// GitHubConfig contains the GitHub token, used only as HTTPS credentials
// when cloning and syncing GitHub-hosted formula repositories.
type GitHubConfig struct {
	Token string `yaml:"token,omitempty"`
}

// WorkersConfig sizes the worker pool that backs the CLI-level
// fetch-all-independent-packages convenience (outside the InstallEngine
// contract itself, which stays single-threaded).
type WorkersConfig struct {
	Main uint `yaml:"main"`
}

// RepositoryConfig describes one formula repository to register at
// startup if it is not already present under repos.d/.
type RepositoryConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Branch  string `yaml:"branch,omitempty"`
	Pinned  bool   `yaml:"pinned,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// GetDownloadsPath returns the absolute path to the downloads directory.
func (c *Config) GetDownloadsPath() string { return filepath.Join(c.Home, "downloads") }

// GetInstalledPath returns the absolute path to the installed directory.
func (c *Config) GetInstalledPath() string { return filepath.Join(c.Home, "installed") }

// GetReposPath returns the absolute path to the repos.d directory.
func (c *Config) GetReposPath() string { return filepath.Join(c.Home, "repos.d") }

// GetRunPath returns the absolute path to the run directory.
func (c *Config) GetRunPath() string { return filepath.Join(c.Home, "run") }

// defaults applies default values to the configuration, mirroring the
// environment-variable-and-directory-default pass the config loader
// always runs after parsing.
func (c *Config) defaults() {
	if c.GitHub.Token == "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			c.GitHub.Token = token
		}
	}

	if c.Home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Home = filepath.Join(home, ".ppkgd")
		}
	}

	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 300
	}

	if c.Workers.Main == 0 {
		c.Workers.Main = uint(runtime.NumCPU() * 10)
	}
	if c.Workers.Main < 8 {
		c.Workers.Main = 8
	}

	for i := range c.Repositories {
		if c.Repositories[i].Branch == "" {
			c.Repositories[i].Branch = "master"
		}
	}
}
