package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsFillsHomeAndWorkers(t *testing.T) {
	var cfg Config
	cfg.defaults()

	assert.NotEmpty(t, cfg.Home)
	assert.Equal(t, 300, cfg.HTTP.Timeout)
	assert.GreaterOrEqual(t, cfg.Workers.Main, uint(8))
}

func TestDefaultsRespectsExplicitWorkerCount(t *testing.T) {
	cfg := Config{Workers: WorkersConfig{Main: 16}}
	cfg.defaults()
	assert.Equal(t, uint(16), cfg.Workers.Main)
}

func TestDefaultsFillsRepositoryBranch(t *testing.T) {
	cfg := Config{Repositories: []RepositoryConfig{{Name: "core", URL: "https://example.org/core.git"}}}
	cfg.defaults()
	assert.Equal(t, "master", cfg.Repositories[0].Branch)
}

func TestPathHelpers(t *testing.T) {
	cfg := Config{Home: "/home/u/.ppkgd"}
	assert.Equal(t, "/home/u/.ppkgd/downloads", cfg.GetDownloadsPath())
	assert.Equal(t, "/home/u/.ppkgd/installed", cfg.GetInstalledPath())
	assert.Equal(t, "/home/u/.ppkgd/repos.d", cfg.GetReposPath())
	assert.Equal(t, "/home/u/.ppkgd/run", cfg.GetRunPath())
}

func TestDefaultWorkersScalesWithCPU(t *testing.T) {
	var cfg Config
	cfg.defaults()
	if runtime.NumCPU()*10 >= 8 {
		assert.Equal(t, uint(runtime.NumCPU()*10), cfg.Workers.Main)
	}
}
