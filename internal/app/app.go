// Package app wires a loaded configuration into the runtime components the
// CLI layer drives: the paths resolver, the formula repository registry,
// the formula resolver, the download cache, and the install engine.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/ppkgd/ppkgd/internal/cache"
	"github.com/ppkgd/ppkgd/internal/config"
	"github.com/ppkgd/ppkgd/internal/formularesolver"
	"github.com/ppkgd/ppkgd/internal/install"
	"github.com/ppkgd/ppkgd/internal/paths"
	"github.com/ppkgd/ppkgd/internal/reporegistry"
	"github.com/ppkgd/ppkgd/internal/sysinfo"
)

// Application holds the initialized runtime components and configuration.
type Application struct {
	Config   *config.Config
	Paths    *paths.Paths
	MainPool pond.Pool

	HTTPClient *http.Client
	Cache      *cache.Cache
	Registry   *reporegistry.Registry
	Resolver   *formularesolver.Resolver
	Installer  *install.Engine
}

// New creates and initializes a new Application from configuration.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	p, err := paths.New(cfg.Home)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{p.Home(), p.ReposDir(), p.DownloadsDir(), p.InstalledDir(), p.RunDir()} {
		if err := paths.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	mainPool := pond.NewPool(int(cfg.Workers.Main), pond.WithContext(ctx), pond.WithoutPanicRecovery())

	httpClient := &http.Client{}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTP.MaxIdleConns > 0 || cfg.HTTP.MaxConnsPerHost > 0 {
		baseTransport := &http.Transport{}
		if cfg.HTTP.MaxIdleConns > 0 {
			baseTransport.MaxIdleConns = cfg.HTTP.MaxIdleConns
			baseTransport.MaxIdleConnsPerHost = cfg.HTTP.MaxIdleConns / 10
		}
		if cfg.HTTP.MaxConnsPerHost > 0 {
			baseTransport.MaxConnsPerHost = cfg.HTTP.MaxConnsPerHost
		}
		transport = baseTransport
	}

	if cfg.HTTP.UserAgent != "" {
		transport = &userAgentTransport{Base: transport, UserAgent: cfg.HTTP.UserAgent}
	}
	httpClient.Transport = transport

	if cfg.HTTP.Timeout > 0 {
		httpClient.Timeout = time.Duration(cfg.HTTP.Timeout) * time.Second
	}

	artifactCache := cache.New(p.DownloadsDir(), httpClient)
	registry := reporegistry.New(p, cfg.GitHub.Token)
	resolver := formularesolver.New(registry)

	installer := &install.Engine{
		Paths:          p,
		Resolver:       resolver,
		Cache:          artifactCache,
		TargetPlatform: sysinfo.Probe(ctx).TargetPlatform(),
	}

	for _, repoCfg := range cfg.Repositories {
		if err := ensureRepoRegistered(registry, repoCfg); err != nil {
			return nil, err
		}
	}

	return &Application{
		Config:     cfg,
		Paths:      p,
		MainPool:   mainPool,
		HTTPClient: httpClient,
		Cache:      artifactCache,
		Registry:   registry,
		Resolver:   resolver,
		Installer:  installer,
	}, nil
}

// ensureRepoRegistered clones repoCfg's repository under repos.d/ if it is
// not already present, mirroring the declarative repositories list a config
// file may carry. A repository already on disk is left untouched: config
// does not re-pin or re-enable an existing clone, only `formula-repo`
// subcommands mutate an already-registered repository.
func ensureRepoRegistered(registry *reporegistry.Registry, repoCfg config.RepositoryConfig) error {
	repos, err := registry.List()
	if err != nil {
		return err
	}
	for _, repo := range repos {
		if repo.Name == repoCfg.Name {
			return nil
		}
	}
	return registry.Add(repoCfg.Name, repoCfg.URL, repoCfg.Branch, repoCfg.Pinned, repoCfg.Enabled)
}

// Shutdown gracefully stops all application components.
func (a *Application) Shutdown() {
	if a.MainPool != nil {
		a.MainPool.StopAndWait()
	}
}

// userAgentTransport wraps an http.RoundTripper to set a custom User-Agent header.
type userAgentTransport struct {
	Base      http.RoundTripper
	UserAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	return t.Base.RoundTrip(req)
}
