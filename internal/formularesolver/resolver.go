// Package formularesolver looks up a package's Formula by name, searching
// enabled repositories in registry order.
package formularesolver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppkgd/ppkgd/formula"
	"github.com/ppkgd/ppkgd/internal/ppkgerr"
	"github.com/ppkgd/ppkgd/internal/reporegistry"
)

// Resolver locates formula files within a RepoRegistry's enabled repos.
type Resolver struct {
	registry *reporegistry.Registry
}

// New returns a Resolver backed by registry.
func New(registry *reporegistry.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Lookup searches enabled repositories in registry order for packageName,
// resolved against targetPlatform. Results are not cached: a second call
// re-reads from disk and re-walks the registry.
func (r *Resolver) Lookup(packageName, targetPlatform string) (*formula.Formula, error) {
	repos, err := r.registry.Enabled()
	if err != nil {
		return nil, err
	}

	for _, repo := range repos {
		path := filepath.Join(r.registry.RepoPath(repo.Name), "formula", packageName+".yml")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, &ppkgerr.FilesystemError{Path: path, Err: err}
		}

		f, err := formula.ParseAndResolve(data, targetPlatform, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ppkgerr.ErrFormulaParse, err)
		}
		return f, nil
	}

	return nil, fmt.Errorf("%w: %s", ppkgerr.ErrFormulaNotFound, packageName)
}
