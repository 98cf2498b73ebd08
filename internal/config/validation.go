package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// repoNamePattern mirrors formula.NamePattern: repository names are
// package-identifier-shaped.
var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)

// Validation errors.
var (
	ErrRepositoryNameEmpty   = errors.New("repository name is required")
	ErrRepositoryNameInvalid = errors.New("repository name is invalid")
	ErrRepositoryURLEmpty    = errors.New("repository url is required")
	ErrDuplicateRepository   = errors.New("duplicate repository name")
)

// validate performs validation on the loaded configuration.
func validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Repositories))

	for _, repo := range cfg.Repositories {
		if repo.Name == "" {
			return ErrRepositoryNameEmpty
		}
		if !repoNamePattern.MatchString(repo.Name) {
			return fmt.Errorf("%w: %q", ErrRepositoryNameInvalid, repo.Name)
		}
		if repo.URL == "" {
			return fmt.Errorf("%w: %q", ErrRepositoryURLEmpty, repo.Name)
		}
		if seen[repo.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateRepository, repo.Name)
		}
		seen[repo.Name] = true
	}

	return nil
}

// ValidateRepoURL is exercised by `ppkgd formula-repo add` before attempting
// a clone, to fail fast on an obviously malformed repository URL.
func ValidateRepoURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url %q must include a scheme", rawURL)
	}
	return nil
}
