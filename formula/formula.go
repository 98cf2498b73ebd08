// Package formula describes one installable package version: the metadata
// parsed from a repository's formula file, merged against a target
// platform's overrides. It is the one library package meant to be
// imported independently of the rest of ppkgd, standing apart from
// internal/.
package formula

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamePattern is the grammar a package identifier must satisfy:
// non-empty, printable, matching [A-Za-z0-9._+-]+. Case-sensitive.
var NamePattern = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)

// ValidName reports whether name is a well-formed package identifier.
func ValidName(name string) bool {
	return name != "" && NamePattern.MatchString(name)
}

// PlatformOverride carries the subset of fields a platform-specific
// block may override.
type PlatformOverride struct {
	BinURL  string `yaml:"bin_url,omitempty"`
	BinSha  string `yaml:"bin_sha,omitempty"`
	DepPkg  string `yaml:"dep_pkg,omitempty"`
	Unpackd string `yaml:"unpackd,omitempty"`
	Install string `yaml:"install,omitempty"`
}

// Raw is the as-parsed shape of a formula YAML file, before a target
// platform's overrides are merged in.
type Raw struct {
	Summary   string                       `yaml:"summary,omitempty"`
	Webpage   string                       `yaml:"webpage,omitempty"`
	Version   string                       `yaml:"version,omitempty"`
	BinURL    string                       `yaml:"bin_url"`
	BinSha    string                       `yaml:"bin_sha"`
	DepPkg    string                       `yaml:"dep_pkg,omitempty"`
	Unpackd   string                       `yaml:"unpackd,omitempty"`
	Install   string                       `yaml:"install,omitempty"`
	Platforms map[string]*PlatformOverride `yaml:"platforms,omitempty"`
}

// Formula is an immutable record describing one package version, fully
// resolved for a target platform.
type Formula struct {
	Summary string
	Webpage string
	Version string
	BinURL  string
	BinSha  string
	DepPkg  string // ordered whitespace-separated list of package identifiers
	Unpackd string
	Install string

	// Path is the absolute path on disk to the formula file this record
	// was loaded from.
	Path string
}

// Deps splits DepPkg on whitespace, dropping empty fields. An empty or
// absent dep_pkg yields a leaf package.
func (f *Formula) Deps() []string {
	if f.DepPkg == "" {
		return nil
	}
	fields := strings.Fields(f.DepPkg)
	return fields
}

// ParseAndResolve parses formula YAML data and merges in the
// platform-specific override for targetPlatform, if one is declared.
// path is recorded on the returned Formula for provenance.
func ParseAndResolve(data []byte, targetPlatform string, path string) (*Formula, error) {
	var raw Raw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing formula %s: %w", path, err)
	}

	f := &Formula{
		Summary: raw.Summary,
		Webpage: raw.Webpage,
		Version: raw.Version,
		BinURL:  raw.BinURL,
		BinSha:  raw.BinSha,
		DepPkg:  raw.DepPkg,
		Unpackd: raw.Unpackd,
		Install: raw.Install,
		Path:    path,
	}

	if override, ok := raw.Platforms[targetPlatform]; ok && override != nil {
		if override.BinURL != "" {
			f.BinURL = override.BinURL
		}
		if override.BinSha != "" {
			f.BinSha = override.BinSha
		}
		if override.DepPkg != "" {
			f.DepPkg = override.DepPkg
		}
		if override.Unpackd != "" {
			f.Unpackd = override.Unpackd
		}
		if override.Install != "" {
			f.Install = override.Install
		}
	}

	if f.BinURL == "" {
		return nil, fmt.Errorf("formula %s: %w: bin_url is required", path, errMissingField)
	}
	if len(f.BinSha) != 64 {
		return nil, fmt.Errorf("formula %s: %w: bin_sha must be 64 hex characters", path, errMissingField)
	}

	return f, nil
}

var errMissingField = fmt.Errorf("missing required field")
