package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyName(t *testing.T) {
	cfg := &Config{Repositories: []RepositoryConfig{{URL: "https://example.org/x.git"}}}
	err := validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRepositoryNameEmpty)
}

func TestValidateRejectsInvalidName(t *testing.T) {
	cfg := &Config{Repositories: []RepositoryConfig{{Name: "has space", URL: "https://example.org/x.git"}}}
	err := validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRepositoryNameInvalid)
}

func TestValidateRejectsMissingURL(t *testing.T) {
	cfg := &Config{Repositories: []RepositoryConfig{{Name: "core"}}}
	err := validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRepositoryURLEmpty)
}

func TestValidateRejectsDuplicateName(t *testing.T) {
	cfg := &Config{Repositories: []RepositoryConfig{
		{Name: "core", URL: "https://example.org/a.git"},
		{Name: "core", URL: "https://example.org/b.git"},
	}}
	err := validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateRepository)
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateRepoURL("https://example.org/core.git"))
	assert.Error(t, ValidateRepoURL("example.org/core.git"))
}
