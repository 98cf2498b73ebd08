package formula

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("zlib"))
	assert.True(t, ValidName("foo.bar_baz+qux-1"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("has space"))
	assert.False(t, ValidName("has/slash"))
}

func TestDeps(t *testing.T) {
	f := &Formula{DepPkg: "  b   c  "}
	assert.Equal(t, []string{"b", "c"}, f.Deps())

	f = &Formula{DepPkg: ""}
	assert.Nil(t, f.Deps())
}

func TestParseAndResolveDefaults(t *testing.T) {
	data := []byte(`
summary: a library
bin_url: https://example.org/a.tgz
bin_sha: ` + strings.Repeat("a", 64) + `
dep_pkg: "b c"
`)
	f, err := ParseAndResolve(data, "linux-x86_64", "/repo/formula/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a.tgz", f.BinURL)
	assert.Equal(t, strings.Repeat("a", 64), f.BinSha)
	assert.Equal(t, []string{"b", "c"}, f.Deps())
	assert.Equal(t, "/repo/formula/a.yml", f.Path)
}

func TestParseAndResolvePlatformOverride(t *testing.T) {
	shaDefault := strings.Repeat("a", 64)
	shaLinux := strings.Repeat("b", 64)
	data := []byte(`
bin_url: https://example.org/a-default.tgz
bin_sha: ` + shaDefault + `
platforms:
  linux-x86_64:
    bin_url: https://example.org/a-linux.tgz
    bin_sha: ` + shaLinux + `
  darwin-arm64:
    bin_url: https://example.org/a-darwin.tgz
`)
	f, err := ParseAndResolve(data, "linux-x86_64", "/repo/formula/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a-linux.tgz", f.BinURL)
	assert.Equal(t, shaLinux, f.BinSha)

	f, err = ParseAndResolve(data, "darwin-arm64", "/repo/formula/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a-darwin.tgz", f.BinURL)
	assert.Equal(t, shaDefault, f.BinSha, "unset override field falls back to default")

	f, err = ParseAndResolve(data, "windows-x86_64", "/repo/formula/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a-default.tgz", f.BinURL, "unknown platform uses top-level defaults")
}

func TestParseAndResolveRequiresBinSha(t *testing.T) {
	data := []byte(`bin_url: https://example.org/a.tgz`)
	_, err := ParseAndResolve(data, "linux-x86_64", "/repo/formula/a.yml")
	require.Error(t, err)
}

func TestParseAndResolveRequiresBinURL(t *testing.T) {
	data := []byte(`bin_sha: ` + strings.Repeat("a", 64))
	_, err := ParseAndResolve(data, "linux-x86_64", "/repo/formula/a.yml")
	require.Error(t, err)
}
