package sysinfo

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeReportsRuntimeBasics(t *testing.T) {
	info := Probe(context.Background())
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.GreaterOrEqual(t, info.NumCPU, 1)
}

func TestTargetPlatform(t *testing.T) {
	info := Info{OS: "linux", Arch: "x86_64"}
	assert.Equal(t, "linux-x86_64", info.TargetPlatform())
}
