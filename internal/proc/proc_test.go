package proc

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExitedSuccess(t *testing.T) {
	var stdout bytes.Buffer
	status, err := Run(context.Background(), Request{
		Argv:   []string{"/bin/sh", "-c", "echo hi"},
		Stdout: &stdout,
	})
	require.NoError(t, err)
	code, ok := status.Exited()
	assert.True(t, ok)
	assert.Equal(t, 0, code)
	assert.True(t, status.Success())
	assert.Equal(t, "hi\n", stdout.String())
}

func TestRunExitedNonZero(t *testing.T) {
	status, err := Run(context.Background(), Request{
		Argv: []string{"/bin/sh", "-c", "exit 7"},
	})
	require.NoError(t, err)
	code, ok := status.Exited()
	assert.True(t, ok)
	assert.Equal(t, 7, code)
	assert.False(t, status.Success())
}

func TestRunSignaled(t *testing.T) {
	status, err := Run(context.Background(), Request{
		Argv: []string{"/bin/sh", "-c", "kill -TERM $$"},
	})
	require.NoError(t, err)
	sig, ok := status.Signaled()
	assert.True(t, ok)
	assert.Equal(t, "terminated", sig.String())
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Request{
		Argv: []string{"/no/such/binary-ppkgd-test"},
	})
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	s := Status{kind: kindExited, code: 0}
	assert.Equal(t, "exited with status 0", s.String())
	s = Status{kind: kindExited, code: 3}
	assert.Equal(t, "exited with status 3", s.String())
}
