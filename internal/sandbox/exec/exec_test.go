package exec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/sandbox/mount"
)

func newTestMounts(t *testing.T) *mount.Table {
	t.Helper()
	tbl, err := mount.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func TestAppLevelExecutesSimpleCommand(t *testing.T) {
	mounts := newTestMounts(t)
	a := &AppLevel{}

	res, err := a.Execute(context.Background(), "echo hello", mounts, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
}

func TestAppLevelRejectsShellOperators(t *testing.T) {
	mounts := newTestMounts(t)
	a := &AppLevel{}

	_, err := a.Execute(context.Background(), "echo hello | cat", mounts, 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestAppLevelReportsNonZeroExit(t *testing.T) {
	mounts := newTestMounts(t)
	a := &AppLevel{}

	res, err := a.Execute(context.Background(), "false", mounts, 5*time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
}

func TestAppLevelRejectsUnknownProgram(t *testing.T) {
	mounts := newTestMounts(t)
	a := &AppLevel{}

	_, err := a.Execute(context.Background(), "definitely-not-a-real-program-xyz", mounts, 5*time.Second)
	assert.Error(t, err)
}

func TestAppLevelTimesOutLongRunningCommand(t *testing.T) {
	mounts := newTestMounts(t)
	a := &AppLevel{}

	res, err := a.Execute(context.Background(), "sleep 5", mounts, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
}

func TestDetectReturnsAUsableBackendName(t *testing.T) {
	b := Detect()
	assert.NotEmpty(t, b.Name())
}
