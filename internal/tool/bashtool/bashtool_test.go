package bashtool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/eventbus"
	"github.com/corvidrun/corvid/internal/sandbox/exec"
	"github.com/corvidrun/corvid/internal/sandbox/mount"
	"github.com/corvidrun/corvid/internal/sandbox/permission"
)

type fakeBackend struct {
	shell bool
	res   exec.Result
	err   error
	calls int
}

func (f *fakeBackend) Name() string        { return "fake" }
func (f *fakeBackend) SupportsShell() bool { return f.shell }
func (f *fakeBackend) Execute(ctx context.Context, command string, mounts *mount.Table, timeout time.Duration) (exec.Result, error) {
	f.calls++
	return f.res, f.err
}

func newTestTool(t *testing.T, backend exec.Backend) (*Tool, *mount.Table) {
	t.Helper()
	mounts, err := mount.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mounts.Close() })

	tool := New(mounts, permission.NewStore(permission.ConfigOverrides{}), permission.NewApprovalChannel(), eventbus.New())
	tool.backend = backend
	return tool, mounts
}

func callArgs(command string) string {
	b, _ := json.Marshal(args{Command: command})
	return string(b)
}

func TestBashToolRunsSessionTierCommandImmediately(t *testing.T) {
	backend := &fakeBackend{shell: true, res: exec.Result{Stdout: "file1\nfile2\n"}}
	tool, _ := newTestTool(t, backend)

	out, err := tool.Execute(context.Background(), callArgs("ls"))
	require.NoError(t, err)
	assert.False(t, out.IsError)
	assert.Contains(t, out.Content, "file1")
	assert.Equal(t, 1, backend.calls, "session-tier command must not wait for approval")
}

func TestBashToolRefusesRestrictedCommandWithoutPrompting(t *testing.T) {
	backend := &fakeBackend{shell: true}
	tool, _ := newTestTool(t, backend)

	out, err := tool.Execute(context.Background(), callArgs("sudo rm -rf /"))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Equal(t, 0, backend.calls, "restricted commands must never execute")
}

func TestBashToolWaitsForApprovalOnPerCallCommand(t *testing.T) {
	backend := &fakeBackend{shell: true, res: exec.Result{Stdout: "ok"}}
	tool, _ := newTestTool(t, backend)

	go func() {
		req := <-tool.approve.Requests
		req.RespondTo <- permission.ApprovalResponse{Approved: true}
	}()

	out, err := tool.Execute(context.Background(), callArgs("rm file.txt"))
	require.NoError(t, err)
	assert.False(t, out.IsError)
	assert.Equal(t, 1, backend.calls)
}

func TestBashToolDeniedApprovalDoesNotExecute(t *testing.T) {
	backend := &fakeBackend{shell: true}
	tool, _ := newTestTool(t, backend)

	go func() {
		req := <-tool.approve.Requests
		req.RespondTo <- permission.ApprovalResponse{Approved: false}
	}()

	out, err := tool.Execute(context.Background(), callArgs("rm file.txt"))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Equal(t, 0, backend.calls)
}

func TestBashToolAllowForSessionPromotesCommand(t *testing.T) {
	backend := &fakeBackend{shell: true, res: exec.Result{Stdout: "ok"}}
	tool, _ := newTestTool(t, backend)

	go func() {
		req := <-tool.approve.Requests
		req.RespondTo <- permission.ApprovalResponse{Approved: true, PromoteSession: true}
	}()
	_, err := tool.Execute(context.Background(), callArgs("rm file.txt"))
	require.NoError(t, err)

	assert.Equal(t, permission.TierSession, tool.perms.CheckTier("rm"), "approved-for-session command should be promoted")

	_, err = tool.Execute(context.Background(), callArgs("rm other.txt"))
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls, "second call should run without a further approval prompt")
}

func TestBashToolFormatsNonZeroExitCode(t *testing.T) {
	backend := &fakeBackend{shell: true, res: exec.Result{Stdout: "", ExitCode: 1}}
	tool, _ := newTestTool(t, backend)

	out, err := tool.Execute(context.Background(), callArgs("ls"))
	require.NoError(t, err)
	assert.Contains(t, out.Content, "exit code 1")
}

func TestBashToolReportsTimeout(t *testing.T) {
	backend := &fakeBackend{shell: true, res: exec.Result{TimedOut: true, Stderr: "command timed out after 30s"}}
	tool, _ := newTestTool(t, backend)

	out, err := tool.Execute(context.Background(), callArgs("ls"))
	require.NoError(t, err)
	assert.Contains(t, out.Content, "timed out")
}

func TestBashToolAppLevelRejectsPerCallCommandEvenWithoutShellOperators(t *testing.T) {
	backend := &fakeBackend{shell: false}
	tool, _ := newTestTool(t, backend)

	out, err := tool.Execute(context.Background(), callArgs("rm file.txt"))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Content, "app-level sandbox mode")
	assert.Equal(t, 0, backend.calls, "PerCall command must never reach Execute on the app-level backend")
}

func TestBashToolAppLevelRejectsShellOperatorsEvenForSessionTier(t *testing.T) {
	backend := &fakeBackend{shell: false}
	tool, _ := newTestTool(t, backend)

	out, err := tool.Execute(context.Background(), callArgs("ls | grep foo"))
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Equal(t, 0, backend.calls)
}
