package mount

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvidrun/corvid/internal/sandbox/permission"
)

func TestNewAllocatesScratchDir(t *testing.T) {
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	info, err := os.Stat(tbl.ScratchDir())
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestAddMountIgnoresDuplicates(t *testing.T) {
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	tbl.AddMount(Point{HostPath: "/data"})
	tbl.AddMount(Point{HostPath: "/data"})
	require.Len(t, tbl.ListExtra(), 1)
}

func TestRemoveMount(t *testing.T) {
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	tbl.AddMount(Point{HostPath: "/data"})
	tbl.RemoveMount("/data")
	require.Empty(t, tbl.ListExtra())
}

func TestIsMountedCoversRootScratchAndExtra(t *testing.T) {
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	require.True(t, tbl.IsMounted(tbl.ProjectRoot()))
	require.True(t, tbl.IsMounted(tbl.ScratchDir()))
	tbl.AddMount(Point{HostPath: "/data"})
	require.True(t, tbl.IsMounted("/data"))
	require.False(t, tbl.IsMounted("/nope"))
}

func TestExternalToolRejectsRelativePath(t *testing.T) {
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	et := NewExternalTool(tbl, permission.NewApprovalChannel())
	out, err := et.Execute(context.Background(), `{"path":"relative","reason":"x"}`)
	require.NoError(t, err)
	require.True(t, out.IsError)
}

func TestExternalToolAddsMountOnApproval(t *testing.T) {
	extraDir := t.TempDir()
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	approve := permission.NewApprovalChannel()
	et := NewExternalTool(tbl, approve)

	go func() {
		req := <-approve.Requests
		req.RespondTo <- permission.ApprovalResponse{Approved: true}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, _ := json.Marshal(map[string]string{"path": extraDir, "reason": "dataset access"})
	out, err := et.Execute(ctx, string(raw))
	require.NoError(t, err)
	require.False(t, out.IsError)
	require.Len(t, tbl.ListExtra(), 1)
}

func TestExternalToolDeniedLeavesTableUntouched(t *testing.T) {
	extraDir := t.TempDir()
	tbl, err := New(t.TempDir())
	require.NoError(t, err)
	defer tbl.Close()

	approve := permission.NewApprovalChannel()
	et := NewExternalTool(tbl, approve)

	go func() {
		req := <-approve.Requests
		req.RespondTo <- permission.ApprovalResponse{Approved: false}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, _ := json.Marshal(map[string]string{"path": extraDir, "reason": "dataset access"})
	out, err := et.Execute(ctx, string(raw))
	require.NoError(t, err)
	require.True(t, out.IsError)
	require.Empty(t, tbl.ListExtra())
}
