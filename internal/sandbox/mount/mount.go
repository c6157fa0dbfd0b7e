// Package mount manages the sandbox's view of the host filesystem: a
// read-write project root, a read-write per-session scratch directory that
// persists across commands, and a growing list of read-only extra mounts
// the agent can request via the mount_external tool.
package mount

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/corvidrun/corvid/internal/sandbox/permission"
	"github.com/corvidrun/corvid/internal/tool"
)

// Point is one read-only mount requested outside the project root.
type Point struct {
	HostPath string
	Label    string
}

// Table tracks the project root, scratch directory, and extra mounts for
// one sandboxed session.
type Table struct {
	projectRoot string
	scratchDir  string
	cleanup     func() error

	mu    sync.RWMutex
	extra []Point
}

// New creates a Table rooted at projectRoot, allocating a fresh per-session
// scratch directory under the OS temp dir.
func New(projectRoot string) (*Table, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	scratch, err := os.MkdirTemp("", "corvid-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Table{
		projectRoot: abs,
		scratchDir:  scratch,
		cleanup:     func() error { return os.RemoveAll(scratch) },
	}, nil
}

// ProjectRoot returns the read-write project root.
func (t *Table) ProjectRoot() string { return t.projectRoot }

// ScratchDir returns the per-session read-write scratch directory.
func (t *Table) ScratchDir() string { return t.scratchDir }

// Close removes the scratch directory, releasing all disk it used.
func (t *Table) Close() error { return t.cleanup() }

// AddMount records a new read-only extra mount, ignoring duplicates.
func (t *Table) AddMount(p Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.extra {
		if m.HostPath == p.HostPath {
			return
		}
	}
	t.extra = append(t.extra, p)
}

// RemoveMount drops a previously added extra mount.
func (t *Table) RemoveMount(hostPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.extra[:0]
	for _, m := range t.extra {
		if m.HostPath != hostPath {
			kept = append(kept, m)
		}
	}
	t.extra = kept
}

// ListExtra returns a snapshot of all extra read-only mounts.
func (t *Table) ListExtra() []Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Point, len(t.extra))
	copy(out, t.extra)
	return out
}

// IsMounted reports whether path is the project root, the scratch dir, or
// an already-registered extra mount.
func (t *Table) IsMounted(path string) bool {
	if path == t.projectRoot || path == t.scratchDir {
		return true
	}
	for _, m := range t.ListExtra() {
		if m.HostPath == path {
			return true
		}
	}
	return false
}

// FormatMounts renders a human-readable summary of the project root, the
// scratch dir, and every extra mount.
func (t *Table) FormatMounts() string {
	lines := []string{
		fmt.Sprintf("  %s (read-write, project root)", t.projectRoot),
		fmt.Sprintf("  /tmp -> %s (read-write, per-session scratch)", t.scratchDir),
	}
	for _, m := range t.ListExtra() {
		label := ""
		if m.Label != "" {
			label = " (" + m.Label + ")"
		}
		lines = append(lines, fmt.Sprintf("  %s (read-only%s)", m.HostPath, label))
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

const mountToolDescription = `Request read-only access to an additional directory outside the project root.

Use this when you need to read files from a path that isn't within the project directory. The user will be prompted to approve the mount. If approved, the directory becomes accessible (read-only) in subsequent commands. The mount persists for the remainder of the session.`

// ExternalTool is the mount_external tool: it asks the user for approval
// before adding a new read-only mount to the Table.
type ExternalTool struct {
	table   *Table
	approve *permission.ApprovalChannel
}

// NewExternalTool constructs the mount_external tool.
func NewExternalTool(table *Table, approve *permission.ApprovalChannel) *ExternalTool {
	return &ExternalTool{table: table, approve: approve}
}

func (e *ExternalTool) Name() string { return "mount_external" }
func (e *ExternalTool) Description() string {
	return "Request read-only access to a directory outside the project root"
}
func (e *ExternalTool) IsBlocking() bool { return true }

func (e *ExternalTool) Definition() tool.Definition {
	return tool.Definition{
		Name:        e.Name(),
		Description: mountToolDescription,
		Parameters: tool.ToolParameters{
			Type: "object",
			Properties: map[string]tool.PropertySchema{
				"path":   {Type: "string", Description: "Absolute path to the directory to mount"},
				"reason": {Type: "string", Description: "Brief explanation of why this access is needed"},
			},
			Required: []string{"path", "reason"},
		},
	}
}

type externalArgs struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e *ExternalTool) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args externalArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure("invalid arguments: " + err.Error()), nil
	}
	if !filepath.IsAbs(args.Path) {
		return tool.Failure("path must be absolute (e.g. /data/datasets)"), nil
	}
	info, err := os.Stat(args.Path)
	if err != nil {
		return tool.Failure(fmt.Sprintf("path does not exist: %s", args.Path)), nil
	}
	if !info.IsDir() {
		return tool.Failure(fmt.Sprintf("path is not a directory: %s", args.Path)), nil
	}
	canonical, err := filepath.EvalSymlinks(args.Path)
	if err != nil {
		return tool.Failure("failed to resolve path: " + err.Error()), nil
	}

	if e.table.IsMounted(canonical) {
		return tool.Success(fmt.Sprintf("directory already accessible: %s", canonical)), nil
	}

	resp, err := e.approve.Request(ctx, fmt.Sprintf("mount %s (reason: %s)", canonical, args.Reason), permission.TierPerCall)
	if err != nil {
		return tool.Failure("mount approval failed: " + err.Error()), nil
	}
	if !resp.Approved {
		return tool.Failure("mount request denied by user."), nil
	}

	e.table.AddMount(Point{HostPath: canonical, Label: args.Reason})
	return tool.Success(fmt.Sprintf("mount approved. %s is now accessible (read-only) in commands.", canonical)), nil
}
