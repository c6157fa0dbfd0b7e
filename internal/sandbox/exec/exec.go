// Package exec runs sandboxed commands through one of two backends: a
// kernel backend using Linux user/mount namespaces for full shell-pipeline
// support, or an app-level fallback that execs a single program directly
// with no shell and rejects pipeline syntax outright.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/corvidrun/corvid/internal/sandbox/mount"
	"github.com/corvidrun/corvid/internal/sandbox/parse"
)

// Result is the outcome of running one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Backend is a sandboxed command execution strategy.
type Backend interface {
	// Name is a human-readable identifier shown in diagnostics.
	Name() string
	// SupportsShell reports whether this backend can honor pipes,
	// redirects, and chaining operators.
	SupportsShell() bool
	Execute(ctx context.Context, command string, mounts *mount.Table, timeout time.Duration) (Result, error)
}

// Detect picks the best available backend: Kernel on Linux when user
// namespaces are usable, AppLevel everywhere else.
func Detect() Backend {
	if runtime.GOOS == "linux" && probeUserNamespaces() {
		return &Kernel{}
	}
	return &AppLevel{}
}

// nsProbeState caches the outcome of the one-time namespace probe: 0 = not
// probed, 1 = available, 2 = unavailable.
var nsProbeState atomic.Int32

func probeUserNamespaces() bool {
	switch nsProbeState.Load() {
	case 1:
		return true
	case 2:
		return false
	}
	ok := probeUserNamespacesUncached()
	if ok {
		nsProbeState.Store(1)
	} else {
		nsProbeState.Store(2)
	}
	return ok
}

// Kernel isolates each command in its own mount and user namespace,
// bind-mounting the project root read-write, the scratch dir read-write,
// and every extra mount read-only, then execs a real shell so pipelines
// and redirects work exactly as the model expects. Its Execute method is
// platform-specific (see exec_linux.go / exec_other.go) since it relies on
// Linux namespace syscalls.
type Kernel struct{}

func (k *Kernel) Name() string        { return "kernel" }
func (k *Kernel) SupportsShell() bool { return true }

// AppLevel sandboxes by refusing anything a plain exec can't express
// safely: no pipes, no redirects, direct program invocation only. It is
// the fallback on non-Linux hosts or when namespaces are unavailable.
type AppLevel struct{}

func (a *AppLevel) Name() string        { return "app-level" }
func (a *AppLevel) SupportsShell() bool { return false }

func (a *AppLevel) Execute(ctx context.Context, command string, mounts *mount.Table, timeout time.Duration) (Result, error) {
	if parse.HasShellOperators(command) {
		return Result{}, fmt.Errorf("shell operators (pipes, redirects, etc.) are not supported in app-level sandbox mode; kernel sandbox is required for pipeline commands")
	}

	tokens := parse.Tokenize(command)
	if len(tokens) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	program, err := resolveProgram(tokens[0])
	if err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, program, tokens[1:]...)
	cmd.Dir = mounts.ProjectRoot()
	cmd.Env = sandboxEnv(mounts.ScratchDir())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		res.Stderr = fmt.Sprintf("command timed out after %s", timeout)
		return res, nil
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return Result{}, fmt.Errorf("failed to execute command: %w", err)
	}
	return res, nil
}

func sandboxEnv(scratchDir string) []string {
	return []string{
		"HOME=" + scratchDir,
		"TMPDIR=" + scratchDir,
		"TERM=dumb",
		"GIT_TERMINAL_PROMPT=0",
		"LC_ALL=C.UTF-8",
		"PATH=/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin",
	}
}

func resolveProgram(program string) (string, error) {
	if filepath.IsAbs(program) || filepath.Base(program) != program {
		if _, err := exec.LookPath(program); err == nil {
			return program, nil
		}
		return "", fmt.Errorf("program not found: %s", program)
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", fmt.Errorf("program not found in PATH: %s", program)
	}
	return path, nil
}
