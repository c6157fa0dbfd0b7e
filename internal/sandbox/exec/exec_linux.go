//go:build linux

package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/corvidrun/corvid/internal/sandbox/mount"
)

// sandboxInitEnv is set on the re-exec'd child so SandboxInitMain knows to
// take the mount+exec path instead of the normal CLI entrypoint.
const sandboxInitEnv = "CORVID_SANDBOX_INIT"

type sandboxSpec struct {
	Root    string   `json:"root"`
	Scratch string   `json:"scratch"`
	Extra   []string `json:"extra"`
	Command string   `json:"command"`
}

// Execute re-execs the current binary into a fresh mount+user namespace,
// where the child bind-mounts the project root, scratch dir, and every
// extra mount, then execve's a real shell to run command — giving full
// pipe/redirect support. The system directories and extra mounts are
// re-bound read-only in place; there is no pivot_root or chroot, so host
// paths outside those binds stay visible with the caller's own access.
func (k *Kernel) Execute(ctx context.Context, command string, mounts *mount.Table, timeout time.Duration) (Result, error) {
	self, err := os.Executable()
	if err != nil {
		return Result{}, fmt.Errorf("resolve self executable: %w", err)
	}

	extra := make([]string, 0)
	for _, m := range mounts.ListExtra() {
		extra = append(extra, m.HostPath)
	}
	spec := sandboxSpec{
		Root:    mounts.ProjectRoot(),
		Scratch: mounts.ScratchDir(),
		Extra:   extra,
		Command: command,
	}
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return Result{}, fmt.Errorf("marshal sandbox spec: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, self)
	cmd.Env = append(os.Environ(), sandboxInitEnv+"="+string(specJSON))
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWNS | unix.CLONE_NEWUSER,
		UidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getuid(), Size: 1},
		},
		GidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getgid(), Size: 1},
		},
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		res.Stderr = fmt.Sprintf("command timed out after %s", timeout)
		return res, nil
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("sandbox execution failed: %w", runErr)
	}
	return res, nil
}

// SandboxInitMain is the re-exec entrypoint: when CORVID_SANDBOX_INIT is
// set, the process is already running inside a fresh mount+user namespace
// (set up by the parent's Cloneflags) and must bind-mount its view of the
// filesystem before handing off to a shell. Call this first thing in
// main() — it never returns when the env var is set.
func SandboxInitMain() {
	raw, ok := os.LookupEnv(sandboxInitEnv)
	if !ok {
		return
	}
	var spec sandboxSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		fmt.Fprintln(os.Stderr, "corvid sandbox: bad spec:", err)
		os.Exit(1)
	}

	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		fmt.Fprintln(os.Stderr, "corvid sandbox: make-private failed:", err)
		os.Exit(1)
	}

	for _, sys := range []string{"/bin", "/usr", "/lib", "/etc", "/sbin", "/lib64", "/lib32"} {
		if _, err := os.Stat(sys); err != nil {
			continue
		}
		bindMountRO(sys, sys)
	}
	unix.Mount("proc", "/proc", "proc", 0, "")
	unix.Mount("tmpfs", "/dev", "tmpfs", 0, "")

	bindMountRW(spec.Scratch, "/tmp")
	bindMountRW(spec.Root, spec.Root)
	for _, extra := range spec.Extra {
		bindMountRO(extra, extra)
	}

	if err := os.Chdir(spec.Root); err != nil {
		fmt.Fprintln(os.Stderr, "corvid sandbox: chdir failed:", err)
		os.Exit(1)
	}

	env := sandboxEnv(spec.Scratch)
	if err := syscall.Exec("/bin/sh", []string{"/bin/sh", "-c", spec.Command}, env); err != nil {
		fmt.Fprintln(os.Stderr, "corvid sandbox: exec failed:", err)
		os.Exit(1)
	}
}

func bindMountRO(src, dst string) {
	if err := unix.Mount(src, dst, "", unix.MS_BIND, ""); err != nil {
		return
	}
	unix.Mount("", dst, "", unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY, "")
}

func bindMountRW(src, dst string) {
	_ = os.MkdirAll(dst, 0o755)
	unix.Mount(src, dst, "", unix.MS_BIND, "")
}

// probeUserNamespacesUncached spins up a throwaway /bin/true invocation in
// a fresh user+mount namespace to confirm the kernel allows unprivileged
// namespace creation (disabled by some hardened kernels and containers).
func probeUserNamespacesUncached() bool {
	cmd := exec.Command("/bin/true")
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWNS | unix.CLONE_NEWUSER,
		UidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getuid(), Size: 1},
		},
		GidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getgid(), Size: 1},
		},
	}
	return cmd.Run() == nil
}
