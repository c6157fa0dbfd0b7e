//go:build !linux

package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidrun/corvid/internal/sandbox/mount"
)

// Execute is unavailable off Linux: namespace isolation has no portable
// equivalent, so Detect never selects Kernel on these platforms, but the
// method still needs a body to satisfy the Backend interface.
func (k *Kernel) Execute(ctx context.Context, command string, mounts *mount.Table, timeout time.Duration) (Result, error) {
	return Result{}, fmt.Errorf("kernel sandbox backend is only available on linux")
}

func probeUserNamespacesUncached() bool { return false }

// SandboxInitMain is a no-op off Linux; there is no re-exec path to take.
func SandboxInitMain() {}
