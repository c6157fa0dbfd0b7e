// Package bashtool implements the "bash" tool: the single entry point that
// ties the pipeline parser, the three-tier permission store, the approval
// channel, and the kernel/app-level execution backends together into the
// sandboxed-command pipeline described by the runtime's approval design.
package bashtool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/corvidrun/corvid/internal/eventbus"
	"github.com/corvidrun/corvid/internal/sandbox/exec"
	"github.com/corvidrun/corvid/internal/sandbox/mount"
	"github.com/corvidrun/corvid/internal/sandbox/parse"
	"github.com/corvidrun/corvid/internal/sandbox/permission"
	"github.com/corvidrun/corvid/internal/tool"
)

const defaultTimeout = 30 * time.Second
const maxTimeout = 300 * time.Second
const maxOutputBytes = 16000

const description = `Runs a shell command. Read-only commands (ls, cat, grep, git log, ...) run
immediately. State-changing commands (rm, git commit, cargo build, ...)
require the user's approval first. A fixed set of commands (sudo, curl,
wget, ssh, dd, mkfs, ...) are always refused and never prompted.`

// Tool is the bash tool bound to one sandboxed session.
type Tool struct {
	backend        exec.Backend
	mounts         *mount.Table
	perms          *permission.Store
	approve        *permission.ApprovalChannel
	bus            *eventbus.Bus
	log            hclog.Logger
	defaultTimeout time.Duration
}

// New constructs the bash tool against a shared mount table, permission
// store, and approval channel — all three are also shared with
// mount.ExternalTool so session-wide promotions and mounts apply
// consistently across every sandboxed call.
func New(mounts *mount.Table, perms *permission.Store, approve *permission.ApprovalChannel, bus *eventbus.Bus) *Tool {
	return &Tool{
		backend:        exec.Detect(),
		mounts:         mounts,
		perms:          perms,
		approve:        approve,
		bus:            bus,
		log:            hclog.Default().Named("sandbox"),
		defaultTimeout: defaultTimeout,
	}
}

// WithDefaultTimeout overrides the timeout applied when a call omits
// timeout_sec, clamped to maxTimeout, per config.SandboxConfig.
func (t *Tool) WithDefaultTimeout(d time.Duration) *Tool {
	if d > 0 {
		if d > maxTimeout {
			d = maxTimeout
		}
		t.defaultTimeout = d
	}
	return t
}

func (*Tool) Name() string        { return "bash" }
func (*Tool) Description() string { return description }
func (*Tool) IsBlocking() bool     { return true }

func (t *Tool) Definition() tool.Definition {
	return tool.Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: tool.ToolParameters{
			Type: "object",
			Properties: map[string]tool.PropertySchema{
				"command":     {Type: "string", Description: "The shell command line to run"},
				"timeout_sec": {Type: "integer", Description: "Optional timeout in seconds (default 30, max 300)"},
			},
			Required: []string{"command"},
		},
	}
}

type args struct {
	Command    string `json:"command"`
	TimeoutSec int    `json:"timeout_sec"`
}

// Execute parses, classifies, approves (if needed), and runs a command
// line, returning its combined, truncated output.
func (t *Tool) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var a args
	if err := json.Unmarshal([]byte(rawArgs), &a); err != nil {
		return tool.Failure("invalid arguments: " + err.Error()), nil
	}

	commands := parse.ExtractCommands(a.Command)
	if len(commands) == 0 {
		return tool.Failure("empty command"), nil
	}

	tier, trigger := t.perms.CheckPipeline(a.Command)
	if trigger == "" {
		trigger = commands[0]
	}

	switch tier {
	case permission.TierRestricted:
		t.bus.Publish(eventbus.Event{Kind: eventbus.KindApprovalDecided, Message: a.Command, Data: map[string]any{"decision": "restricted"}})
		return tool.Failure(fmt.Sprintf("command %q is restricted and cannot be run, even with approval.", trigger)), nil

	case permission.TierPerCall:
		if !t.backend.SupportsShell() {
			return tool.Failure(fmt.Sprintf("commands requiring approval (%q) are not available in app-level sandbox mode; only session-tier, plain commands can run without the kernel sandbox backend.", trigger)), nil
		}
		t.bus.Publish(eventbus.Event{Kind: eventbus.KindApprovalRequested, Message: a.Command})
		resp, err := t.approve.Request(ctx, a.Command, tier)
		if err != nil {
			return tool.Failure("approval unavailable: " + err.Error()), nil
		}
		decision := "deny"
		if resp.Approved {
			decision = "allow"
			if resp.PromoteSession {
				decision = "allow_for_session"
				for _, c := range commands {
					t.perms.PromoteToSession(c)
				}
			}
		}
		t.bus.Publish(eventbus.Event{Kind: eventbus.KindApprovalDecided, Message: a.Command, Data: map[string]any{"decision": decision}})
		if !resp.Approved {
			return tool.Failure("command was not approved by the user."), nil
		}

	case permission.TierSession:
		if !t.backend.SupportsShell() && parse.HasShellOperators(a.Command) {
			return tool.Failure("shell operators (pipes, redirects, chaining) require the kernel sandbox backend, which is unavailable on this host; this app-level sandbox can only run a single plain command even for session-tier commands."), nil
		}
	}

	timeout := t.defaultTimeout
	if a.TimeoutSec > 0 {
		timeout = time.Duration(a.TimeoutSec) * time.Second
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}

	t.log.Debug("executing sandboxed command", "backend", t.backend.Name(), "command", a.Command)
	res, err := t.backend.Execute(ctx, a.Command, t.mounts, timeout)
	if err != nil {
		return tool.Failure("sandbox execution failed: " + err.Error()), nil
	}

	return tool.Success(formatResult(res)), nil
}

func formatResult(res exec.Result) string {
	var b strings.Builder
	b.WriteString(res.Stdout)
	if res.Stderr != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[stderr]\n%s", res.Stderr)
	}
	if res.TimedOut {
		return "Command timed out.\n" + b.String()
	}
	if res.ExitCode != 0 {
		fmt.Fprintf(&b, "\n[exit code %d]", res.ExitCode)
	}

	out := b.String()
	if len(out) <= maxOutputBytes {
		return out
	}
	cut := strings.LastIndexByte(out[:maxOutputBytes], '\n')
	if cut <= 0 {
		cut = maxOutputBytes
	}
	return out[:cut] + fmt.Sprintf("\n\n[output truncated: %d bytes omitted]", len(out)-cut)
}
