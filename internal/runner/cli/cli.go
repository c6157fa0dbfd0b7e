// Package cli implements the minimal readline-style terminal frontend
// that satisfies runner.AgentInterface — the terminal UI proper (layout,
// keybindings, mouse) is out of the runtime's scope per the spec; this is
// just enough of a backend to drive and observe the runtime from a real
// terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"golang.org/x/term"

	"github.com/corvidrun/corvid/internal/runner"
	"github.com/corvidrun/corvid/internal/sandbox/permission"
)

const (
	colorDim    = "\x1b[2m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorReset  = "\x1b[0m"
)

// CLI is a blocking, line-oriented AgentInterface backed by stdin/stdout.
// It is intentionally simple: no raw mode, no history navigation, no
// mouse — those belong to a real TUI, which is out of scope here.
type CLI struct {
	in        *bufio.Scanner
	out       *bufio.Writer
	isTTY     bool
	streaming atomic.Bool
	cancelled atomic.Bool
	quit      atomic.Bool

	sigCh chan os.Signal
}

// New constructs a CLI reading from stdin and writing to stdout. When
// stdin isn't a terminal (piped input, a test harness) the "> " prompt is
// suppressed, matching how a readline-style frontend behaves non-interactively.
func New() *CLI {
	c := &CLI{
		in:    bufio.NewScanner(os.Stdin),
		out:   bufio.NewWriter(os.Stdout),
		isTTY: term.IsTerminal(int(os.Stdin.Fd())),
		sigCh: make(chan os.Signal, 1),
	}
	c.in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	c.streaming.Store(true)
	return c
}

// Initialize wires Ctrl-C so it cancels an in-flight response instead of
// killing the process; a second Ctrl-C with nothing streaming exits.
func (c *CLI) Initialize() error {
	signal.Notify(c.sigCh, syscall.SIGINT)
	go func() {
		for range c.sigCh {
			if c.streaming.Load() {
				c.cancelled.Store(true)
			} else {
				c.quit.Store(true)
			}
		}
	}()
	return nil
}

// Cleanup stops signal delivery and flushes any buffered output.
func (c *CLI) Cleanup() error {
	signal.Stop(c.sigCh)
	return c.out.Flush()
}

func (c *CLI) ShouldQuit() bool   { return c.quit.Load() }
func (c *CLI) RequestQuit()       { c.quit.Store(true) }
func (c *CLI) IsStreaming() bool  { return c.streaming.Load() }
func (c *CLI) SetStreaming(v bool) { c.streaming.Store(v) }

// NextInput blocks on a line of stdin (or an already-delivered Ctrl-C),
// parses it, and returns the resulting UserInput.
func (c *CLI) NextInput(ctx context.Context) (runner.UserInput, error) {
	if c.cancelled.Swap(false) {
		return runner.UserInput{Kind: runner.InputCancel}, nil
	}
	if c.quit.Load() {
		return runner.UserInput{}, fmt.Errorf("quit requested")
	}

	if c.isTTY {
		fmt.Fprint(c.out, "\n> ")
		c.out.Flush()
	}

	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return runner.UserInput{}, err
		}
		return runner.UserInput{}, fmt.Errorf("eof")
	}
	return runner.ParseInput(c.in.Text()), nil
}

// PollInput never has a queued line ready outside NextInput's own scan;
// Ctrl-C is delivered out of band via the cancelled flag instead.
func (c *CLI) PollInput() (runner.UserInput, bool) {
	if c.cancelled.Swap(false) {
		return runner.UserInput{Kind: runner.InputCancel}, true
	}
	return runner.UserInput{}, false
}

// Emit renders one OutputEvent to stdout.
func (c *CLI) Emit(ev runner.OutputEvent) {
	switch ev.Kind {
	case runner.EventContentDelta:
		fmt.Fprint(c.out, ev.Text)
	case runner.EventThinkingDelta:
		fmt.Fprint(c.out, colorDim+ev.Text+colorReset)
	case runner.EventToolStarted:
		fmt.Fprintf(c.out, "\n%s[tool] %s%s", colorDim, ev.ToolName, colorReset)
	case runner.EventToolExecuting:
		fmt.Fprint(c.out, ".")
	case runner.EventToolCompleted:
		fmt.Fprintf(c.out, " done%s\n", colorReset)
	case runner.EventIterationStart:
		// Silent by default; a verbose mode could print ev.Iteration.
	case runner.EventByteCount:
		// Silent: the CLI does not display byte counts.
	case runner.EventDone:
		if ev.Text != "" {
			fmt.Fprintln(c.out, ev.Text)
		}
	case runner.EventError:
		fmt.Fprintf(c.out, "\n%s[error] %v%s\n", colorRed, ev.Err, colorReset)
	}
	c.out.Flush()
}

func (c *CLI) StartResponse() {
	c.streaming.Store(true)
	fmt.Fprintln(c.out)
	c.out.Flush()
}

func (c *CLI) FinishResponse() {
	c.streaming.Store(false)
}

// RunApprovals drains ch, prompting the user for each ApprovalRequest on
// stdin/stdout, until ctx is cancelled or ch is closed. Intended to run in
// its own goroutine for the lifetime of the process; the bash tool blocks
// on this loop's replies via the same channel.
func RunApprovals(ctx context.Context, ch <-chan permission.ApprovalRequest) {
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-ch:
			if !ok {
				return
			}
			resp := promptApproval(reader, req)
			select {
			case req.RespondTo <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

func promptApproval(reader *bufio.Reader, req permission.ApprovalRequest) permission.ApprovalResponse {
	fmt.Printf("\n%s[approval]%s %s\n", colorYellow, colorReset, req.Command)
	for {
		fmt.Print("Allow once / allow for session / deny? (y/s/n): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return permission.ApprovalResponse{Approved: false}
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return permission.ApprovalResponse{Approved: true}
		case "s", "session":
			return permission.ApprovalResponse{Approved: true, PromoteSession: true}
		case "n", "no", "":
			return permission.ApprovalResponse{Approved: false}
		default:
			fmt.Println("please answer y, s, or n")
		}
	}
}
