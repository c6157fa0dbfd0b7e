// Command corvid is the CLI entry point for the interactive multi-agent
// runtime: a coordinating project-manager agent backed by a roster of
// specialist delegates, run against a local terminal.
//
// Usage:
//
//	corvid chat --config corvid.yaml
//	corvid chat --provider openai --model gpt-4o
//	corvid version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/corvidrun/corvid/internal/agenttool"
	"github.com/corvidrun/corvid/internal/agenttool/roster"
	"github.com/corvidrun/corvid/internal/chunker"
	"github.com/corvidrun/corvid/internal/config"
	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/eventbus"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/provider/anthropic"
	"github.com/corvidrun/corvid/internal/provider/openai"
	"github.com/corvidrun/corvid/internal/runner"
	"github.com/corvidrun/corvid/internal/runner/cli"
	"github.com/corvidrun/corvid/internal/runner/debuglog"
	"github.com/corvidrun/corvid/internal/runner/history"
	"github.com/corvidrun/corvid/internal/sandbox/mount"
	"github.com/corvidrun/corvid/internal/sandbox/permission"
	"github.com/corvidrun/corvid/internal/telemetry"
	"github.com/corvidrun/corvid/internal/tool"
	"github.com/corvidrun/corvid/internal/tool/bashtool"
	"github.com/corvidrun/corvid/internal/tool/fetchtool"
	"github.com/corvidrun/corvid/internal/tool/fstools"
	"github.com/corvidrun/corvid/internal/tool/informuser"
	"github.com/corvidrun/corvid/internal/tool/tasktools"
	"github.com/corvidrun/corvid/internal/tracker"
)

// CLI defines the command-line interface.
type CLI struct {
	Chat     ChatCmd     `cmd:"" help:"Start an interactive session."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config string `short:"c" help:"Path to a YAML config file." type:"path"`
}

// VersionCmd prints the build version, if known.
type VersionCmd struct{}

func (VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	fmt.Println("corvid", version)
	return nil
}

// ValidateCmd loads and validates a config file without starting a session.
type ValidateCmd struct{}

func (ValidateCmd) Run(top *CLI) error {
	if _, err := config.Load(top.Config); err != nil {
		return err
	}
	fmt.Println("config OK")
	return nil
}

// ChatCmd starts the interactive session.
type ChatCmd struct {
	Provider    string  `help:"LLM provider (anthropic, openai). Overrides config file."`
	Model       string  `help:"Model name. Overrides config file."`
	APIKey      string  `name:"api-key" help:"API key. Defaults to the provider's environment variable."`
	Temperature float64 `help:"Sampling temperature."`
	ProjectRoot string  `name:"project-root" type:"path" help:"Read-write sandbox root." default:"."`
}

func (c *ChatCmd) Run(top *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	_ = config.LoadDotEnv("")
	cfg, err := config.Load(top.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Provider != "" {
		cfg.Provider.Name = c.Provider
	}
	if c.Model != "" {
		cfg.Provider.Model = c.Model
	}
	if c.APIKey != "" {
		cfg.Provider.APIKey = c.APIKey
	}
	if c.Temperature != 0 {
		cfg.Provider.Temperature = c.Temperature
	}
	if c.ProjectRoot != "" && c.ProjectRoot != "." {
		cfg.ProjectRoot = c.ProjectRoot
	}
	setupLogger(cfg.Logger)

	shutdownTracing := telemetry.Init(cfg.Telemetry)
	defer shutdownTracing(context.Background())

	llm, err := buildProvider(cfg.Provider)
	if err != nil {
		return err
	}

	bus := eventbus.New()
	tr := tracker.New()

	mounts, err := mount.New(cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("set up sandbox mounts: %w", err)
	}
	defer mounts.Close()

	perms := permission.NewStore(cfg.Sandbox.Overrides)
	approvals := permission.NewApprovalChannel()
	go cli.RunApprovals(ctx, approvals.Requests)

	fsRoot, err := fstools.NewRoot(cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("set up filesystem root: %w", err)
	}

	registry := tool.NewRegistry()
	for _, t := range []tool.Tool{
		fstools.NewReadFile(fsRoot),
		fstools.NewWriteFile(fsRoot),
		fstools.NewEditFile(fsRoot),
		fstools.NewMoveFile(fsRoot),
		fstools.NewCreateDirectory(fsRoot),
		fstools.NewRmFile(fsRoot),
		fstools.NewRmDirectory(fsRoot),
		fstools.NewFindFiles(fsRoot),
		fstools.NewSearchFiles(fsRoot),
		fetchtool.New(fetchtool.DefaultConfig()),
		bashtool.New(mounts, perms, approvals, bus).WithDefaultTimeout(time.Duration(cfg.Sandbox.TimeoutSeconds) * time.Second),
		mount.NewExternalTool(mounts, approvals),
		tasktools.NewCreateTask(tr),
		tasktools.NewUpdateTask(tr),
		tasktools.NewListTasks(tr),
		tasktools.NewDeleteTask(tr),
		informuser.New(bus, "pm"),
	} {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("register tool %s: %w", t.Name(), err)
		}
	}

	chunkProc := chunker.New(cfg.Chunker, llm)

	delegates := roster.All()
	delegateNames := make([]string, 0, len(delegates))
	for _, d := range delegates {
		w := agenttool.New(d, llm, registry).WithTracker(tr)
		if err := registry.Register(w); err != nil {
			return fmt.Errorf("register delegate tool %s: %w", w.Name(), err)
		}
		delegateNames = append(delegateNames, "ask_"+d.Name)
	}

	pm := roster.PM(delegateNames)

	var histStore history.Store
	switch cfg.Runner.HistoryStore {
	case "sqlite":
		histStore, err = history.NewSQLiteStore(cfg.Runner.HistoryFile, nowUnix)
	default:
		histStore, err = history.NewJSONStore(cfg.Runner.HistoryFile, nowUnix)
	}
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}

	var dbg *debuglog.Logger
	if cfg.Runner.DebugLogFile != "" {
		dbg, err = debuglog.New(cfg.Runner.DebugLogFile)
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
	}

	pool := tool.NewBlockingPool(0)
	rn := runner.New(runner.Config{
		PM:       pm,
		Roster:   delegates,
		Provider: llm,
		Registry: registry,
		Pool:     pool,
		Bus:      bus,
		Tracker:  tr,
		Chunker:  chunkProc,
		History:  histStore,
		Debug:    dbg,
	})

	iface := cli.New()
	if err := iface.Initialize(); err != nil {
		return err
	}
	defer iface.Cleanup()

	fmt.Println("corvid ready. Type /help for commands, /quit to exit.")
	if err := rn.Run(ctx, iface); err != nil && errs.KindOf(err) != errs.KindCancelled {
		return err
	}
	return nil
}

func buildProvider(cfg config.ProviderConfig) (provider.Provider, error) {
	apiKey := config.ResolveAPIKey(cfg)
	switch cfg.Name {
	case "anthropic":
		return anthropic.New(anthropic.Config{APIKey: apiKey, Model: cfg.Model}), nil
	case "openai":
		return openai.New(openai.Config{APIKey: apiKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

func setupLogger(cfg config.LoggerConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	out := os.Stderr
	if cfg.File != "" {
		if f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	var handler slog.Handler
	if cfg.Format == "verbose" {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func nowUnix() int64 { return time.Now().Unix() }

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("corvid"),
		kong.Description("Interactive multi-agent LLM runtime."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&c); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
