package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/corvidrun/corvid/internal/agent"
	"github.com/corvidrun/corvid/internal/agentstore"
	"github.com/corvidrun/corvid/internal/chunker"
	"github.com/corvidrun/corvid/internal/compaction"
	"github.com/corvidrun/corvid/internal/errs"
	"github.com/corvidrun/corvid/internal/eventbus"
	"github.com/corvidrun/corvid/internal/message"
	"github.com/corvidrun/corvid/internal/provider"
	"github.com/corvidrun/corvid/internal/runner/debuglog"
	"github.com/corvidrun/corvid/internal/runner/history"
	"github.com/corvidrun/corvid/internal/telemetry"
	"github.com/corvidrun/corvid/internal/tool"
	"github.com/corvidrun/corvid/internal/tracker"
)

const helpText = `Reserved commands:
  /quit, /exit, /q           leave the session
  /clear, /c                 drop this session's messages and memory
  /reset                     /clear, plus purge every delegate's persisted memory
  /help, /?                  show this text
  /history, /h               show recent input history
  /memory, /mem              show the current agent's observational-memory state
  /tools, /t                 list every registered tool
  /agents, /a                list every delegate agent
  /delegate <name> <task>    run one delegate directly, bypassing the coordinator
  @<name> <task>             shorthand for /delegate
  /system [prompt]           show, or replace, the coordinator's system prompt
  /debug <on|off>            toggle the append-only JSON-lines debug log
  /trace                     show the most recent agent-turn and tool-execution spans`

// Runner drives the interactive session: one persistent coordinator
// ("pm") agent the user talks to directly, plus on-demand direct calls
// to any roster delegate via /delegate or @name, each keeping its own
// persisted history in the agent-memory store.
type Runner struct {
	pm           agent.Descriptor
	pmHistory    []message.Message
	pmMemory     *compaction.ObservationalMemory
	pmSystem     string // overrides pm.SystemPrompt when non-empty, via /system

	rosterByName map[string]agent.Descriptor
	store        *agentstore.Store

	provider provider.Provider
	registry *tool.Registry
	pool     *tool.BlockingPool
	chunker  *chunker.Processor
	bus      *eventbus.Bus
	tracker  *tracker.Tracker

	history history.Store
	debug   *debuglog.Logger
}

// Config collects everything Runner needs beyond what New constructs
// internally.
type Config struct {
	PM       agent.Descriptor
	Roster   []agent.Descriptor
	Provider provider.Provider
	Registry *tool.Registry
	Pool     *tool.BlockingPool
	Bus      *eventbus.Bus
	Tracker  *tracker.Tracker
	Chunker  *chunker.Processor
	History  history.Store
	Debug    *debuglog.Logger
}

// New constructs a Runner from its wired dependencies.
func New(cfg Config) *Runner {
	byName := make(map[string]agent.Descriptor, len(cfg.Roster))
	for _, d := range cfg.Roster {
		byName[d.Name] = d
	}
	newMemory := func() *compaction.ObservationalMemory {
		return compaction.New(compaction.ForAgents())
	}
	return &Runner{
		pm:           cfg.PM,
		pmMemory:     compaction.New(cfg.PM.EffectiveObservationConfig()),
		rosterByName: byName,
		store:        agentstore.New(newMemory),
		provider:     cfg.Provider,
		registry:     cfg.Registry,
		pool:         cfg.Pool,
		chunker:      cfg.Chunker,
		bus:          cfg.Bus,
		tracker:      cfg.Tracker,
		history:      cfg.History,
		debug:        cfg.Debug,
	}
}

// Run drives the session loop against iface until /quit, which returns
// nil, or until NextInput returns an error (including end of input or a
// cancelled context), which Run returns unchanged.
func (r *Runner) Run(ctx context.Context, iface AgentInterface) error {
	for {
		in, err := iface.NextInput(ctx)
		if err != nil {
			return err
		}
		if r.history != nil && in.Kind == InputMessage {
			_ = r.history.Append(in.Text)
		}
		if r.debug != nil {
			r.debug.Log(map[string]any{"event": "input", "kind": int(in.Kind), "text": in.Text, "command": in.Command, "args": in.Args})
		}

		switch in.Kind {
		case InputEmpty:
			continue
		case InputCancel:
			continue
		case InputCommand:
			if in.Command == "quit" {
				return nil
			}
			r.dispatchCommand(ctx, in, iface)
		case InputMessage:
			r.handleMessage(ctx, in.Text, iface)
		}
	}
}

func (r *Runner) handleMessage(ctx context.Context, text string, iface AgentInterface) {
	iface.StartResponse()
	defer iface.FinishResponse()

	r.pmHistory = append(r.pmHistory, message.User(text))
	r.pmMemory.RecordMessages(message.User(text))

	rt := r.pmRuntime()
	newHistory, _, err := runTurn(ctx, rt, r.pmHistory, iface)
	appended := newHistory[len(r.pmHistory):]
	r.pmHistory = newHistory
	r.pmMemory.RecordMessages(appended...)

	if err != nil {
		if errs.KindOf(err) != errs.KindCancelled {
			iface.Emit(OutputEvent{Kind: EventError, Err: err})
		}
		return
	}

	if r.pm.MemoryStrategy == agent.MemoryStrategyObservational {
		compactor := compaction.NewCompactor(r.provider)
		_ = r.pmMemory.Compact(ctx, &r.pmHistory, func(ctx context.Context, toObserve []message.Message, priorLog string) (string, error) {
			prompt := r.pm.CompactPrompt
			if len(toObserve) == 0 && priorLog != "" {
				// A reflection pass: the log itself is what gets condensed.
				toObserve = []message.Message{message.User(priorLog)}
			}
			return compactor.Summarize(ctx, toObserve, prompt)
		})
		if r.bus != nil {
			r.bus.Publish(eventbus.Event{Kind: eventbus.KindCompactionRan, Agent: r.pm.Name})
		}
	}
}

// pmRuntime builds a fresh Runtime bound to the coordinator's current
// effective system prompt (accounting for any /system override).
func (r *Runner) pmRuntime() *agent.Runtime {
	d := r.pm
	if r.pmSystem != "" {
		d.SystemPrompt = r.pmSystem
	}
	return agent.NewRuntime(d, r.provider, r.registry, r.pool).WithChunker(r.chunker)
}

func (r *Runner) dispatchCommand(ctx context.Context, in UserInput, iface AgentInterface) {
	switch in.Command {
	case "clear":
		r.pmHistory = nil
		r.pmMemory = compaction.New(r.pm.EffectiveObservationConfig())
		iface.Emit(OutputEvent{Kind: EventDone, Text: "session cleared"})
	case "reset":
		r.pmHistory = nil
		r.pmMemory = compaction.New(r.pm.EffectiveObservationConfig())
		r.store.ClearAll()
		iface.Emit(OutputEvent{Kind: EventDone, Text: "session and delegate memory cleared"})
	case "help":
		iface.Emit(OutputEvent{Kind: EventDone, Text: helpText})
	case "tools":
		iface.Emit(OutputEvent{Kind: EventDone, Text: r.formatTools()})
	case "agents":
		iface.Emit(OutputEvent{Kind: EventDone, Text: r.formatAgents()})
	case "history":
		iface.Emit(OutputEvent{Kind: EventDone, Text: r.formatHistory()})
	case "memory":
		iface.Emit(OutputEvent{Kind: EventDone, Text: r.formatMemory()})
	case "system":
		if in.Args == "" {
			current := r.pmSystem
			if current == "" {
				current = r.pm.SystemPrompt
			}
			iface.Emit(OutputEvent{Kind: EventDone, Text: current})
			return
		}
		r.pmSystem = in.Args
		iface.Emit(OutputEvent{Kind: EventDone, Text: "system prompt updated"})
	case "debug":
		r.handleDebugCommand(in.Args, iface)
	case "trace":
		iface.Emit(OutputEvent{Kind: EventDone, Text: r.formatTrace()})
	case "delegate":
		r.handleDelegate(ctx, in.Args, iface)
	default:
		iface.Emit(OutputEvent{Kind: EventError, Err: fmt.Errorf("unrecognized command %q", in.Command)})
	}
}

func (r *Runner) handleDebugCommand(args string, iface AgentInterface) {
	if r.debug == nil {
		iface.Emit(OutputEvent{Kind: EventError, Err: fmt.Errorf("no debug log configured for this session")})
		return
	}
	switch strings.TrimSpace(args) {
	case "on":
		r.debug.SetActive(true)
		iface.Emit(OutputEvent{Kind: EventDone, Text: "debug log enabled"})
	case "off":
		r.debug.SetActive(false)
		iface.Emit(OutputEvent{Kind: EventDone, Text: "debug log disabled"})
	default:
		iface.Emit(OutputEvent{Kind: EventError, Err: fmt.Errorf("usage: /debug on|off")})
	}
}

func (r *Runner) handleDelegate(ctx context.Context, args string, iface AgentInterface) {
	name, task, _ := strings.Cut(args, " ")
	task = strings.TrimSpace(task)
	if name == "" || task == "" {
		iface.Emit(OutputEvent{Kind: EventError, Err: fmt.Errorf("usage: /delegate <name> <task> (or @<name> <task>)")})
		return
	}
	d, ok := r.rosterByName[name]
	if !ok {
		iface.Emit(OutputEvent{Kind: EventError, Err: fmt.Errorf("no such agent %q; see /agents", name)})
		return
	}

	iface.StartResponse()
	defer iface.FinishResponse()

	inst := r.store.GetOrCreate("direct/" + name)
	var reply string
	var err error
	inst.Use(func(inst *agentstore.Instance) {
		inst.History = append(inst.History, message.User(task))
		rt := agent.NewRuntime(d, r.provider, r.registry, r.pool).WithChunker(r.chunker)
		var newHistory []message.Message
		newHistory, reply, err = runTurn(ctx, rt, inst.History, iface)
		inst.History = newHistory
		inst.Calls++
	})
	if err != nil {
		if errs.KindOf(err) != errs.KindCancelled {
			iface.Emit(OutputEvent{Kind: EventError, Err: err})
		}
		return
	}
	iface.Emit(OutputEvent{Kind: EventDone, Text: reply})
}

func (r *Runner) formatTools() string {
	defs := r.registry.Definitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return "tools: " + strings.Join(names, ", ")
}

func (r *Runner) formatAgents() string {
	names := make([]string, 0, len(r.rosterByName)+1)
	names = append(names, r.pm.Name+" (coordinator)")
	for name := range r.rosterByName {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return "agents:\n  " + strings.Join(names, "\n  ")
}

func (r *Runner) formatHistory() string {
	if r.history == nil {
		return "no input history configured for this session"
	}
	entries, err := r.history.Recent(20)
	if err != nil {
		return fmt.Sprintf("error reading history: %v", err)
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Text)
	}
	return strings.Join(lines, "\n")
}

func (r *Runner) formatTrace() string {
	spans := telemetry.Ring()
	if len(spans) == 0 {
		return "no spans recorded (telemetry disabled, or nothing has run yet)"
	}
	var b strings.Builder
	for _, s := range spans {
		fmt.Fprintf(&b, "%s %-24s %6.1fms", s.StartedAt.Format("15:04:05.000"), s.Name, s.DurationMs)
		for k, v := range s.Attributes {
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Runner) formatMemory() string {
	var b strings.Builder
	fmt.Fprintf(&b, "coordinator: needs_observation=%v needs_reflection=%v\n", r.pmMemory.NeedsObservation(), r.pmMemory.NeedsReflection())
	log := r.pmMemory.LogText()
	if log != "" {
		b.WriteString(log)
		b.WriteString("\n")
	}
	b.WriteString("delegates:\n")
	for _, e := range r.store.Diagnostics() {
		fmt.Fprintf(&b, "  %s: %d calls, %d history bytes\n", e.Scope, e.Calls, e.HistoryBytes)
	}
	return b.String()
}
