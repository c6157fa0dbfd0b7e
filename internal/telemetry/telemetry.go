// Package telemetry wires OpenTelemetry tracing across the agent runtime:
// one span per agent turn (RunOnce) and one child span per tool dispatch,
// exported to an in-process ring buffer the interactive runner's /trace
// command can inspect without standing up a collector.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	AttrAgentName = "agent.name"
	AttrToolName  = "tool.name"

	SpanAgentTurn     = "agent.turn"
	SpanToolExecution = "agent.tool_execution"
)

// Config tunes whether and how spans are recorded.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name,omitempty"`
	RingSize    int    `yaml:"ring_size,omitempty"`
}

// DefaultConfig disables tracing by default; the interactive runner has no
// operator watching a collector unless one is explicitly requested.
func DefaultConfig() Config {
	return Config{ServiceName: "corvid", RingSize: 512}
}

// Shutdown releases whatever tracer provider Init installed.
type Shutdown func(context.Context) error

// Init installs the global tracer provider. When cfg.Enabled is false it
// installs otel's no-op provider, so every Tracer() call downstream stays
// cheap and side-effect-free. When enabled, spans are recorded by an
// in-memory ring exporter inspectable via Ring().
func Init(cfg Config) Shutdown {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }
	}

	ring := newRingExporter(cfg.RingSize)
	globalRingMu.Lock()
	globalRing = ring
	globalRingMu.Unlock()

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(ring),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

var (
	globalRing   *ringExporter
	globalRingMu sync.RWMutex
)

// Tracer returns the named tracer off the currently installed global
// provider (no-op until Init runs).
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

// StartAgentTurn opens a span around one agent.Runtime.RunOnce invocation.
func StartAgentTurn(ctx context.Context, agentName string) (context.Context, trace.Span) {
	return Tracer("corvid.agent").Start(ctx, SpanAgentTurn,
		trace.WithAttributes(attribute.String(AttrAgentName, agentName)))
}

// StartToolExecution opens a span around one tool dispatch.
func StartToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return Tracer("corvid.tool").Start(ctx, SpanToolExecution,
		trace.WithAttributes(attribute.String(AttrToolName, toolName)))
}

// Ring returns the currently installed in-memory span buffer, or nil if
// tracing is disabled.
func Ring() []RecordedSpan {
	globalRingMu.RLock()
	r := globalRing
	globalRingMu.RUnlock()
	if r == nil {
		return nil
	}
	return r.Snapshot()
}
