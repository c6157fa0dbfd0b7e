// Package eventbus fans out agent progress and notification events to any
// number of subscribers, and counts every published event in Prometheus
// counters as part of Publish.
package eventbus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind classifies an Event.
type Kind string

const (
	KindAgentStarted      Kind = "agent_started"
	KindAgentFinished     Kind = "agent_finished"
	KindAgentProgress     Kind = "agent_progress" // inform_user notifications
	KindToolCallStarted   Kind = "tool_call_started"
	KindToolCallFinished  Kind = "tool_call_finished"
	KindApprovalRequested Kind = "approval_requested"
	KindApprovalDecided   Kind = "approval_decided"
	KindCompactionRan     Kind = "compaction_ran"
)

// Event is one runtime occurrence published to every subscriber.
type Event struct {
	Kind    Kind
	Agent   string
	Message string
	Data    map[string]any
}

var (
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "corvid_tool_calls_total", Help: "Total tool calls dispatched, by tool name."},
		[]string{"tool"},
	)
	compactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "corvid_compactions_total", Help: "Total observational-memory compaction passes."},
		[]string{"agent"},
	)
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "corvid_approvals_total", Help: "Total command approval decisions, by outcome."},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(toolCallsTotal, compactionsTotal, approvalsTotal)
}

// Bus is a simple pub/sub fan-out: each subscriber gets its own buffered
// channel, so a slow subscriber never blocks publication to the others.
type Bus struct {
	mu   sync.Mutex
	subs []chan Event
}

// New constructs an empty Bus.
func New() *Bus { return &Bus{} }

// Subscribe returns a channel that will receive every future Publish call.
// Callers must keep draining it or risk dropped events once its buffer
// fills — buffer size is fixed at 256, generous for interactive use.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 256)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish fans ev out to every current subscriber and updates the
// matching Prometheus counters. A full subscriber channel drops the event
// for that subscriber rather than blocking the publisher.
func (b *Bus) Publish(ev Event) {
	switch ev.Kind {
	case KindToolCallFinished:
		if name, ok := ev.Data["tool"].(string); ok {
			toolCallsTotal.WithLabelValues(name).Inc()
		}
	case KindCompactionRan:
		compactionsTotal.WithLabelValues(ev.Agent).Inc()
	case KindApprovalDecided:
		if d, ok := ev.Data["decision"].(string); ok {
			approvalsTotal.WithLabelValues(d).Inc()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
