package telemetry

import (
	"context"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// RecordedSpan is a trimmed, JSON-friendly view of one exported span,
// enough for the /trace command to show what the agent loop actually did
// without standing up a real collector.
type RecordedSpan struct {
	TraceID    string            `json:"trace_id"`
	SpanID     string            `json:"span_id"`
	Name       string            `json:"name"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMs float64           `json:"duration_ms"`
	Attributes map[string]string `json:"attributes"`
	Status     string            `json:"status"`
}

// ringExporter keeps the last size spans in memory, evicting the oldest
// once full. It implements sdktrace.SpanExporter.
type ringExporter struct {
	mu   sync.Mutex
	buf  []RecordedSpan
	size int
	next int
	full bool
}

func newRingExporter(size int) *ringExporter {
	if size <= 0 {
		size = 512
	}
	return &ringExporter{buf: make([]RecordedSpan, size), size: size}
}

// ExportSpans implements sdktrace.SpanExporter.
func (r *ringExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range spans {
		r.buf[r.next] = convertSpan(s)
		r.next = (r.next + 1) % r.size
		if r.next == 0 {
			r.full = true
		}
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (r *ringExporter) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = make([]RecordedSpan, r.size)
	r.next = 0
	r.full = false
	return nil
}

// Snapshot returns the currently buffered spans, oldest first.
func (r *ringExporter) Snapshot() []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]RecordedSpan, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]RecordedSpan, r.size)
	copy(out, r.buf[r.next:])
	copy(out[r.size-r.next:], r.buf[:r.next])
	return out
}

func convertSpan(s sdktrace.ReadOnlySpan) RecordedSpan {
	attrs := make(map[string]string, len(s.Attributes()))
	for _, a := range s.Attributes() {
		attrs[string(a.Key)] = a.Value.AsString()
	}
	return RecordedSpan{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		StartedAt:  s.StartTime(),
		DurationMs: float64(s.EndTime().Sub(s.StartTime())) / float64(time.Millisecond),
		Attributes: attrs,
		Status:     s.Status().Code.String(),
	}
}
