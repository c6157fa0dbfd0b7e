// Package debuglog implements the append-only JSON-lines debug log the
// runner activates with /debug on: one JSON object per logged event (the
// runner logs each input it receives), written as it happens, for a user diagnosing a confusing session after
// the fact.
package debuglog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
)

// Logger appends one JSON-encoded line per Log call to its file while
// active, and is a silent no-op while inactive (so callers can always
// call Log unconditionally rather than checking a flag themselves).
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	active atomic.Bool
}

// New opens (creating or appending to) the log file at path. The logger
// starts inactive; call SetActive(true) to begin writing, matching
// /debug's off-by-default behavior.
func New(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: f}, nil
}

// SetActive turns logging on or off.
func (l *Logger) SetActive(on bool) { l.active.Store(on) }

// Active reports whether Log calls are currently being written.
func (l *Logger) Active() bool { return l.active.Load() }

// Log appends event as one JSON line, if the logger is active.
// Marshaling or write failures are swallowed: a broken debug log must
// never interrupt the session it's diagnosing.
func (l *Logger) Log(event any) {
	if !l.active.Load() {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.Write(data)
}

// Close releases the underlying file handle.
func (l *Logger) Close() error { return l.file.Close() }
