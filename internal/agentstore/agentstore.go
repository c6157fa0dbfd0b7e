// Package agentstore keeps one persistent memory instance per agent scope
// string (e.g. "pm/researcher#3"), so a repeatedly-delegated sub-agent
// keeps its own conversation history and observational memory across
// separate delegate calls within the same session.
package agentstore

import (
	"sync"

	"github.com/corvidrun/corvid/internal/compaction"
	"github.com/corvidrun/corvid/internal/message"
)

// Instance is one scope's persisted state.
type Instance struct {
	mu      sync.Mutex
	History []message.Message
	Memory  *compaction.ObservationalMemory
	Calls   int
}

// Entry summarizes one scope for diagnostics.
type Entry struct {
	Scope        string
	Calls        int
	HistoryBytes int
}

// Store is a scope-keyed collection of Instances.
type Store struct {
	mu        sync.RWMutex
	instances map[string]*Instance
	newMemory func() *compaction.ObservationalMemory
}

// New constructs a Store. newMemory builds a fresh ObservationalMemory for
// each new scope, letting callers vary config per agent role.
func New(newMemory func() *compaction.ObservationalMemory) *Store {
	return &Store{instances: make(map[string]*Instance), newMemory: newMemory}
}

// GetOrCreate returns the Instance for scope, creating it if absent.
//
// Lock discipline: the store's own mutex only ever guards the map lookup
// itself; any model I/O a caller performs against the returned Instance
// happens outside that lock, against the Instance's own mutex, so one
// scope's long-running call never blocks lookups for other scopes.
func (s *Store) GetOrCreate(scope string) *Instance {
	s.mu.RLock()
	inst, ok := s.instances[scope]
	s.mu.RUnlock()
	if ok {
		return inst
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[scope]; ok {
		return inst
	}
	inst = &Instance{Memory: s.newMemory()}
	s.instances[scope] = inst
	return inst
}

// Clear removes a single scope's state.
func (s *Store) Clear(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, scope)
}

// ClearAll removes every scope's state.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = make(map[string]*Instance)
}

// Diagnostics snapshots every scope's size for display in a /agents or
// /debug command.
func (s *Store) Diagnostics() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.instances))
	for scope, inst := range s.instances {
		inst.mu.Lock()
		out = append(out, Entry{Scope: scope, Calls: inst.Calls, HistoryBytes: message.TotalBytes(inst.History)})
		inst.mu.Unlock()
	}
	return out
}

// Use runs fn against inst under its own lock, the pattern every delegate
// call should use to safely read/append its persisted history.
func (inst *Instance) Use(fn func(inst *Instance)) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	fn(inst)
}
