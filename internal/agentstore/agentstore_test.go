package agentstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvidrun/corvid/internal/compaction"
	"github.com/corvidrun/corvid/internal/message"
)

func newTestStore() *Store {
	return New(func() *compaction.ObservationalMemory { return compaction.New(compaction.ForAgents()) })
}

func TestGetOrCreateReturnsSameInstanceForSameScope(t *testing.T) {
	s := newTestStore()
	a := s.GetOrCreate("pm/researcher#1")
	b := s.GetOrCreate("pm/researcher#1")
	assert.Same(t, a, b)
}

func TestGetOrCreateIsolatesDistinctScopes(t *testing.T) {
	s := newTestStore()
	a := s.GetOrCreate("pm/researcher#1")
	b := s.GetOrCreate("pm/researcher#2")
	assert.NotSame(t, a, b)
}

func TestClearRemovesScope(t *testing.T) {
	s := newTestStore()
	a := s.GetOrCreate("scope")
	a.Use(func(i *Instance) { i.History = append(i.History, message.User("hi")) })

	s.Clear("scope")
	b := s.GetOrCreate("scope")
	assert.Empty(t, b.History)
}

func TestDiagnosticsReportsPerScopeSize(t *testing.T) {
	s := newTestStore()
	a := s.GetOrCreate("scope")
	a.Use(func(i *Instance) {
		i.History = append(i.History, message.User("hello"))
		i.Calls = 3
	})

	diag := s.Diagnostics()
	assert.Len(t, diag, 1)
	assert.Equal(t, "scope", diag[0].Scope)
	assert.Equal(t, 3, diag[0].Calls)
	assert.Equal(t, 5, diag[0].HistoryBytes)
}
