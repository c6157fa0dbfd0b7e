package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsUnknownBlockedBy(t *testing.T) {
	tr := New()
	_, err := tr.Create("t1", "desc", "coder", []string{"nonexistent"})
	require.Error(t, err)
}

func TestBlocksIsDerivedInverseOfBlockedBy(t *testing.T) {
	tr := New()
	a, err := tr.Create("a", "", "coder", nil)
	require.NoError(t, err)
	b, err := tr.Create("b", "", "coder", []string{a})
	require.NoError(t, err)

	assert.Equal(t, []string{b}, tr.Blocks(a))
	assert.Empty(t, tr.Blocks(b))
}

func TestUpdateRejectsCycle(t *testing.T) {
	tr := New()
	a, _ := tr.Create("a", "", "", nil)
	b, _ := tr.Create("b", "", "", []string{a})

	err := tr.Update(a, nil, nil, []string{b}, true)
	require.Error(t, err, "a depends on b which depends on a must be rejected")

	task, _ := tr.Get(a)
	assert.Empty(t, task.BlockedBy, "failed update must leave state unchanged")
}

func TestReadyExcludesBlockedTasks(t *testing.T) {
	tr := New()
	a, _ := tr.Create("a", "", "", nil)
	b, _ := tr.Create("b", "", "", []string{a})

	ready := tr.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, a, ready[0].ID)

	done := StatusDone
	require.NoError(t, tr.Update(a, &done, nil, nil, false))

	ready = tr.Ready()
	ids := map[string]bool{}
	for _, r := range ready {
		ids[r.ID] = true
	}
	assert.True(t, ids[b])
}

func TestUpdateCanMarkTaskExplicitlyBlocked(t *testing.T) {
	tr := New()
	a, _ := tr.Create("a", "", "", nil)

	blocked := StatusBlocked
	note := "waiting on an external API key"
	require.NoError(t, tr.Update(a, &blocked, &note, nil, false))

	task, _ := tr.Get(a)
	assert.Equal(t, StatusBlocked, task.Status)
	assert.Equal(t, note, task.Notes)
	assert.Empty(t, tr.Ready(), "an explicitly blocked task must not be offered as ready")
}

func TestDeleteRemovesDanglingBlockedByReferences(t *testing.T) {
	tr := New()
	a, _ := tr.Create("a", "", "", nil)
	b, _ := tr.Create("b", "", "", []string{a})

	require.NoError(t, tr.Delete(a))

	task, ok := tr.Get(b)
	require.True(t, ok)
	assert.Empty(t, task.BlockedBy)
}
