package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name     string
	blocking bool
}

func (f fakeTool) Name() string        { return f.name }
func (f fakeTool) Description() string { return "fake " + f.name }
func (f fakeTool) Definition() Definition {
	return Definition{Name: f.name, Description: f.Description(), Parameters: ToolParameters{Type: "object"}}
}
func (f fakeTool) IsBlocking() bool { return f.blocking }
func (f fakeTool) Execute(ctx context.Context, rawArgs string) (Output, error) {
	return Success("ok:" + f.name), nil
}

func TestRegistrySubsetAndExclude(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeTool{name: "read_file"}))
	require.NoError(t, r.Register(fakeTool{name: "write_file"}))
	require.NoError(t, r.Register(fakeTool{name: "ask_coder"}))

	sub := r.Subset("read_file", "missing_tool")
	assert.Equal(t, 1, sub.Count())
	_, ok := sub.Get("read_file")
	assert.True(t, ok)

	excl := r.Exclude("ask_coder")
	assert.Equal(t, 2, excl.Count())
	_, ok = excl.Get("ask_coder")
	assert.False(t, ok)
}

func TestDispatchRoutesBlockingThroughPool(t *testing.T) {
	pool := NewBlockingPool(1)
	out, err := pool.Dispatch(context.Background(), fakeTool{name: "shell", blocking: true}, "{}")
	require.NoError(t, err)
	assert.Equal(t, "ok:shell", out.Content)

	out, err = pool.Dispatch(context.Background(), fakeTool{name: "inform_user"}, "{}")
	require.NoError(t, err)
	assert.Equal(t, "ok:inform_user", out.Content)
}
