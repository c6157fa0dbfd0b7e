package tool

import (
	"context"
	"runtime"
)

// BlockingPool bounds the number of concurrently running blocking tool
// calls, standing in for the original runtime's spawn_blocking thread pool.
type BlockingPool struct {
	sem chan struct{}
}

// NewBlockingPool creates a pool sized to size, or GOMAXPROCS*4 if size<=0.
func NewBlockingPool(size int) *BlockingPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0) * 4
	}
	return &BlockingPool{sem: make(chan struct{}, size)}
}

// Dispatch executes a single tool call, routing blocking tools through the
// bounded pool and running non-blocking tools inline.
func (p *BlockingPool) Dispatch(ctx context.Context, t Tool, rawArgs string) (Output, error) {
	if !t.IsBlocking() {
		return t.Execute(ctx, rawArgs)
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return Output{}, ctx.Err()
	}
	defer func() { <-p.sem }()

	return t.Execute(ctx, rawArgs)
}
