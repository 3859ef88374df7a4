package conversation

import (
	"context"
	"sync"
	"time"
)

// gate is a boolean flag whose clearing can be awaited without polling.
type gate struct {
	mu      sync.Mutex
	on      bool
	cleared chan struct{}
}

func newGate() *gate { return &gate{} }

func (g *gate) Set(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if on == g.on {
		return
	}
	g.on = on
	if on {
		g.cleared = make(chan struct{})
	} else if g.cleared != nil {
		close(g.cleared)
		g.cleared = nil
	}
}

func (g *gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

// WaitClear blocks until the flag clears, the timeout elapses, or ctx is
// cancelled. It reports whether the flag is clear on return.
func (g *gate) WaitClear(ctx context.Context, timeout time.Duration) bool {
	g.mu.Lock()
	if !g.on {
		g.mu.Unlock()
		return true
	}
	cleared := g.cleared
	g.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-cleared:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
