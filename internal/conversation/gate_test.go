package conversation

import (
	"context"
	"testing"
	"time"
)

func TestGateWaitClearWhenAlreadyClear(t *testing.T) {
	g := newGate()
	if !g.WaitClear(context.Background(), time.Second) {
		t.Fatal("clear gate must return immediately")
	}
}

func TestGateWaitClearUnblocksOnClear(t *testing.T) {
	g := newGate()
	g.Set(true)
	if !g.IsSet() {
		t.Fatal("gate should be set")
	}

	result := make(chan bool, 1)
	go func() { result <- g.WaitClear(context.Background(), 2*time.Second) }()

	time.Sleep(10 * time.Millisecond)
	g.Set(false)

	select {
	case ok := <-result:
		if !ok {
			t.Fatal("WaitClear reported timeout after the gate cleared")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitClear never unblocked")
	}
}

func TestGateWaitClearTimesOut(t *testing.T) {
	g := newGate()
	g.Set(true)
	if g.WaitClear(context.Background(), 20*time.Millisecond) {
		t.Fatal("WaitClear must report failure on timeout")
	}
}

func TestGateWaitClearHonorsContext(t *testing.T) {
	g := newGate()
	g.Set(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if g.WaitClear(ctx, time.Minute) {
		t.Fatal("WaitClear must report failure on cancelled context")
	}
}

func TestGateRedundantSetIsNoop(t *testing.T) {
	g := newGate()
	g.Set(true)
	g.Set(true)
	g.Set(false)
	g.Set(false)
	if g.IsSet() {
		t.Fatal("gate should be clear")
	}
}
