package conversation

import (
	"testing"
	"time"
)

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a, unsubA := bus.Subscribe(4)
	b, unsubB := bus.Subscribe(4)
	defer unsubA()
	defer unsubB()

	bus.Publish(Event{Kind: EventPersonaStarted, Speaker: "Alex"})

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Kind != EventPersonaStarted || ev.Speaker != "Alex" {
				t.Fatalf("subscriber %s got %+v", name, ev)
			}
			if ev.Time.IsZero() {
				t.Fatalf("subscriber %s: event time not stamped", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s never received the event", name)
		}
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	_, unsub := bus.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more events than the buffer holds; extras are dropped.
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Kind: EventAudioChunk})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("channel must be closed after unsubscribe")
	}
	// A second unsubscribe and further publishes are harmless.
	unsub()
	bus.Publish(Event{Kind: EventComplete})
}
