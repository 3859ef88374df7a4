package conversation

import (
	"sync"
	"time"
)

// EventKind identifies a conversation lifecycle event.
type EventKind string

const (
	EventPersonaStarted  EventKind = "persona_started"
	EventAudioChunk      EventKind = "audio_chunk"
	EventPersonaFinished EventKind = "persona_finished"
	EventTurnError       EventKind = "turn_error"
	EventHumanStarted    EventKind = "human_turn_started"
	EventHumanEnded      EventKind = "human_turn_ended"
	EventComplete        EventKind = "conversation_complete"
	EventStopped         EventKind = "conversation_stopped"
)

// Event is one lifecycle notification. For a given turn the started event
// precedes all audio chunks, which precede the finished event; events of
// different turns never interleave.
type Event struct {
	Kind    EventKind `json:"kind"`
	Turn    int       `json:"turn,omitempty"`
	Speaker string    `json:"speaker,omitempty"`
	Text    string    `json:"text,omitempty"`
	// Audio is a self-contained WAV chunk (per-frame for audio_chunk,
	// full-turn for persona_finished).
	Audio []byte    `json:"audio,omitempty"`
	Time  time.Time `json:"time"`
}

// Bus fans lifecycle events out to any number of subscribers. Publishing
// never blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns its event channel plus an unsubscribe func. Unsubscribing closes
// the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
