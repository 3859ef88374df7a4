package conversation

import (
	"strings"
	"sync"
)

// History is the append-only ordered log of completed turns.
type History struct {
	mu      sync.Mutex
	entries []TurnEntry
}

func NewHistory() *History { return &History{} }

func (h *History) Append(e TurnEntry) {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Last returns a copy of the most recent n entries in conversational order.
func (h *History) Last(n int) []TurnEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.entries) {
		n = len(h.entries)
	}
	if n <= 0 {
		return nil
	}
	out := make([]TurnEntry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// Context formats the participant roster plus the last k turns as the
// conversational context handed to a persona.
func (h *History) Context(participants []string, k int) string {
	var b strings.Builder
	b.WriteString("PARTICIPANTS: ")
	b.WriteString(strings.Join(participants, ", "))
	b.WriteString("\n\n")

	recent := h.Last(k)
	if len(recent) == 0 {
		b.WriteString("This is the beginning of the discussion.")
		return b.String()
	}
	b.WriteString("RECENT CONVERSATION:")
	for _, e := range recent {
		b.WriteString("\n")
		b.WriteString(e.Speaker)
		b.WriteString(": ")
		b.WriteString(e.Text)
	}
	return b.String()
}
