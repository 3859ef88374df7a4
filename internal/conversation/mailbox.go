package conversation

import "sync"

// Mailbox is a single-slot cell with take-once semantics: Put overwrites any
// pending value (last write wins, no queueing) and Take removes the value so
// it can never be consumed twice.
type Mailbox[T any] struct {
	mu  sync.Mutex
	val T
	set bool
}

// Put stores v, replacing any value already pending.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.val = v
	m.set = true
	m.mu.Unlock()
}

// Take removes and returns the pending value, if any.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		var zero T
		return zero, false
	}
	v := m.val
	var zero T
	m.val = zero
	m.set = false
	return v, true
}
