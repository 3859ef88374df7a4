package conversation

import "testing"

func TestMailboxTakeOnce(t *testing.T) {
	var m Mailbox[string]

	if _, ok := m.Take(); ok {
		t.Fatal("empty mailbox must report no value")
	}

	m.Put("hello")
	v, ok := m.Take()
	if !ok || v != "hello" {
		t.Fatalf("Take = (%q, %v), want (hello, true)", v, ok)
	}
	if _, ok := m.Take(); ok {
		t.Fatal("value must not be consumable twice")
	}
}

func TestMailboxLastWriteWins(t *testing.T) {
	var m Mailbox[string]
	m.Put("first")
	m.Put("second")

	v, ok := m.Take()
	if !ok || v != "second" {
		t.Fatalf("Take = (%q, %v), want (second, true)", v, ok)
	}
}

func TestMailboxZeroValuePayload(t *testing.T) {
	var m Mailbox[[]byte]
	m.Put(nil)
	v, ok := m.Take()
	if !ok {
		t.Fatal("a stored nil slice is still a pending value")
	}
	if v != nil {
		t.Fatalf("value = %v, want nil", v)
	}
}
