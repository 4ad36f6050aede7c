package social

import (
	"fmt"
	"testing"

	"agentgrid.ai/internal/protocol"
)

func TestNotifications_DrainIsDestructive(t *testing.T) {
	n := NewNotifications()
	n.Enqueue("a", protocol.NotifySystem, "t1", "c1", nil)
	n.Enqueue("a", protocol.NotifyProximity, "t2", "c2", nil)

	first := n.Drain("a")
	if len(first) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(first))
	}
	if first[0].Title != "t1" || first[1].Title != "t2" {
		t.Fatalf("expected FIFO order, got %v then %v", first[0].Title, first[1].Title)
	}
	if second := n.Drain("a"); second != nil {
		t.Fatalf("expected empty second drain, got %d", len(second))
	}

	n.Enqueue("a", protocol.NotifySystem, "t3", "c3", nil)
	if third := n.Drain("a"); len(third) != 1 || third[0].Title != "t3" {
		t.Fatalf("expected only the new notification after drain")
	}
}

func TestMemories_ReadIsNonDestructiveAndCapped(t *testing.T) {
	m := NewMemories(3)
	for i := 0; i < 5; i++ {
		m.Append("a", fmt.Sprintf("entry %d", i))
	}

	got := m.All("a")
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(got))
	}
	// Oldest entries evicted first.
	if got[0].Content != "entry 2" || got[2].Content != "entry 4" {
		t.Fatalf("unexpected retained entries: %v .. %v", got[0].Content, got[2].Content)
	}

	again := m.All("a")
	if len(again) != 3 {
		t.Fatalf("expected repeated read unchanged, got %d", len(again))
	}

	// Returned slice is a copy; mutating it must not corrupt the store.
	again[0].Content = "tampered"
	if m.All("a")[0].Content != "entry 2" {
		t.Fatalf("store mutated through returned slice")
	}
}

func TestExchange_DualListsAndNotification(t *testing.T) {
	n := NewNotifications()
	e := NewExchange(n)

	msg := e.Send("a", "alice", "b", "bob", "hello bob")
	if msg.ID == "" || msg.Timestamp == 0 {
		t.Fatalf("message not stamped: %+v", msg)
	}

	if inbox := e.Inbox("b"); len(inbox) != 1 || inbox[0].Content != "hello bob" {
		t.Fatalf("recipient inbox wrong: %+v", inbox)
	}
	if sent := e.Sent("a"); len(sent) != 1 || sent[0].ToName != "bob" {
		t.Fatalf("sender sent-list wrong: %+v", sent)
	}
	if inbox := e.Inbox("a"); inbox != nil {
		t.Fatalf("sender inbox should be empty: %+v", inbox)
	}

	notes := n.Drain("b")
	if len(notes) != 1 || notes[0].Type != protocol.NotifyMessage {
		t.Fatalf("expected message notification for recipient, got %+v", notes)
	}
	if notes[0].Metadata["fromId"] != "a" {
		t.Fatalf("notification metadata missing sender: %+v", notes[0].Metadata)
	}
	if n.Drain("a") != nil {
		t.Fatalf("sender must not be notified")
	}
}

func TestExchange_RemoveAgentClearsOwnListOnly(t *testing.T) {
	e := NewExchange(NewNotifications())
	e.Send("a", "alice", "b", "bob", "hi")
	e.RemoveAgent("a")

	if sent := e.Sent("a"); sent != nil {
		t.Fatalf("expected sender list cleared")
	}
	// The recipient's copy survives.
	if inbox := e.Inbox("b"); len(inbox) != 1 {
		t.Fatalf("recipient copy lost")
	}
}
