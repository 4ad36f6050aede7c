// Package social holds the per-agent message exchange, notification queue,
// and memory log. Each store is keyed by agent identity and guarded by its
// own mutex; drain and append operations are atomic per store.
package social

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"agentgrid.ai/internal/protocol"
)

type Notifications struct {
	mu      sync.Mutex
	pending map[string][]protocol.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{pending: map[string][]protocol.Notification{}}
}

// Enqueue appends a notification for the agent. ID and timestamp are
// assigned here.
func (n *Notifications) Enqueue(agentID, kind, title, content string, metadata map[string]any) protocol.Notification {
	note := protocol.Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Title:     title,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		Metadata:  metadata,
	}
	n.mu.Lock()
	n.pending[agentID] = append(n.pending[agentID], note)
	n.mu.Unlock()
	return note
}

// Drain atomically returns and clears the agent's queue, so each
// notification is delivered in at most one heartbeat.
func (n *Notifications) Drain(agentID string) []protocol.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	notes := n.pending[agentID]
	if len(notes) == 0 {
		return nil
	}
	delete(n.pending, agentID)
	return notes
}

// RemoveAgent erases all queued notifications for the identity.
func (n *Notifications) RemoveAgent(agentID string) {
	n.mu.Lock()
	delete(n.pending, agentID)
	n.mu.Unlock()
}
