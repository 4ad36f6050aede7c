package social

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"agentgrid.ai/internal/protocol"
)

// Memories is a per-agent append-only log with FIFO eviction at the cap.
// Unlike notifications it is never drained: the full list is re-read on
// every heartbeat.
type Memories struct {
	mu  sync.Mutex
	cap int
	log map[string][]protocol.Memory
}

func NewMemories(cap int) *Memories {
	if cap <= 0 {
		cap = 500
	}
	return &Memories{cap: cap, log: map[string][]protocol.Memory{}}
}

func (m *Memories) Append(agentID, content string) protocol.Memory {
	entry := protocol.Memory{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
	m.mu.Lock()
	entries := append(m.log[agentID], entry)
	if len(entries) > m.cap {
		entries = entries[len(entries)-m.cap:]
	}
	m.log[agentID] = entries
	m.mu.Unlock()
	return entry
}

// All returns a copy of the agent's full memory log, oldest first.
func (m *Memories) All(agentID string) []protocol.Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.log[agentID]
	if len(entries) == 0 {
		return nil
	}
	out := make([]protocol.Memory, len(entries))
	copy(out, entries)
	return out
}

func (m *Memories) RemoveAgent(agentID string) {
	m.mu.Lock()
	delete(m.log, agentID)
	m.mu.Unlock()
}
