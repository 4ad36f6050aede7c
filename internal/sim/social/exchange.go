package social

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"agentgrid.ai/internal/protocol"
)

// Exchange stores agent-to-agent messages. Every message is appended to both
// the sender's and the recipient's list and never deleted individually; an
// identity's list is cleared only when that identity leaves for good.
type Exchange struct {
	mu       sync.Mutex
	messages map[string][]protocol.ExchangeMessage
	notify   *Notifications
}

func NewExchange(notify *Notifications) *Exchange {
	return &Exchange{
		messages: map[string][]protocol.ExchangeMessage{},
		notify:   notify,
	}
}

// Send records the message for both parties and queues a message
// notification for the recipient.
func (e *Exchange) Send(fromID, fromName, toID, toName, content string) protocol.ExchangeMessage {
	msg := protocol.ExchangeMessage{
		ID:        uuid.NewString(),
		FromID:    fromID,
		FromName:  fromName,
		ToID:      toID,
		ToName:    toName,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}

	e.mu.Lock()
	e.messages[fromID] = append(e.messages[fromID], msg)
	e.messages[toID] = append(e.messages[toID], msg)
	e.mu.Unlock()

	e.notify.Enqueue(toID, protocol.NotifyMessage, "New message from "+fromName, content, map[string]any{
		"fromId":    fromID,
		"fromName":  fromName,
		"messageId": msg.ID,
	})
	return msg
}

// Inbox returns the messages where the agent is the recipient.
func (e *Exchange) Inbox(agentID string) []protocol.ExchangeMessage {
	return e.filter(agentID, func(m protocol.ExchangeMessage) bool { return m.ToID == agentID })
}

// Sent returns the messages where the agent is the sender.
func (e *Exchange) Sent(agentID string) []protocol.ExchangeMessage {
	return e.filter(agentID, func(m protocol.ExchangeMessage) bool { return m.FromID == agentID })
}

func (e *Exchange) filter(agentID string, keep func(protocol.ExchangeMessage) bool) []protocol.ExchangeMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []protocol.ExchangeMessage
	for _, m := range e.messages[agentID] {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (e *Exchange) RemoveAgent(agentID string) {
	e.mu.Lock()
	delete(e.messages, agentID)
	e.mu.Unlock()
}
