package world

import (
	"time"

	"agentgrid.ai/internal/protocol"
)

// Agent is one player in the world. All fields are owned by the world loop.
type Agent struct {
	ID    string
	Name  string
	Color string
	Model string

	Pos Position
	// History is a bounded ring of recent positions, oldest evicted.
	History []Position

	Status *protocol.PlayerStatus
	Health int

	// DisconnectedAt is zero while the agent's session is open.
	DisconnectedAt time.Time
}

var displayColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12",
	"#9b59b6", "#1abc9c", "#e67e22", "#34495e",
}

func (a *Agent) Alive() bool { return a.Health > 0 }

func (a *Agent) Disconnected() bool { return !a.DisconnectedAt.IsZero() }

func (a *Agent) recordPosition(p Position, cap int) {
	a.Pos = p
	a.History = append(a.History, p)
	if len(a.History) > cap {
		a.History = a.History[len(a.History)-cap:]
	}
}

func (a *Agent) markDisconnected(now time.Time) {
	a.DisconnectedAt = now
}

// reclaim revives a disconnected agent under a fresh identity, keeping its
// position, health, history, and status.
func (a *Agent) reclaim(newID, model string) {
	a.ID = newID
	a.DisconnectedAt = time.Time{}
	if model != "" {
		a.Model = model
	}
}

func (a *Agent) View() protocol.PlayerView {
	history := make([]protocol.Position, len(a.History))
	for i, p := range a.History {
		history[i] = p.View()
	}
	return protocol.PlayerView{
		ID:              a.ID,
		Name:            a.Name,
		Position:        a.Pos.View(),
		Color:           a.Color,
		PositionHistory: history,
		Status:          a.Status,
		Health:          a.Health,
		Model:           a.Model,
	}
}
