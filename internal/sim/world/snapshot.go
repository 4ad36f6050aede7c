package world

import (
	"sort"

	"agentgrid.ai/internal/protocol"
)

// snapshot renders the connected world in a stable order. Disconnected
// agents inside their grace window are hidden from viewers but still hold
// their cells.
func (w *World) snapshot() protocol.WorldState {
	players := make([]protocol.PlayerView, 0, len(w.agents))
	for _, a := range w.agents {
		if a.Disconnected() {
			continue
		}
		players = append(players, a.View())
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	objects := make([]protocol.ObjectView, 0, len(w.objects))
	for _, o := range w.objects {
		objects = append(objects, o.View())
	}
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].PlacedAt != objects[j].PlacedAt {
			return objects[i].PlacedAt < objects[j].PlacedAt
		}
		return objects[i].ID < objects[j].ID
	})

	return protocol.WorldState{
		Players:   players,
		Objects:   objects,
		GridSize:  protocol.GridSize{Width: w.cfg.Width, Height: w.cfg.Height},
		CreatedAt: w.createdAt.UnixMilli(),
	}
}
