package world

import (
	"time"

	"agentgrid.ai/internal/protocol"
)

// Object types form a small closed set; every variant is impassable.
const (
	ObjectRock     = "rock"
	ObjectTree     = "tree"
	ObjectFire     = "fire"
	ObjectFountain = "fountain"
)

var objectEmojis = map[string]string{
	ObjectRock:     "🪨",
	ObjectTree:     "🌳",
	ObjectFire:     "🔥",
	ObjectFountain: "⛲",
}

func validObjectType(t string) bool {
	_, ok := objectEmojis[t]
	return ok
}

type WorldObject struct {
	ID           string
	Type         string
	Emoji        string
	Pos          Position
	PlacedBy     string
	PlacedByName string
	PlacedAt     time.Time
}

func (o *WorldObject) View() protocol.ObjectView {
	return protocol.ObjectView{
		ID:           o.ID,
		Type:         o.Type,
		Emoji:        o.Emoji,
		Position:     o.Pos.View(),
		PlacedBy:     o.PlacedBy,
		PlacedByName: o.PlacedByName,
		PlacedAt:     o.PlacedAt.UnixMilli(),
	}
}
