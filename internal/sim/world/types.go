package world

import "agentgrid.ai/internal/protocol"

type Position struct {
	X int
	Y int
}

func (p Position) View() protocol.Position { return protocol.Position{X: p.X, Y: p.Y} }

func Manhattan(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Adjacent reports whether b is one of the 8 cells surrounding a.
// A cell is never adjacent to itself.
func Adjacent(a, b Position) bool {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx <= 1 && dy <= 1 && (dx > 0 || dy > 0)
}

// Movement directions.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
)

func validDirection(d string) bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

func edgeName(direction string) string {
	switch direction {
	case DirUp:
		return "top edge"
	case DirDown:
		return "bottom edge"
	case DirLeft:
		return "left edge"
	default:
		return "right edge"
	}
}
