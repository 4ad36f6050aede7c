package world

import "fmt"

type occupantKind int

const (
	occupantAgent occupantKind = iota + 1
	occupantObject
)

// occupant records what fills a grid cell. A nil *occupant means empty.
type occupant struct {
	Kind occupantKind
	ID   string
}

func newGrid(width, height int) [][]*occupant {
	g := make([][]*occupant, height)
	for y := range g {
		g[y] = make([]*occupant, width)
	}
	return g
}

func (w *World) inBounds(p Position) bool {
	return p.X >= 0 && p.X < w.cfg.Width && p.Y >= 0 && p.Y < w.cfg.Height
}

func (w *World) occupantAt(p Position) *occupant {
	if !w.inBounds(p) {
		return nil
	}
	return w.grid[p.Y][p.X]
}

func (w *World) setCell(p Position, o *occupant) {
	w.grid[p.Y][p.X] = o
}

func (w *World) clearCell(p Position) {
	w.grid[p.Y][p.X] = nil
}

// describeOccupant names whatever fills a cell, for blocked-move errors.
func (w *World) describeOccupant(o *occupant) string {
	switch o.Kind {
	case occupantAgent:
		if a, ok := w.agents[o.ID]; ok {
			return fmt.Sprintf("player %q", a.Name)
		}
	case occupantObject:
		if obj, ok := w.objects[o.ID]; ok {
			return fmt.Sprintf("%s %s placed by %s", obj.Emoji, obj.Type, obj.PlacedByName)
		}
	}
	return "something"
}

// findSpawn picks a random free cell, falling back to the origin when the
// attempt budget runs out.
func (w *World) findSpawn() Position {
	for i := 0; i < w.cfg.SpawnAttempts; i++ {
		p := Position{X: w.rng.Intn(w.cfg.Width), Y: w.rng.Intn(w.cfg.Height)}
		if w.occupantAt(p) == nil {
			return p
		}
	}
	return Position{X: 0, Y: 0}
}
