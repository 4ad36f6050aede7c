package world

import (
	"strings"
	"testing"
)

func TestMove_UpdatesGridAndHistory(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	putAgent(w, "p1", "alice", Position{X: 5, Y: 5}, 10)

	res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: DirRight})
	if !res.OK {
		t.Fatalf("move failed: %s %s", res.Code, res.Message)
	}
	if res.Position == nil || res.Position.X != 6 || res.Position.Y != 5 {
		t.Fatalf("unexpected position: %+v", res.Position)
	}
	if w.occupantAt(Position{X: 5, Y: 5}) != nil {
		t.Fatal("origin cell not vacated")
	}
	occ := w.occupantAt(Position{X: 6, Y: 5})
	if occ == nil || occ.Kind != occupantAgent || occ.ID != "p1" {
		t.Fatalf("destination cell not claimed: %+v", occ)
	}

	a := w.agents["p1"]
	if len(a.History) != 2 || a.History[1] != (Position{X: 6, Y: 5}) {
		t.Fatalf("history not extended: %+v", a.History)
	}
}

func TestMove_EdgeMessages(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})

	cases := []struct {
		pos       Position
		direction string
		want      string
	}{
		{Position{X: 0, Y: 0}, DirUp, "Cannot move up - already at top edge of the world"},
		{Position{X: 0, Y: 0}, DirLeft, "Cannot move left - already at left edge of the world"},
		{Position{X: 19, Y: 10}, DirDown, "Cannot move down - already at bottom edge of the world"},
		{Position{X: 19, Y: 10}, DirRight, "Cannot move right - already at right edge of the world"},
	}
	putAgent(w, "p1", "alice", cases[0].pos, 10)
	for _, tc := range cases {
		a := w.agents["p1"]
		w.clearCell(a.Pos)
		a.Pos = tc.pos
		w.setCell(tc.pos, &occupant{Kind: occupantAgent, ID: "p1"})

		res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: tc.direction})
		if res.OK {
			t.Fatalf("%s from %+v: expected failure", tc.direction, tc.pos)
		}
		if res.Message != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.direction, res.Message, tc.want)
		}
	}
}

func TestMove_BlockedCellsNameTheBlocker(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	putAgent(w, "p1", "alice", Position{X: 5, Y: 5}, 10)
	putAgent(w, "p2", "bob", Position{X: 6, Y: 5}, 10)
	putObject(w, "o1", ObjectRock, Position{X: 4, Y: 5})

	res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: DirRight})
	if res.OK || !strings.Contains(res.Message, `player "bob"`) {
		t.Fatalf("expected blocker named, got %q", res.Message)
	}
	res = do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: DirLeft})
	if res.OK || !strings.Contains(res.Message, "rock") {
		t.Fatalf("expected rock named, got %q", res.Message)
	}
	// The failed attempts must not touch position or history.
	a := w.agents["p1"]
	if a.Pos != (Position{X: 5, Y: 5}) || len(a.History) != 1 {
		t.Fatalf("failed move mutated agent: %+v %+v", a.Pos, a.History)
	}
}

func TestMove_HistoryCapped(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{HistoryCap: 3})
	putAgent(w, "p1", "alice", Position{X: 0, Y: 5}, 10)

	for i := 0; i < 6; i++ {
		if res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: DirRight}); !res.OK {
			t.Fatalf("move %d failed: %s", i, res.Message)
		}
	}
	a := w.agents["p1"]
	if len(a.History) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(a.History))
	}
	if a.History[2] != a.Pos || a.Pos != (Position{X: 6, Y: 5}) {
		t.Fatalf("history tail must be current position: %+v vs %+v", a.History, a.Pos)
	}
	if a.History[0] != (Position{X: 4, Y: 5}) {
		t.Fatalf("oldest entries not evicted: %+v", a.History)
	}
}

func TestMove_InvalidDirection(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	putAgent(w, "p1", "alice", Position{X: 5, Y: 5}, 10)

	res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: "sideways"})
	if res.OK || res.Code != "E_BAD_REQUEST" {
		t.Fatalf("expected E_BAD_REQUEST, got %+v", res)
	}
}

func TestMove_ProximityNotifiesNeighbor(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	putAgent(w, "p1", "alice", Position{X: 5, Y: 5}, 10)
	putAgent(w, "p2", "bob", Position{X: 7, Y: 6}, 10)

	// alice steps to (6,5): diagonal neighbor of bob.
	if res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: DirRight}); !res.OK {
		t.Fatalf("move failed: %s", res.Message)
	}

	notes := w.deps.Notifications.Drain("p2")
	if len(notes) != 1 {
		t.Fatalf("expected one proximity notification, got %d", len(notes))
	}
	if notes[0].Type != "proximity" || !strings.Contains(notes[0].Title, "alice") {
		t.Fatalf("unexpected notification: %+v", notes[0])
	}
	if notes[0].Metadata["x"] != 6 || notes[0].Metadata["y"] != 5 {
		t.Fatalf("notification metadata missing position: %+v", notes[0].Metadata)
	}
	if w.deps.Notifications.Drain("p1") != nil {
		t.Fatal("the mover must not notify itself")
	}
}
