package world

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"agentgrid.ai/internal/protocol"
	"agentgrid.ai/internal/sim/social"
)

type fakeCreds struct {
	issued  []string
	revoked []string
}

func (f *fakeCreds) Issue(agentID, name string) string {
	f.issued = append(f.issued, agentID)
	return "sk-test-" + agentID
}

func (f *fakeCreds) Revoke(agentID string) {
	f.revoked = append(f.revoked, agentID)
}

func newTestWorld(cfg WorldConfig) (*World, *fakeCreds) {
	creds := &fakeCreds{}
	notes := social.NewNotifications()
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	w := New(cfg, Deps{
		Notifications: notes,
		Memories:      social.NewMemories(0),
		Exchange:      social.NewExchange(notes),
		Credentials:   creds,
		Logger:        log.New(io.Discard, "", 0),
	})
	return w, creds
}

// putAgent drops a connected agent straight into the grid, bypassing join.
func putAgent(w *World, id, name string, pos Position, health int) *Agent {
	a := &Agent{ID: id, Name: name, Color: displayColors[0], Health: health}
	a.recordPosition(pos, w.cfg.HistoryCap)
	w.agents[id] = a
	w.setCell(pos, &occupant{Kind: occupantAgent, ID: id})
	w.agentCount.Store(int64(len(w.agents)))
	return a
}

func putObject(w *World, id, typ string, pos Position) *WorldObject {
	o := &WorldObject{ID: id, Type: typ, Emoji: objectEmojis[typ], Pos: pos, PlacedAt: w.now()}
	w.objects[id] = o
	w.setCell(pos, &occupant{Kind: occupantObject, ID: id})
	return o
}

// do runs one command synchronously through the loop's handler.
func do(w *World, cmd Command) Result {
	cmd.Resp = make(chan Result, 1)
	w.handleCommand(cmd)
	return <-cmd.Resp
}

func openSession(w *World, sessionID string) chan []byte {
	out := make(chan []byte, 64)
	w.handleOpen(openRequest{SessionID: sessionID, Out: out})
	return out
}

func joinSession(w *World, sessionID, name, playerID, model string) JoinResult {
	resp := make(chan JoinResult, 1)
	w.handleJoin(joinRequest{SessionID: sessionID, Name: name, PlayerID: playerID, Model: model, Resp: resp})
	return <-resp
}

func drainFrames(out chan []byte) [][]byte {
	var frames [][]byte
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func framesOfType(t *testing.T, frames [][]byte, frameType string) [][]byte {
	t.Helper()
	var matched [][]byte
	for _, f := range frames {
		base, err := protocol.DecodeBase(f)
		if err != nil {
			t.Fatalf("undecodable frame %s: %v", f, err)
		}
		if base.Type == frameType {
			matched = append(matched, f)
		}
	}
	return matched
}

func TestSnapshot_HidesDisconnectedAgents(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	putAgent(w, "p1", "alice", Position{X: 1, Y: 1}, 10)
	ghost := putAgent(w, "p2", "bob", Position{X: 2, Y: 1}, 10)
	ghost.markDisconnected(w.now())

	snap := w.snapshot()
	if len(snap.Players) != 1 || snap.Players[0].ID != "p1" {
		t.Fatalf("expected only the connected agent, got %+v", snap.Players)
	}
	if snap.GridSize.Width != 20 || snap.GridSize.Height != 11 {
		t.Fatalf("unexpected grid size %+v", snap.GridSize)
	}

	// The ghost still blocks its cell.
	res := do(w, Command{Kind: CmdMove, AgentID: "p1", Direction: DirRight})
	if res.OK {
		t.Fatalf("expected move into ghost cell to be blocked")
	}
}

func TestSnapshot_StableOrdering(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	putAgent(w, "z", "zoe", Position{X: 0, Y: 0}, 10)
	putAgent(w, "a", "abe", Position{X: 5, Y: 5}, 10)

	snap := w.snapshot()
	if snap.Players[0].ID != "a" || snap.Players[1].ID != "z" {
		t.Fatalf("expected players sorted by id, got %+v", snap.Players)
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("empty snapshot")
	}
}
