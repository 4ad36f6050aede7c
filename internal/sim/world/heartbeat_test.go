package world

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"agentgrid.ai/internal/protocol"
)

func TestHeartbeat_BareFrameForUnjoinedSession(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	out := openSession(w, "s1")

	w.heartbeat(w.now())
	frames := framesOfType(t, drainFrames(out), "heartbeat")
	if len(frames) != 1 {
		t.Fatalf("expected one heartbeat, got %d", len(frames))
	}
	if string(frames[0]) != `{"type":"heartbeat"}` {
		t.Fatalf("bare heartbeat must carry no payload: %s", frames[0])
	}
}

func TestHeartbeat_DrainsNotificationsOnceButReplaysMemories(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	out := openSession(w, "s1")
	res := joinSession(w, "s1", "alice", "", "")
	id := res.Player.ID
	drainFrames(out)

	w.deps.Notifications.Enqueue(id, protocol.NotifySystem, "hello", "first contact", nil)
	w.deps.Memories.Append(id, "met bob at the fountain")

	w.heartbeat(w.now())
	frames := framesOfType(t, drainFrames(out), "heartbeat")
	if len(frames) != 1 {
		t.Fatalf("expected one heartbeat, got %d", len(frames))
	}
	var hb protocol.HeartbeatMsg
	if err := json.Unmarshal(frames[0], &hb); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hb.Notifications) != 1 || hb.Notifications[0].Title != "hello" {
		t.Fatalf("notifications missing: %+v", hb.Notifications)
	}
	if len(hb.Memories) != 1 || hb.Memories[0].Content != "met bob at the fountain" {
		t.Fatalf("memories missing: %+v", hb.Memories)
	}
	if hb.WorldTime == nil || hb.Health == nil || *hb.Health != 10 {
		t.Fatalf("world time and health must ride every joined heartbeat: %+v", hb)
	}

	// Next beat: notifications are gone, memories replay in full.
	w.heartbeat(w.now())
	frames = framesOfType(t, drainFrames(out), "heartbeat")
	hb = protocol.HeartbeatMsg{}
	if err := json.Unmarshal(frames[0], &hb); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if hb.Notifications != nil {
		t.Fatalf("notifications must drain exactly once: %+v", hb.Notifications)
	}
	if len(hb.Memories) != 1 {
		t.Fatalf("memories must replay: %+v", hb.Memories)
	}
}

func TestHeartbeat_SkipsIncapacitatedAgents(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	out := openSession(w, "s1")
	res := joinSession(w, "s1", "alice", "", "")
	w.agents[res.Player.ID].Health = 0
	drainFrames(out)

	w.heartbeat(w.now())
	if frames := framesOfType(t, drainFrames(out), "heartbeat"); len(frames) != 0 {
		t.Fatalf("incapacitated agents get no heartbeat, got %d", len(frames))
	}
}

func TestHeartbeat_CounterAdvances(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{})
	w.heartbeat(w.now())
	w.heartbeat(w.now())
	if got := w.Metrics().Heartbeats; got != 2 {
		t.Fatalf("expected 2 heartbeats, got %d", got)
	}
}

func TestRunLoop_EndToEnd(t *testing.T) {
	w, _ := newTestWorld(WorldConfig{HeartbeatInterval: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	out := make(chan []byte, 64)
	w.Open("s1", out)
	res := w.Join("s1", "alice", "", "")
	if !res.OK {
		t.Fatalf("join failed: %+v", res)
	}
	move := w.Do(Command{Kind: CmdMove, AgentID: res.Player.ID, Direction: DirDown})
	if !move.OK && move.Code != "E_BLOCKED" {
		t.Fatalf("unexpected move result: %+v", move)
	}
	state := w.State()
	if len(state.Players) != 1 {
		t.Fatalf("expected one player in snapshot, got %d", len(state.Players))
	}
	info := w.AgentInfo(res.Player.ID)
	if !info.Exists || !info.Alive || info.Name != "alice" {
		t.Fatalf("unexpected agent info: %+v", info)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-out:
			base, _ := protocol.DecodeBase(f)
			if base.Type == "heartbeat" {
				w.Stop()
				if err := <-done; err != nil {
					t.Fatalf("run returned %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("no heartbeat observed")
		}
	}
}
