package world

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentgrid.ai/internal/protocol"
)

// Run drives the world until ctx is cancelled or Stop is called. All state
// mutation happens here, one event at a time.
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	w.deps.Logger.Printf("world loop started: %dx%d grid, heartbeat %s",
		w.cfg.Width, w.cfg.Height, w.cfg.HeartbeatInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.open:
			w.handleOpen(req)
		case id := <-w.closed:
			w.handleClosed(id)
		case req := <-w.join:
			w.handleJoin(req)
		case req := <-w.leave:
			w.handleLeave(req)
		case cmd := <-w.commands:
			w.handleCommand(cmd)
		case resp := <-w.stateReq:
			resp <- w.snapshot()
		case req := <-w.infoReq:
			w.handleAgentInfo(req)
		case <-ticker.C:
			w.heartbeat(w.now())
		}
	}
}

func (w *World) handleOpen(req openRequest) {
	w.sessions[req.SessionID] = &session{Out: req.Out}
	w.sessionCount.Store(int64(len(w.sessions)))
}

func (w *World) handleClosed(sessionID string) {
	sess, ok := w.sessions[sessionID]
	if !ok {
		return
	}
	delete(w.sessions, sessionID)
	w.sessionCount.Store(int64(len(w.sessions)))
	if sess.AgentID == "" {
		return
	}
	if a, ok := w.agents[sess.AgentID]; ok && !a.Disconnected() {
		a.markDisconnected(w.now())
		w.deps.Logger.Printf("agent %s (%s) disconnected, grace window %s", a.Name, a.ID, w.cfg.GraceWindow)
		w.broadcastState()
	}
}

func (w *World) handleJoin(req joinRequest) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		req.Resp <- JoinResult{Code: protocol.ErrBadRequest, Message: "Player name is required"}
		return
	}
	sess, ok := w.sessions[req.SessionID]
	if !ok {
		req.Resp <- JoinResult{Code: protocol.ErrBadRequest, Message: "Session is not attached"}
		return
	}
	if sess.AgentID != "" {
		req.Resp <- JoinResult{Code: protocol.ErrConflict, Message: "Session has already joined"}
		return
	}

	newID := req.PlayerID
	if newID == "" {
		newID = uuid.NewString()
	}

	agent := w.findReclaimable(name)
	if agent != nil {
		// Display names are unique: a join with an existing name takes the
		// body over under a fresh identity, whether or not the old session
		// is still open.
		oldID := agent.ID
		delete(w.agents, oldID)
		agent.reclaim(newID, req.Model)
		w.agents[newID] = agent
		w.setCell(agent.Pos, &occupant{Kind: occupantAgent, ID: newID})
		w.deps.Credentials.Revoke(oldID)
		for _, other := range w.sessions {
			if other.AgentID == oldID {
				other.AgentID = ""
			}
		}
		w.deps.Logger.Printf("agent %s reclaimed by new session (was %s, now %s)", name, oldID, newID)
	} else {
		agent = &Agent{
			ID:     newID,
			Name:   name,
			Color:  displayColors[len(w.agents)%len(displayColors)],
			Model:  req.Model,
			Health: w.cfg.MaxHealth,
		}
		agent.recordPosition(w.findSpawn(), w.cfg.HistoryCap)
		w.agents[newID] = agent
		w.setCell(agent.Pos, &occupant{Kind: occupantAgent, ID: newID})
		w.deps.Logger.Printf("agent %s joined at (%d, %d)", name, agent.Pos.X, agent.Pos.Y)
	}
	w.agentCount.Store(int64(len(w.agents)))
	sess.AgentID = newID

	apiKey := w.deps.Credentials.Issue(newID, name)
	w.audit(AuditEntry{
		Actor:  newID,
		Name:   name,
		Action: "JOIN",
		Pos:    &[2]int{agent.Pos.X, agent.Pos.Y},
	})

	req.Resp <- JoinResult{OK: true, Player: agent.View(), APIKey: apiKey}
	w.broadcastState()
}

// findReclaimable returns the agent with this exact display name, if any.
func (w *World) findReclaimable(name string) *Agent {
	for _, a := range w.agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (w *World) handleLeave(req leaveRequest) {
	sess, ok := w.sessions[req.SessionID]
	if !ok || sess.AgentID == "" {
		req.Resp <- fail(protocol.ErrBadRequest, "Session has not joined")
		return
	}
	agentID := sess.AgentID
	sess.AgentID = ""
	agent, ok := w.agents[agentID]
	if !ok {
		req.Resp <- fail(protocol.ErrNotFound, "Player not found")
		return
	}

	w.purgeAgent(agent)
	w.audit(AuditEntry{Actor: agentID, Name: agent.Name, Action: "LEAVE"})
	w.deps.Logger.Printf("agent %s (%s) left", agent.Name, agentID)

	req.Resp <- Result{OK: true}
	w.broadcastFrame(mustMarshal(protocol.LeftMsg{Type: protocol.TypeLeft, PlayerID: agentID}))
	w.broadcastState()
}

// purgeAgent removes an agent for good: grid cell, credential, and all
// social state. Placed objects stay in the world.
func (w *World) purgeAgent(agent *Agent) {
	if occ := w.occupantAt(agent.Pos); occ != nil && occ.Kind == occupantAgent && occ.ID == agent.ID {
		w.clearCell(agent.Pos)
	}
	delete(w.agents, agent.ID)
	w.agentCount.Store(int64(len(w.agents)))
	w.deps.Credentials.Revoke(agent.ID)
	w.deps.Notifications.RemoveAgent(agent.ID)
	w.deps.Memories.RemoveAgent(agent.ID)
	w.deps.Exchange.RemoveAgent(agent.ID)
}

func (w *World) handleAgentInfo(req agentInfoRequest) {
	a, ok := w.agents[req.AgentID]
	if !ok {
		req.Resp <- AgentInfo{}
		return
	}
	req.Resp <- AgentInfo{Exists: true, Alive: a.Alive(), ID: a.ID, Name: a.Name, Health: a.Health}
}

// heartbeat sweeps expired disconnects, then pushes one pacing frame to
// every session. Joined sessions get their drained notifications, full
// memory log, world time, and health; unjoined sessions get a bare frame.
func (w *World) heartbeat(now time.Time) {
	w.sweepExpired(now)

	worldTime := &protocol.WorldTime{
		CreatedAt:  w.createdAt.UnixMilli(),
		ServerTime: now.UnixMilli(),
	}
	bare := mustMarshal(protocol.HeartbeatMsg{Type: protocol.TypeHeartbeat})

	for _, sess := range w.sessions {
		if sess.AgentID == "" {
			sendLatest(sess.Out, bare)
			continue
		}
		agent, ok := w.agents[sess.AgentID]
		if !ok || !agent.Alive() {
			continue
		}
		health := agent.Health
		frame := mustMarshal(protocol.HeartbeatMsg{
			Type:          protocol.TypeHeartbeat,
			Notifications: w.deps.Notifications.Drain(agent.ID),
			Memories:      w.deps.Memories.All(agent.ID),
			WorldTime:     worldTime,
			Health:        &health,
		})
		sendLatest(sess.Out, frame)
	}
	w.heartbeats.Add(1)
}

// sweepExpired evicts agents whose disconnect outlived the grace window.
// Their tokens die with them; exchange history and memories are kept so a
// later operator query can still see them.
func (w *World) sweepExpired(now time.Time) {
	var changed bool
	for id, a := range w.agents {
		if !a.Disconnected() || now.Sub(a.DisconnectedAt) <= w.cfg.GraceWindow {
			continue
		}
		if occ := w.occupantAt(a.Pos); occ != nil && occ.Kind == occupantAgent && occ.ID == id {
			w.clearCell(a.Pos)
		}
		delete(w.agents, id)
		w.deps.Credentials.Revoke(id)
		w.audit(AuditEntry{Actor: id, Name: a.Name, Action: "EXPIRE"})
		w.deps.Logger.Printf("agent %s (%s) expired after grace window", a.Name, id)
		changed = true
	}
	if changed {
		w.agentCount.Store(int64(len(w.agents)))
		w.broadcastState()
	}
}

func (w *World) broadcastState() {
	if len(w.sessions) == 0 {
		return
	}
	w.broadcastFrame(mustMarshal(protocol.StateMsg{Type: protocol.TypeState, World: w.snapshot()}))
}

func (w *World) broadcastFrame(frame []byte) {
	for _, sess := range w.sessions {
		sendLatest(sess.Out, frame)
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
