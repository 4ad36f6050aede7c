package world

import (
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"agentgrid.ai/internal/protocol"
	"agentgrid.ai/internal/sim/social"
)

// Credentials is the token authority the world drives on join, leave, and
// grace expiry. Satisfied by auth.Registry.
type Credentials interface {
	Issue(agentID, name string) string
	Revoke(agentID string)
}

// AuditLogger receives one entry per accepted mutation. Implementations must
// not block; the world loop calls them inline.
type AuditLogger interface {
	WriteAudit(e AuditEntry) error
}

type AuditEntry struct {
	TS     int64   `json:"ts"`
	Actor  string  `json:"actor"`
	Name   string  `json:"name,omitempty"`
	Action string  `json:"action"`
	Pos    *[2]int `json:"pos,omitempty"`
	Target string  `json:"target,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// Deps bundles the collaborators the world loop calls into. All of them are
// internally synchronized, so the loop can use them without extra locking.
type Deps struct {
	Notifications *social.Notifications
	Memories      *social.Memories
	Exchange      *social.Exchange
	Credentials   Credentials
	Audit         AuditLogger
	Logger        *log.Logger
}

type session struct {
	Out     chan []byte
	AgentID string
}

type openRequest struct {
	SessionID string
	Out       chan []byte
}

type joinRequest struct {
	SessionID string
	Name      string
	PlayerID  string
	Model     string
	Resp      chan JoinResult
}

type JoinResult struct {
	OK      bool
	Code    string
	Message string
	Player  protocol.PlayerView
	APIKey  string
}

type leaveRequest struct {
	SessionID string
	Resp      chan Result
}

type agentInfoRequest struct {
	AgentID string
	Resp    chan AgentInfo
}

// AgentInfo is the gateway's view of one agent, read through the loop.
type AgentInfo struct {
	Exists bool
	Alive  bool
	ID     string
	Name   string
	Health int
}

// World owns all simulation state. Every field below the channels is touched
// only from the Run goroutine.
type World struct {
	cfg  WorldConfig
	deps Deps

	open     chan openRequest
	closed   chan string
	join     chan joinRequest
	leave    chan leaveRequest
	commands chan Command
	stateReq chan chan protocol.WorldState
	infoReq  chan agentInfoRequest
	stop     chan struct{}

	createdAt time.Time
	agents    map[string]*Agent
	objects   map[string]*WorldObject
	grid      [][]*occupant
	sessions  map[string]*session
	rng       *rand.Rand

	agentCount   atomic.Int64
	sessionCount atomic.Int64
	heartbeats   atomic.Uint64

	// nowFn is swapped in tests to drive the grace window.
	nowFn func() time.Time
}

func (w *World) now() time.Time { return w.nowFn() }

func New(cfg WorldConfig, deps Deps) *World {
	cfg.applyDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	return &World{
		cfg:       cfg,
		deps:      deps,
		open:      make(chan openRequest, 16),
		closed:    make(chan string, 16),
		join:      make(chan joinRequest, 16),
		leave:     make(chan leaveRequest, 16),
		commands:  make(chan Command, 256),
		stateReq:  make(chan chan protocol.WorldState, 16),
		infoReq:   make(chan agentInfoRequest, 16),
		stop:      make(chan struct{}),
		createdAt: time.Now(),
		agents:    make(map[string]*Agent),
		objects:   make(map[string]*WorldObject),
		grid:      newGrid(cfg.Width, cfg.Height),
		sessions:  make(map[string]*session),
		rng:       rand.New(rand.NewSource(seed)),
		nowFn:     time.Now,
	}
}

func (w *World) Config() WorldConfig { return w.cfg }

// Stop terminates the Run loop. Safe to call once.
func (w *World) Stop() { close(w.stop) }

// Open registers a transport session before any join. The out channel must
// be drained by a writer goroutine; slow readers get frames dropped, never a
// stalled loop.
func (w *World) Open(sessionID string, out chan []byte) {
	w.open <- openRequest{SessionID: sessionID, Out: out}
}

// Closed reports that a transport session went away without a leave.
func (w *World) Closed(sessionID string) {
	w.closed <- sessionID
}

func (w *World) Join(sessionID, name, playerID, model string) JoinResult {
	resp := make(chan JoinResult, 1)
	w.join <- joinRequest{SessionID: sessionID, Name: name, PlayerID: playerID, Model: model, Resp: resp}
	return <-resp
}

func (w *World) Leave(sessionID string) Result {
	resp := make(chan Result, 1)
	w.leave <- leaveRequest{SessionID: sessionID, Resp: resp}
	return <-resp
}

// Do submits a command and waits for its result.
func (w *World) Do(cmd Command) Result {
	cmd.Resp = make(chan Result, 1)
	w.commands <- cmd
	return <-cmd.Resp
}

func (w *World) State() protocol.WorldState {
	resp := make(chan protocol.WorldState, 1)
	w.stateReq <- resp
	return <-resp
}

func (w *World) AgentInfo(agentID string) AgentInfo {
	resp := make(chan AgentInfo, 1)
	w.infoReq <- agentInfoRequest{AgentID: agentID, Resp: resp}
	return <-resp
}

// Metrics is a point-in-time gauge snapshot, safe from any goroutine.
type Metrics struct {
	Agents       int64
	Sessions     int64
	Heartbeats   uint64
	CommandQueue int
}

func (w *World) Metrics() Metrics {
	return Metrics{
		Agents:       w.agentCount.Load(),
		Sessions:     w.sessionCount.Load(),
		Heartbeats:   w.heartbeats.Load(),
		CommandQueue: len(w.commands),
	}
}

// sendLatest pushes a frame without ever blocking the loop: when the buffer
// is full the oldest frame is dropped in favor of the new one.
func sendLatest(out chan []byte, frame []byte) {
	for {
		select {
		case out <- frame:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (w *World) audit(e AuditEntry) {
	if w.deps.Audit == nil {
		return
	}
	if e.TS == 0 {
		e.TS = time.Now().UnixMilli()
	}
	if err := w.deps.Audit.WriteAudit(e); err != nil {
		w.deps.Logger.Printf("audit write failed: %v", err)
	}
}
