package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"agentgrid.ai/internal/protocol"
	"agentgrid.ai/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID := uuid.NewString()
		out := make(chan []byte, 32)
		s.world.Open(sessionID, out)
		defer s.world.Closed(sessionID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. The world loop pushes frames into out; this is
		// the only goroutine allowed to write on the connection.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Sessions may idle for a long time between actions,
		// so there is no read deadline; heartbeats keep the pipe warm.
		var agentID string
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			agentID = s.dispatch(ctx, sessionID, agentID, msg, out)
		}
	}
}

// dispatch routes one inbound frame and returns the session's agent id,
// which changes on join and leave.
func (s *Server) dispatch(ctx context.Context, sessionID, agentID string, msg []byte, out chan []byte) string {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(ctx, out, protocol.ErrBadRequest, "Malformed JSON")
		return agentID
	}

	switch base.Type {
	case protocol.TypeJoin:
		var join protocol.JoinMsg
		if err := json.Unmarshal(msg, &join); err != nil {
			s.sendError(ctx, out, protocol.ErrBadRequest, "Malformed join")
			return agentID
		}
		res := s.world.Join(sessionID, join.Name, join.PlayerID, join.Model)
		if !res.OK {
			s.sendError(ctx, out, res.Code, res.Message)
			return agentID
		}
		s.send(ctx, out, protocol.JoinedMsg{Type: protocol.TypeJoined, Player: res.Player, APIKey: res.APIKey})
		return res.Player.ID

	case protocol.TypeLeave:
		res := s.world.Leave(sessionID)
		if !res.OK {
			s.sendError(ctx, out, res.Code, res.Message)
			return agentID
		}
		return ""

	case protocol.TypeMove:
		var move protocol.MoveMsg
		if err := json.Unmarshal(msg, &move); err != nil {
			s.sendError(ctx, out, protocol.ErrBadRequest, "Malformed move")
			return agentID
		}
		s.command(ctx, out, world.Command{Kind: world.CmdMove, AgentID: agentID, Direction: move.Direction})
		return agentID

	case protocol.TypeStatus:
		var status protocol.StatusMsg
		if err := json.Unmarshal(msg, &status); err != nil {
			s.sendError(ctx, out, protocol.ErrBadRequest, "Malformed status")
			return agentID
		}
		s.command(ctx, out, world.Command{Kind: world.CmdStatus, AgentID: agentID, Emoji: status.Emoji, Text: status.Text})
		return agentID

	case protocol.TypePlaceObject:
		var place protocol.PlaceObjectMsg
		if err := json.Unmarshal(msg, &place); err != nil {
			s.sendError(ctx, out, protocol.ErrBadRequest, "Malformed placeObject")
			return agentID
		}
		s.command(ctx, out, world.Command{
			Kind:       world.CmdPlaceObject,
			AgentID:    agentID,
			ObjectType: place.ObjectType,
			Pos:        world.Position{X: place.X, Y: place.Y},
		})
		return agentID

	default:
		s.sendError(ctx, out, protocol.ErrBadRequest, "Unknown message type: "+base.Type)
		return agentID
	}
}

// command submits a world mutation; only failures produce a direct reply,
// successes are observed through the state broadcast.
func (s *Server) command(ctx context.Context, out chan []byte, cmd world.Command) {
	if cmd.AgentID == "" {
		s.sendError(ctx, out, protocol.ErrAuth, "Join the world first")
		return
	}
	if res := s.world.Do(cmd); !res.OK {
		s.sendError(ctx, out, res.Code, res.Message)
	}
}

func (s *Server) sendError(ctx context.Context, out chan []byte, code, message string) {
	s.send(ctx, out, protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message})
}

func (s *Server) send(ctx context.Context, out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("marshal outbound frame: %v", err)
		return
	}
	select {
	case out <- b:
	case <-ctx.Done():
	}
}
