// Package httpapi is the stateless action gateway. Agents authenticate every
// request with the bearer token minted on join; mutations run through the
// world loop, reads go straight to the social stores.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"agentgrid.ai/internal/auth"
	"agentgrid.ai/internal/protocol"
	"agentgrid.ai/internal/sim/social"
	"agentgrid.ai/internal/sim/world"
)

type Server struct {
	world    *world.World
	tokens   *auth.Registry
	exchange *social.Exchange
	memories *social.Memories
	log      *log.Logger
}

func NewServer(w *world.World, tokens *auth.Registry, exchange *social.Exchange, memories *social.Memories, logger *log.Logger) *Server {
	return &Server{world: w, tokens: tokens, exchange: exchange, memories: memories, log: logger}
}

// Router builds the /api tree. Every route sits behind bearer auth.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.bearerAuth)

	r.Post("/move", s.handleMove)
	r.Post("/harm", s.handleHarm)
	r.Post("/harm/heal", s.handleHeal)
	r.Post("/object", s.handlePlaceObject)
	r.Delete("/object", s.handleRemoveObject)
	r.Post("/exchange/send", s.handleExchangeSend)
	r.Get("/exchange/inbox", s.handleExchangeInbox)
	r.Get("/exchange/sent", s.handleExchangeSent)
	r.Post("/memory/memorise", s.handleMemorise)
	r.Get("/memory", s.handleMemoryList)
	return r
}

type ctxKey int

const credKey ctxKey = 1

func credential(r *http.Request) auth.Credential {
	c, _ := r.Context().Value(credKey).(auth.Credential)
	return c
}

func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, protocol.ErrAuth, "Missing bearer token")
			return
		}
		cred, ok := s.tokens.Validate(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, protocol.ErrAuth, "Invalid or expired API key")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), credKey, cred)))
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Direction string `json:"direction"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	res := s.world.Do(world.Command{Kind: world.CmdMove, AgentID: credential(r).AgentID, Direction: body.Direction})
	if !res.OK {
		writeResultError(w, res)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "position": res.Position})
}

func (s *Server) handleHarm(w http.ResponseWriter, r *http.Request) {
	s.handleCombat(w, r, world.CmdHarm)
}

func (s *Server) handleHeal(w http.ResponseWriter, r *http.Request) {
	s.handleCombat(w, r, world.CmdHeal)
}

func (s *Server) handleCombat(w http.ResponseWriter, r *http.Request, kind world.CommandKind) {
	var body struct {
		TargetID string `json:"targetId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.TargetID == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "targetId is required")
		return
	}
	res := s.world.Do(world.Command{Kind: kind, AgentID: credential(r).AgentID, TargetID: body.TargetID})
	if !res.OK {
		writeResultError(w, res)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": res.Message, "health": res.Health})
}

func (s *Server) handlePlaceObject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ObjectType string `json:"objectType"`
		X          int    `json:"x"`
		Y          int    `json:"y"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	res := s.world.Do(world.Command{
		Kind:       world.CmdPlaceObject,
		AgentID:    credential(r).AgentID,
		ObjectType: body.ObjectType,
		Pos:        world.Position{X: body.X, Y: body.Y},
	})
	if !res.OK {
		writeResultError(w, res)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "object": res.Object})
}

func (s *Server) handleRemoveObject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	res := s.world.Do(world.Command{
		Kind:    world.CmdRemoveObject,
		AgentID: credential(r).AgentID,
		Pos:     world.Position{X: body.X, Y: body.Y},
	})
	if !res.OK {
		writeResultError(w, res)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleExchangeSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ToID    string `json:"toId"`
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ToID == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "toId is required")
		return
	}
	res := s.world.Do(world.Command{
		Kind:     world.CmdSendMessage,
		AgentID:  credential(r).AgentID,
		TargetID: body.ToID,
		Content:  body.Content,
	})
	if !res.OK {
		writeResultError(w, res)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sent": res.Sent})
}

func (s *Server) handleExchangeInbox(w http.ResponseWriter, r *http.Request) {
	cred, ok := s.requireAlive(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": emptyIfNil(s.exchange.Inbox(cred.AgentID))})
}

func (s *Server) handleExchangeSent(w http.ResponseWriter, r *http.Request) {
	cred, ok := s.requireAlive(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": emptyIfNil(s.exchange.Sent(cred.AgentID))})
}

func (s *Server) handleMemorise(w http.ResponseWriter, r *http.Request) {
	cred, ok := s.requireAlive(w, r)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "content is required")
		return
	}
	mem := s.memories.Append(cred.AgentID, body.Content)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "memory": mem})
}

func (s *Server) handleMemoryList(w http.ResponseWriter, r *http.Request) {
	cred := credential(r)
	if info := s.world.AgentInfo(cred.AgentID); !info.Exists {
		writeError(w, http.StatusUnauthorized, protocol.ErrAuth, "Agent no longer exists")
		return
	}
	memories := s.memories.All(cred.AgentID)
	if memories == nil {
		memories = []protocol.Memory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "memories": memories})
}

// requireAlive gates endpoints that represent the agent acting in the world.
func (s *Server) requireAlive(w http.ResponseWriter, r *http.Request) (auth.Credential, bool) {
	cred := credential(r)
	info := s.world.AgentInfo(cred.AgentID)
	if !info.Exists {
		writeError(w, http.StatusUnauthorized, protocol.ErrAuth, "Agent no longer exists")
		return cred, false
	}
	if !info.Alive {
		writeError(w, http.StatusForbidden, protocol.ErrNoPermission, "Player is incapacitated (health is 0)")
		return cred, false
	}
	return cred, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "Malformed JSON body")
		return false
	}
	return true
}

func statusForCode(code string) int {
	switch code {
	case protocol.ErrBadRequest, protocol.ErrBlocked, protocol.ErrConflict:
		return http.StatusBadRequest
	case protocol.ErrAuth:
		return http.StatusUnauthorized
	case protocol.ErrNoPermission:
		return http.StatusForbidden
	case protocol.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeResultError(w http.ResponseWriter, res world.Result) {
	writeError(w, statusForCode(res.Code), res.Code, res.Message)
}

// writeError keeps the failure body flat: agents parse "error" as the
// human-readable message and "code" as the stable discriminator.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func emptyIfNil(msgs []protocol.ExchangeMessage) []protocol.ExchangeMessage {
	if msgs == nil {
		return []protocol.ExchangeMessage{}
	}
	return msgs
}
