package world

import (
	"fmt"

	"github.com/google/uuid"

	"agentgrid.ai/internal/protocol"
)

type CommandKind int

const (
	CmdMove CommandKind = iota + 1
	CmdStatus
	CmdPlaceObject
	CmdRemoveObject
	CmdHarm
	CmdHeal
	CmdSendMessage
)

// Command is one mutation request from a transport. Resp receives exactly
// one Result.
type Command struct {
	Kind    CommandKind
	AgentID string

	Direction string // CmdMove

	Emoji string // CmdStatus
	Text  string // CmdStatus

	ObjectType string   // CmdPlaceObject
	Pos        Position // CmdPlaceObject, CmdRemoveObject

	TargetID string // CmdHarm, CmdHeal, CmdSendMessage
	Content  string // CmdSendMessage

	Resp chan Result
}

type Result struct {
	OK      bool
	Code    string
	Message string

	Position *protocol.Position        // move
	Health   int                       // harm, heal (target's new health)
	Object   *protocol.ObjectView      // place
	Sent     *protocol.ExchangeMessage // send
}

func fail(code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (w *World) handleCommand(cmd Command) {
	actor, ok := w.agents[cmd.AgentID]
	var res Result
	switch {
	case !ok:
		res = fail(protocol.ErrNotFound, "Player not found")
	case !actor.Alive():
		res = fail(protocol.ErrNoPermission, "Player is incapacitated (health is 0)")
	default:
		switch cmd.Kind {
		case CmdMove:
			res = w.doMove(actor, cmd.Direction)
		case CmdStatus:
			res = w.doStatus(actor, cmd.Emoji, cmd.Text)
		case CmdPlaceObject:
			res = w.doPlaceObject(actor, cmd.ObjectType, cmd.Pos)
		case CmdRemoveObject:
			res = w.doRemoveObject(actor, cmd.Pos)
		case CmdHarm:
			res = w.doHarm(actor, cmd.TargetID)
		case CmdHeal:
			res = w.doHeal(actor, cmd.TargetID)
		case CmdSendMessage:
			res = w.doSendMessage(actor, cmd.TargetID, cmd.Content)
		default:
			res = fail(protocol.ErrBadRequest, "Unknown command")
		}
	}
	if cmd.Resp != nil {
		cmd.Resp <- res
	}
}

func (w *World) doMove(actor *Agent, direction string) Result {
	if !validDirection(direction) {
		return fail(protocol.ErrBadRequest, "Invalid direction: %s", direction)
	}
	next := actor.Pos
	switch direction {
	case DirUp:
		next.Y--
	case DirDown:
		next.Y++
	case DirLeft:
		next.X--
	case DirRight:
		next.X++
	}
	if !w.inBounds(next) {
		return fail(protocol.ErrBlocked, "Cannot move %s - already at %s of the world", direction, edgeName(direction))
	}
	if occ := w.occupantAt(next); occ != nil {
		return fail(protocol.ErrBlocked, "Cannot move %s - cell is occupied by %s", direction, w.describeOccupant(occ))
	}

	w.clearCell(actor.Pos)
	actor.recordPosition(next, w.cfg.HistoryCap)
	w.setCell(next, &occupant{Kind: occupantAgent, ID: actor.ID})
	w.notifyNeighbors(actor)
	w.audit(AuditEntry{
		Actor:  actor.ID,
		Name:   actor.Name,
		Action: "MOVE",
		Pos:    &[2]int{next.X, next.Y},
		Detail: direction,
	})
	w.broadcastState()

	pos := next.View()
	return Result{OK: true, Position: &pos}
}

// notifyNeighbors tells every connected agent now adjacent to the mover that
// someone stepped next to them.
func (w *World) notifyNeighbors(mover *Agent) {
	for _, other := range w.agents {
		if other.ID == mover.ID || other.Disconnected() || !other.Alive() {
			continue
		}
		if !Adjacent(mover.Pos, other.Pos) {
			continue
		}
		w.deps.Notifications.Enqueue(other.ID, protocol.NotifyProximity,
			fmt.Sprintf("%s is nearby", mover.Name),
			fmt.Sprintf("%s moved to (%d, %d) next to you", mover.Name, mover.Pos.X, mover.Pos.Y),
			map[string]any{
				"agentId": mover.ID,
				"name":    mover.Name,
				"x":       mover.Pos.X,
				"y":       mover.Pos.Y,
			})
	}
}

func (w *World) doStatus(actor *Agent, emoji, text string) Result {
	if emoji == "" && text == "" {
		actor.Status = nil
	} else {
		actor.Status = &protocol.PlayerStatus{Emoji: emoji, Text: text}
	}
	w.audit(AuditEntry{Actor: actor.ID, Name: actor.Name, Action: "STATUS", Detail: emoji + " " + text})
	w.broadcastState()
	return Result{OK: true}
}

func (w *World) doPlaceObject(actor *Agent, objectType string, pos Position) Result {
	if !validObjectType(objectType) {
		return fail(protocol.ErrBadRequest, "Invalid object type: %s", objectType)
	}
	if !w.inBounds(pos) {
		return fail(protocol.ErrBadRequest, "Position out of bounds")
	}
	if !Adjacent(actor.Pos, pos) {
		return fail(protocol.ErrNoPermission, "Can only place objects on adjacent cells (sides or corners)")
	}
	if w.occupantAt(pos) != nil {
		return fail(protocol.ErrConflict, "Position already occupied")
	}

	obj := &WorldObject{
		ID:           uuid.NewString(),
		Type:         objectType,
		Emoji:        objectEmojis[objectType],
		Pos:          pos,
		PlacedBy:     actor.ID,
		PlacedByName: actor.Name,
		PlacedAt:     w.now(),
	}
	w.objects[obj.ID] = obj
	w.setCell(pos, &occupant{Kind: occupantObject, ID: obj.ID})
	w.audit(AuditEntry{
		Actor:  actor.ID,
		Name:   actor.Name,
		Action: "PLACE_OBJECT",
		Pos:    &[2]int{pos.X, pos.Y},
		Detail: objectType,
	})
	w.broadcastState()

	view := obj.View()
	return Result{OK: true, Object: &view}
}

func (w *World) doRemoveObject(actor *Agent, pos Position) Result {
	if !w.inBounds(pos) {
		return fail(protocol.ErrBadRequest, "Position out of bounds")
	}
	if !Adjacent(actor.Pos, pos) {
		return fail(protocol.ErrNoPermission, "Must be adjacent to the object to remove it")
	}
	occ := w.occupantAt(pos)
	if occ == nil || occ.Kind != occupantObject {
		return fail(protocol.ErrNotFound, "No object found at the specified position")
	}

	obj := w.objects[occ.ID]
	delete(w.objects, occ.ID)
	w.clearCell(pos)
	w.audit(AuditEntry{
		Actor:  actor.ID,
		Name:   actor.Name,
		Action: "REMOVE_OBJECT",
		Pos:    &[2]int{pos.X, pos.Y},
		Detail: obj.Type,
	})
	w.broadcastState()
	return Result{OK: true}
}

func (w *World) doHarm(actor *Agent, targetID string) Result {
	target, ok := w.agents[targetID]
	if !ok || target.Disconnected() {
		return fail(protocol.ErrNotFound, "Target player not found")
	}
	if target.ID == actor.ID {
		return fail(protocol.ErrNoPermission, "Cannot harm yourself")
	}
	if Manhattan(actor.Pos, target.Pos) > 1 {
		return fail(protocol.ErrNoPermission, "Target is not adjacent (must be within 1 cell)")
	}

	if target.Health > 0 {
		target.Health--
	}
	w.deps.Memories.Append(target.ID, fmt.Sprintf("You were harmed by %s. Health reduced to %d.", actor.Name, target.Health))
	w.deps.Notifications.Enqueue(target.ID, protocol.NotifySystem,
		fmt.Sprintf("%s harmed you", actor.Name),
		fmt.Sprintf("Your health is now %d.", target.Health),
		map[string]any{"agentId": actor.ID, "name": actor.Name, "health": target.Health})
	w.audit(AuditEntry{
		Actor:  actor.ID,
		Name:   actor.Name,
		Action: "HARM",
		Target: target.ID,
		Detail: fmt.Sprintf("health=%d", target.Health),
	})
	w.broadcastState()
	return Result{OK: true, Health: target.Health, Message: fmt.Sprintf("Harmed %s (health now %d)", target.Name, target.Health)}
}

func (w *World) doHeal(actor *Agent, targetID string) Result {
	target, ok := w.agents[targetID]
	if !ok || target.Disconnected() {
		return fail(protocol.ErrNotFound, "Target player not found")
	}
	if target.ID == actor.ID {
		return fail(protocol.ErrNoPermission, "Cannot heal yourself")
	}
	if Manhattan(actor.Pos, target.Pos) > 1 {
		return fail(protocol.ErrNoPermission, "Target is not adjacent (must be within 1 cell)")
	}
	if target.Health >= w.cfg.MaxHealth {
		return fail(protocol.ErrConflict, "Target is already at maximum health")
	}

	target.Health += 2
	if target.Health > w.cfg.MaxHealth {
		target.Health = w.cfg.MaxHealth
	}
	w.deps.Memories.Append(target.ID, fmt.Sprintf("You were healed by %s. Health increased to %d.", actor.Name, target.Health))
	w.deps.Notifications.Enqueue(target.ID, protocol.NotifySystem,
		fmt.Sprintf("%s healed you", actor.Name),
		fmt.Sprintf("Your health is now %d.", target.Health),
		map[string]any{"agentId": actor.ID, "name": actor.Name, "health": target.Health})
	w.audit(AuditEntry{
		Actor:  actor.ID,
		Name:   actor.Name,
		Action: "HEAL",
		Target: target.ID,
		Detail: fmt.Sprintf("health=%d", target.Health),
	})
	w.broadcastState()
	return Result{OK: true, Health: target.Health, Message: fmt.Sprintf("Healed %s (health now %d)", target.Name, target.Health)}
}

func (w *World) doSendMessage(actor *Agent, targetID, content string) Result {
	if content == "" {
		return fail(protocol.ErrBadRequest, "Message content is required")
	}
	target, ok := w.agents[targetID]
	if !ok || target.Disconnected() {
		return fail(protocol.ErrNotFound, "Recipient not found")
	}

	msg := w.deps.Exchange.Send(actor.ID, actor.Name, target.ID, target.Name, content)
	w.audit(AuditEntry{Actor: actor.ID, Name: actor.Name, Action: "SEND_MESSAGE", Target: target.ID})
	return Result{OK: true, Sent: &msg}
}
