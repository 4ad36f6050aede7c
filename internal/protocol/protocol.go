package protocol

import "encoding/json"

// Client -> server frame kinds.
const (
	TypeJoin        = "join"
	TypeLeave       = "leave"
	TypeMove        = "move"
	TypeStatus      = "status"
	TypePlaceObject = "placeObject"
)

// Server -> client frame kinds.
const (
	TypeJoined    = "joined"
	TypeLeft      = "left"
	TypeState     = "state"
	TypeError     = "error"
	TypeHeartbeat = "heartbeat"
)

// BaseMessage lets us route unknown JSON frames by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
