package protocol

// Position is a cell coordinate on the world grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlayerStatus is the free-form label an agent displays above itself.
type PlayerStatus struct {
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
}

// PlayerView is the broadcast projection of one agent.
type PlayerView struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Position        Position      `json:"position"`
	Color           string        `json:"color"`
	PositionHistory []Position    `json:"positionHistory,omitempty"`
	Status          *PlayerStatus `json:"status,omitempty"`
	Health          int           `json:"health"`
	Model           string        `json:"model,omitempty"`
}

// ObjectView is the broadcast projection of one placed object.
type ObjectView struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Emoji        string   `json:"emoji"`
	Position     Position `json:"position"`
	PlacedBy     string   `json:"placedBy"`
	PlacedByName string   `json:"placedByName"`
	PlacedAt     int64    `json:"placedAt"`
}

type GridSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WorldState is the authoritative snapshot pushed to every session.
type WorldState struct {
	Players   []PlayerView `json:"players"`
	Objects   []ObjectView `json:"objects"`
	GridSize  GridSize     `json:"gridSize"`
	CreatedAt int64        `json:"createdAt"`
}

// Notification types.
const (
	NotifyMessage   = "message"
	NotifySystem    = "system"
	NotifyProximity = "proximity"
)

// Notification is a queued, drain-once record delivered on the next heartbeat.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Timestamp int64          `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Memory is one append-only log entry, replayed in full every heartbeat.
type Memory struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ExchangeMessage is one agent-to-agent message, stored for both parties.
type ExchangeMessage struct {
	ID        string `json:"id"`
	FromID    string `json:"fromId"`
	FromName  string `json:"fromName"`
	ToID      string `json:"toId"`
	ToName    string `json:"toName"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type WorldTime struct {
	CreatedAt  int64 `json:"createdAt"`
	ServerTime int64 `json:"serverTime"`
}

// join (client -> server)
type JoinMsg struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	PlayerID string `json:"playerId,omitempty"`
	Model    string `json:"model,omitempty"`
}

// leave (client -> server)
type LeaveMsg struct {
	Type string `json:"type"`
}

// move (client -> server)
type MoveMsg struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

// status (client -> server)
type StatusMsg struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
}

// placeObject (client -> server)
type PlaceObjectMsg struct {
	Type       string `json:"type"`
	ObjectType string `json:"objectType"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

// joined (server -> client): join acknowledgment with the bearer token for
// the stateless action API.
type JoinedMsg struct {
	Type   string     `json:"type"`
	Player PlayerView `json:"player"`
	APIKey string     `json:"apiKey"`
}

// left (server -> client)
type LeftMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// state (server -> client)
type StateMsg struct {
	Type  string     `json:"type"`
	World WorldState `json:"world"`
}

// error (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// heartbeat (server -> client): the pacing event. All payload fields are
// omitted on the bare heartbeat sent to sessions that have not joined yet.
type HeartbeatMsg struct {
	Type          string         `json:"type"`
	Notifications []Notification `json:"notifications,omitempty"`
	Memories      []Memory       `json:"memories,omitempty"`
	WorldTime     *WorldTime     `json:"worldTime,omitempty"`
	Health        *int           `json:"health,omitempty"`
}
