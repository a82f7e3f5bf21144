// File: game/messages.go
package game

import (
	"time"

	"github.com/lguibr/keypass/bollywood"
	"golang.org/x/net/websocket"
)

// --- WebSocket Messages (Client <-> Server) ---

// ClientCommand is the single frame shape clients send over the websocket.
type ClientCommand struct {
	Action    string `json:"action"`              // "join" | "ready" | "move" | "state"
	Name      string `json:"name,omitempty"`      // join
	Direction string `json:"direction,omitempty"` // move
}

// StateMessage pushes a full snapshot to a client.
type StateMessage struct {
	MessageType string    `json:"messageType"` // "gameState"
	RoomID      string    `json:"roomId"`
	State       GameState `json:"state"`
}

// JoinedMessage tells a websocket client which player it controls.
type JoinedMessage struct {
	MessageType string `json:"messageType"` // "joined"
	Player      Player `json:"player"`
}

// ErrorMessage reports a transport-level problem (bad frame, unknown room...).
type ErrorMessage struct {
	MessageType string `json:"messageType"` // "error"
	Error       string `json:"error"`
}

// NewStateMessage wraps a snapshot for the wire.
func NewStateMessage(roomID string, state GameState) StateMessage {
	return StateMessage{MessageType: "gameState", RoomID: roomID, State: state}
}

// --- GameActor Messages ---

// JoinRequest adds a player. Reply: Player.
type JoinRequest struct {
	Name string
}

// SetReadyRequest marks a player ready. Reply: Ack.
type SetReadyRequest struct {
	PlayerID string
}

// MoveRequest moves a player one cell. Reply: Ack.
type MoveRequest struct {
	PlayerID  string
	Direction Direction
}

// GetStateRequest asks for a snapshot. Reply: GameState.
type GetStateRequest struct{}

// Ack acknowledges a command that has no result value.
type Ack struct{}

// spawnKeyTick is sent by the key timer into the actor's own mailbox.
type spawnKeyTick struct{}

// gameTimeoutTick is sent once by the timeout timer.
type gameTimeoutTick struct{}

// --- BroadcasterActor Messages ---

// AddClient tells the Broadcaster to start sending snapshots to a connection.
// Sent to the GameActor, which forwards it and pushes the current state.
type AddClient struct {
	Conn *websocket.Conn
}

// RemoveClient tells the Broadcaster to stop sending to a connection.
type RemoveClient struct {
	Conn *websocket.Conn
}

// BroadcastStateCommand carries a fresh snapshot from GameActor to BroadcasterActor.
type BroadcastStateCommand struct {
	RoomID string
	State  GameState
}

// --- RoomManagerActor Messages ---

// CreateRoomRequest asks for a new room. Empty ID lets the manager mint one.
// Reply: RoomCreated or error.
type CreateRoomRequest struct {
	ID string
}

// RoomCreated is the reply to CreateRoomRequest.
type RoomCreated struct {
	ID  string
	PID *bollywood.PID
}

// GetRoomRequest looks a room up by id. Reply: RoomResponse.
type GetRoomRequest struct {
	ID string
}

// RoomResponse is the reply to GetRoomRequest.
type RoomResponse struct {
	PID    *bollywood.PID
	Exists bool
}

// GetRoomListRequest asks for all rooms. Reply: RoomListResponse.
type GetRoomListRequest struct{}

// RoomInfo describes a room for listings.
type RoomInfo struct {
	ID          string         `json:"id"`
	PID         *bollywood.PID `json:"-"`
	Phase       string         `json:"phase"`
	Players     int            `json:"players"`
	Subscribers int            `json:"subscribers"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// RoomListResponse is the reply to GetRoomListRequest.
type RoomListResponse struct {
	Rooms []RoomInfo
}

// RemoveRoomRequest stops a room's GameActor. Reply: Ack or error.
type RemoveRoomRequest struct {
	ID string
}

// RoomStatus is sent by a GameActor to the RoomManager whenever its phase,
// player count or websocket subscriber count changes.
type RoomStatus struct {
	RoomID      string
	Phase       string
	Players     int
	Subscribers int
}

// NewJoinedMessage confirms a websocket join.
func NewJoinedMessage(p Player) JoinedMessage {
	return JoinedMessage{MessageType: "joined", Player: p}
}

// NewErrorMessage reports a rejected frame.
func NewErrorMessage(err string) ErrorMessage {
	return ErrorMessage{MessageType: "error", Error: err}
}
