// File: game/handle.go
package game

import (
	"fmt"
	"time"

	"github.com/lguibr/keypass/bollywood"
)

// Handle is the synchronous API of one running game. Each call waits until
// the GameActor has processed it.
type Handle struct {
	engine  *bollywood.Engine
	pid     *bollywood.PID
	timeout time.Duration
}

// NewHandle wraps the GameActor at pid.
func NewHandle(engine *bollywood.Engine, pid *bollywood.PID, timeout time.Duration) *Handle {
	return &Handle{engine: engine, pid: pid, timeout: timeout}
}

// PID returns the GameActor's PID.
func (h *Handle) PID() *bollywood.PID { return h.pid }

// Join adds a player named name and returns it.
func (h *Handle) Join(name string) (Player, error) {
	reply, err := h.engine.Ask(h.pid, JoinRequest{Name: name}, h.timeout)
	if err != nil {
		return Player{}, fmt.Errorf("join: %w", err)
	}
	player, ok := reply.(Player)
	if !ok {
		return Player{}, fmt.Errorf("join: unexpected reply %T", reply)
	}
	return player, nil
}

// SetReady marks a player ready. Unknown ids are accepted silently.
func (h *Handle) SetReady(playerID string) error {
	if _, err := h.engine.Ask(h.pid, SetReadyRequest{PlayerID: playerID}, h.timeout); err != nil {
		return fmt.Errorf("set ready: %w", err)
	}
	return nil
}

// Move moves a player one cell. Unknown ids and directions are accepted silently.
func (h *Handle) Move(playerID string, dir Direction) error {
	if _, err := h.engine.Ask(h.pid, MoveRequest{PlayerID: playerID, Direction: dir}, h.timeout); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	return nil
}

// State returns a snapshot of the game.
func (h *Handle) State() (GameState, error) {
	reply, err := h.engine.Ask(h.pid, GetStateRequest{}, h.timeout)
	if err != nil {
		return GameState{}, fmt.Errorf("get state: %w", err)
	}
	state, ok := reply.(GameState)
	if !ok {
		return GameState{}, fmt.Errorf("get state: unexpected reply %T", reply)
	}
	return state, nil
}

// Rooms is the synchronous API of the RoomManagerActor.
type Rooms struct {
	engine  *bollywood.Engine
	pid     *bollywood.PID
	timeout time.Duration
}

// NewRooms wraps the RoomManagerActor at pid.
func NewRooms(engine *bollywood.Engine, pid *bollywood.PID, timeout time.Duration) *Rooms {
	return &Rooms{engine: engine, pid: pid, timeout: timeout}
}

// Create spawns a room. An empty id lets the manager pick one.
func (r *Rooms) Create(id string) (string, error) {
	reply, err := r.engine.Ask(r.pid, CreateRoomRequest{ID: id}, r.timeout)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	created, ok := reply.(RoomCreated)
	if !ok {
		return "", fmt.Errorf("create room: unexpected reply %T", reply)
	}
	return created.ID, nil
}

// Get returns a Handle for room id, or ErrRoomNotFound.
func (r *Rooms) Get(id string) (*Handle, error) {
	reply, err := r.engine.Ask(r.pid, GetRoomRequest{ID: id}, r.timeout)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	resp, ok := reply.(RoomResponse)
	if !ok {
		return nil, fmt.Errorf("get room: unexpected reply %T", reply)
	}
	if !resp.Exists {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return NewHandle(r.engine, resp.PID, r.timeout), nil
}

// List returns all rooms, oldest first.
func (r *Rooms) List() ([]RoomInfo, error) {
	reply, err := r.engine.Ask(r.pid, GetRoomListRequest{}, r.timeout)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	resp, ok := reply.(RoomListResponse)
	if !ok {
		return nil, fmt.Errorf("list rooms: unexpected reply %T", reply)
	}
	return resp.Rooms, nil
}

// Remove stops room id.
func (r *Rooms) Remove(id string) error {
	if _, err := r.engine.Ask(r.pid, RemoveRoomRequest{ID: id}, r.timeout); err != nil {
		return fmt.Errorf("remove room: %w", err)
	}
	return nil
}
