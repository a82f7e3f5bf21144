// File: game/room_manager.go
package game

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrTooManyRooms = errors.New("room limit reached")
)

// RoomManagerActor owns the registry of game rooms, one GameActor per room.
type RoomManagerActor struct {
	engine   *bollywood.Engine
	cfg      utils.Config
	rooms    map[string]*RoomInfo
	selfPID  *bollywood.PID
	gameOpts []Option
}

// NewRoomManagerProducer creates a producer for the RoomManagerActor. opts are
// applied to every GameActor it spawns.
func NewRoomManagerProducer(engine *bollywood.Engine, cfg utils.Config, opts ...Option) bollywood.Producer {
	return func() bollywood.Actor {
		return &RoomManagerActor{
			engine:   engine,
			cfg:      cfg,
			rooms:    make(map[string]*RoomInfo),
			gameOpts: opts,
		}
	}
}

// Receive Method
func (a *RoomManagerActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("actor", a.selfPID.String()).Interface("panic", r).
				Str("stack", string(debug.Stack())).Msg("RoomManagerActor panic recovered")
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("room manager panicked: %v", r))
			}
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		log.Info().Str("actor", a.selfPID.String()).Int("maxRooms", a.cfg.MaxRooms).Msg("RoomManagerActor started")

	case CreateRoomRequest:
		a.handleCreateRoom(ctx, msg.ID)

	case GetRoomRequest:
		info, ok := a.rooms[msg.ID]
		if !ok {
			ctx.Reply(RoomResponse{})
			return
		}
		ctx.Reply(RoomResponse{PID: info.PID, Exists: true})

	case GetRoomListRequest:
		a.handleGetRoomList(ctx)

	case RemoveRoomRequest:
		a.handleRemoveRoom(ctx, msg.ID)

	case RoomStatus:
		if info, ok := a.rooms[msg.RoomID]; ok {
			if info.Phase != msg.Phase {
				log.Info().Str("room", msg.RoomID).Str("from", info.Phase).Str("to", msg.Phase).Msg("room phase changed")
			}
			info.Phase = msg.Phase
			info.Players = msg.Players
			info.Subscribers = msg.Subscribers
		}

	case bollywood.Stopping:
		log.Info().Str("actor", a.selfPID.String()).Int("rooms", len(a.rooms)).Msg("RoomManagerActor stopping, shutting down all rooms")
		for id, info := range a.rooms {
			a.engine.Stop(info.PID)
			delete(a.rooms, id)
		}

	case bollywood.Stopped:
		log.Debug().Str("actor", a.selfPID.String()).Msg("RoomManagerActor stopped")

	default:
		log.Warn().Str("actor", a.selfPID.String()).Msgf("RoomManagerActor received unknown message type: %T", msg)
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("unknown message type: %T", msg))
		}
	}
}

func (a *RoomManagerActor) handleCreateRoom(ctx bollywood.Context, roomID string) {
	if roomID == "" {
		roomID = uuid.NewString()[:8]
	}
	if _, exists := a.rooms[roomID]; exists {
		ctx.Reply(fmt.Errorf("%w: %s", ErrRoomExists, roomID))
		return
	}
	if len(a.rooms) >= a.cfg.MaxRooms {
		log.Warn().Str("room", roomID).Int("maxRooms", a.cfg.MaxRooms).Msg("max rooms reached, rejecting")
		ctx.Reply(fmt.Errorf("%w (%d)", ErrTooManyRooms, a.cfg.MaxRooms))
		return
	}

	opts := append([]Option{WithRoomManager(a.selfPID)}, a.gameOpts...)
	pid := a.engine.Spawn(bollywood.NewProps(NewGameActorProducer(a.engine, a.cfg, roomID, opts...)))
	if pid == nil {
		ctx.Reply(fmt.Errorf("spawn game actor for room %s: %w", roomID, bollywood.ErrEngineStopping))
		return
	}

	a.rooms[roomID] = &RoomInfo{ID: roomID, PID: pid, Phase: PhaseLobby, CreatedAt: time.Now()}
	log.Info().Str("room", roomID).Str("actor", pid.String()).Msg("room created")
	ctx.Reply(RoomCreated{ID: roomID, PID: pid})
}

func (a *RoomManagerActor) handleRemoveRoom(ctx bollywood.Context, roomID string) {
	info, ok := a.rooms[roomID]
	if !ok {
		ctx.Reply(fmt.Errorf("%w: %s", ErrRoomNotFound, roomID))
		return
	}
	delete(a.rooms, roomID)
	a.engine.Stop(info.PID)
	log.Info().Str("room", roomID).Msg("room removed")
	ctx.Reply(Ack{})
}

func (a *RoomManagerActor) handleGetRoomList(ctx bollywood.Context) {
	list := make([]RoomInfo, 0, len(a.rooms))
	for _, info := range a.rooms {
		list = append(list, *info)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	ctx.Reply(RoomListResponse{Rooms: list})
}
