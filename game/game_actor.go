// File: game/game_actor.go
package game

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

// GameActor owns one game's state. Every command and timer event is a
// message in its mailbox, so handlers never interleave.
type GameActor struct {
	roomID string
	cfg    utils.Config
	state  *GameState
	rng    utils.Intner
	newID  func() string

	engine         *bollywood.Engine
	selfPID        *bollywood.PID
	broadcasterPID *bollywood.PID
	roomManagerPID *bollywood.PID

	subscribers map[*websocket.Conn]struct{}

	keyTimer     *time.Timer
	timeoutTimer *time.Timer
	lastStatus   RoomStatus
	logger       zerolog.Logger
}

// Option customises a GameActor at construction time.
type Option func(*GameActor)

// WithRand injects the random source used for positions, colours and tie-breaks.
func WithRand(r utils.Intner) Option {
	return func(a *GameActor) { a.rng = r }
}

// WithIDGenerator replaces uuid-based player ids.
func WithIDGenerator(f func() string) Option {
	return func(a *GameActor) { a.newID = f }
}

// WithBroadcaster makes the actor publish to an existing broadcaster instead
// of spawning its own.
func WithBroadcaster(pid *bollywood.PID) Option {
	return func(a *GameActor) { a.broadcasterPID = pid }
}

// WithRoomManager sets the actor that receives RoomStatus notifications.
func WithRoomManager(pid *bollywood.PID) Option {
	return func(a *GameActor) { a.roomManagerPID = pid }
}

// NewGameActorProducer creates a producer for the GameActor of room roomID.
func NewGameActorProducer(engine *bollywood.Engine, cfg utils.Config, roomID string, opts ...Option) bollywood.Producer {
	return func() bollywood.Actor {
		a := &GameActor{
			roomID: roomID,
			cfg:    cfg,
			state:  NewGameState(),
			rng:    utils.NewRand(time.Now().UnixNano()),
			newID:  uuid.NewString,
			engine: engine,
			logger: log.With().Str("room", roomID).Logger(),

			subscribers: make(map[*websocket.Conn]struct{}),
		}
		for _, opt := range opts {
			opt(a)
		}
		return a
	}
}

// Receive is the main message handler for the GameActor.
func (a *GameActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("GameActor panic recovered")
			ctx.Reply(fmt.Errorf("game actor %s panicked: %v", a.roomID, r))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
		a.logger = a.logger.With().Str("actor", a.selfPID.String()).Logger()
	}

	switch m := ctx.Message().(type) {
	case bollywood.Started:
		a.handleStart(ctx)

	case JoinRequest:
		player := a.handleJoin(m.Name)
		a.publish()
		ctx.Reply(player)

	case SetReadyRequest:
		if a.handleSetReady(m.PlayerID) {
			a.publish()
		}
		ctx.Reply(Ack{})

	case MoveRequest:
		if a.handleMove(m.PlayerID, m.Direction) {
			a.publish()
		}
		ctx.Reply(Ack{})

	case GetStateRequest:
		ctx.Reply(a.state.Snapshot())

	case spawnKeyTick:
		a.handleSpawnKey()
		a.publish()

	case gameTimeoutTick:
		a.handleGameTimeout()
		a.publish()

	case AddClient:
		if m.Conn != nil {
			a.subscribers[m.Conn] = struct{}{}
			if a.broadcasterPID != nil {
				a.engine.Send(a.broadcasterPID, m, a.selfPID)
				a.engine.Send(a.broadcasterPID, BroadcastStateCommand{RoomID: a.roomID, State: a.state.Snapshot()}, a.selfPID)
			}
			a.reportStatus()
		}
		ctx.Reply(Ack{})

	case RemoveClient:
		if _, ok := a.subscribers[m.Conn]; ok {
			delete(a.subscribers, m.Conn)
			// the broadcaster may be the sender, having already dropped the conn
			if a.broadcasterPID != nil && ctx.Sender() != a.broadcasterPID {
				a.engine.Send(a.broadcasterPID, m, a.selfPID)
			}
			a.reportStatus()
		}
		ctx.Reply(Ack{})

	case bollywood.Stopping:
		a.handleStopping()

	case bollywood.Stopped:
		a.logger.Debug().Msg("GameActor stopped")

	default:
		a.logger.Warn().Msgf("GameActor received unknown message type: %T", m)
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("unknown message type: %T", m))
		}
	}
}

// publish pushes the current snapshot to subscribers and reports status
// changes to the room manager.
func (a *GameActor) publish() {
	if a.state.GameOver {
		a.stopTimers()
	}
	if a.broadcasterPID != nil {
		a.engine.Send(a.broadcasterPID, BroadcastStateCommand{RoomID: a.roomID, State: a.state.Snapshot()}, a.selfPID)
	}
	a.reportStatus()
}

// reportStatus tells the room manager about phase, player or subscriber changes.
func (a *GameActor) reportStatus() {
	status := RoomStatus{
		RoomID:      a.roomID,
		Phase:       a.state.Phase(),
		Players:     len(a.state.Players),
		Subscribers: len(a.subscribers),
	}
	if status != a.lastStatus {
		a.lastStatus = status
		if a.roomManagerPID != nil {
			a.engine.Send(a.roomManagerPID, status, a.selfPID)
		}
	}
}
