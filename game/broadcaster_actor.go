// File: game/broadcaster_actor.go
package game

import (
	"runtime/debug"
	"strings"

	"github.com/lguibr/keypass/bollywood"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

// BroadcasterActor pushes game snapshots to the websocket clients of one room.
type BroadcasterActor struct {
	clients      map[*websocket.Conn]bool
	selfPID      *bollywood.PID
	gameActorPID *bollywood.PID // notified when a write shows a client is gone
	sent         int
}

// NewBroadcasterProducer creates a producer for BroadcasterActor.
func NewBroadcasterProducer(gameActorPID *bollywood.PID) bollywood.Producer {
	return func() bollywood.Actor {
		return &BroadcasterActor{
			clients:      make(map[*websocket.Conn]bool),
			gameActorPID: gameActorPID,
		}
	}
}

// Receive handles messages for the BroadcasterActor.
func (a *BroadcasterActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("actor", a.selfPID.String()).Interface("panic", r).
				Str("stack", string(debug.Stack())).Msg("BroadcasterActor panic recovered")
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		// Actor started

	case AddClient:
		if msg.Conn != nil {
			a.clients[msg.Conn] = true
		}

	case RemoveClient:
		delete(a.clients, msg.Conn)

	case BroadcastStateCommand:
		a.broadcastState(ctx, NewStateMessage(msg.RoomID, msg.State))

	case bollywood.Stopping:
		log.Debug().Str("actor", a.selfPID.String()).Int("clients", len(a.clients)).Int("sent", a.sent).Msg("Broadcaster stopping")
		a.clients = make(map[*websocket.Conn]bool)

	case bollywood.Stopped:
		// Actor stopped

	default:
		log.Warn().Str("actor", a.selfPID.String()).Msgf("BroadcasterActor received unknown message type: %T", msg)
	}
}

// broadcastState writes the snapshot to every client and drops the ones whose
// connection is gone.
func (a *BroadcasterActor) broadcastState(ctx bollywood.Context, state StateMessage) {
	if len(a.clients) == 0 {
		return
	}

	disconnected := []*websocket.Conn{}
	for ws := range a.clients {
		err := websocket.JSON.Send(ws, &state)
		if err == nil {
			a.sent++
			continue
		}
		if isClosedConnErr(err) {
			disconnected = append(disconnected, ws)
		} else {
			log.Error().Err(err).Str("actor", a.selfPID.String()).Msg("Broadcaster failed to write state")
		}
	}

	for _, ws := range disconnected {
		delete(a.clients, ws)
		if a.gameActorPID != nil {
			ctx.Engine().Send(a.gameActorPID, RemoveClient{Conn: ws}, a.selfPID)
		}
	}
}

func isClosedConnErr(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "write: connection timed out")
}
