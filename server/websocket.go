// File: server/websocket.go
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

// handleSubscribe upgrades to a websocket that receives every snapshot of the
// room and accepts ClientCommand frames.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ref := roomFrom(r)
	websocket.Handler(func(ws *websocket.Conn) {
		sess := &session{
			server: s,
			room:   ref,
			ws:     ws,
			logger: log.With().Str("room", ref.id).Str("remote", r.RemoteAddr).Logger(),
		}
		sess.run()
	}).ServeHTTP(w, r)
}

// session is one websocket connection. It remembers the player it joined as.
type session struct {
	server   *Server
	room     roomRef
	ws       *websocket.Conn
	playerID string
	logger   zerolog.Logger
}

func (c *session) run() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("websocket session panic recovered")
		}
		_ = c.ws.Close()
	}()

	gamePID := c.room.handle.PID()
	if _, err := c.server.engine.Ask(gamePID, game.AddClient{Conn: c.ws}, c.server.cfg.AskTimeout); err != nil {
		c.logger.Warn().Err(err).Msg("could not subscribe websocket")
		return
	}
	c.logger.Info().Msg("websocket subscribed")
	defer func() {
		c.server.engine.Send(gamePID, game.RemoveClient{Conn: c.ws}, nil)
		c.logger.Info().Str("player", c.playerID).Msg("websocket unsubscribed")
	}()

	for {
		var cmd game.ClientCommand
		err := websocket.JSON.Receive(c.ws, &cmd)
		if err != nil {
			if isBadFrame(err) {
				c.send(game.NewErrorMessage("invalid frame: " + err.Error()))
				continue
			}
			if !errors.Is(err, io.EOF) {
				c.logger.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		if err := c.dispatch(cmd); err != nil {
			c.send(game.NewErrorMessage(err.Error()))
			continue
		}
		state, err := c.room.handle.State()
		if err != nil {
			c.logger.Warn().Err(err).Msg("game unavailable, closing websocket")
			return
		}
		c.send(game.NewStateMessage(c.room.id, state))
	}
}

var (
	errNameRequired  = errors.New("name is required")
	errAlreadyJoined = errors.New("already joined")
	errNotJoined     = errors.New("join first")
)

func (c *session) dispatch(cmd game.ClientCommand) error {
	switch cmd.Action {
	case "join":
		name := strings.TrimSpace(cmd.Name)
		if name == "" {
			return errNameRequired
		}
		if c.playerID != "" {
			return errAlreadyJoined
		}
		player, err := c.room.handle.Join(name)
		if err != nil {
			return err
		}
		c.playerID = player.ID
		c.send(game.NewJoinedMessage(player))

	case "ready":
		if c.playerID == "" {
			return errNotJoined
		}
		return c.room.handle.SetReady(c.playerID)

	case "move":
		if c.playerID == "" {
			return errNotJoined
		}
		return c.room.handle.Move(c.playerID, game.Direction(utils.DirectionFromString(cmd.Direction)))

	case "state":

	default:
		return errors.New("unknown action: " + cmd.Action)
	}
	return nil
}

func (c *session) send(v interface{}) {
	if err := websocket.JSON.Send(c.ws, v); err != nil {
		c.logger.Debug().Err(err).Msg("websocket write failed")
	}
}

// isBadFrame reports a JSON decoding problem that leaves the connection usable.
func isBadFrame(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
