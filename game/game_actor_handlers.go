// File: game/game_actor_handlers.go
package game

import (
	"github.com/lguibr/keypass/utils"
)

// handleJoin mints a player at a random cell with a random colour. Joins are
// accepted in every phase. Like every command it ends with the game-over check.
func (a *GameActor) handleJoin(name string) Player {
	x, y := utils.NewRandomPosition(a.rng, a.cfg.GridSize)
	player := &Player{
		ID:    a.newID(),
		Name:  name,
		Pos:   Position{X: x, Y: y},
		Alive: true,
		Color: utils.NewRandomColor(a.rng),
	}
	a.state.Players[player.ID] = player

	a.logger.Info().Str("player", player.ID).Str("name", name).
		Int("x", x).Int("y", y).Str("phase", a.state.Phase()).Msg("player joined")
	if a.state.checkGameOver() {
		a.logGameOver("join")
	}
	return *player
}

// handleSetReady marks the player ready and starts the game once everyone
// present is ready. Unknown ids are ignored.
func (a *GameActor) handleSetReady(playerID string) bool {
	p, ok := a.state.Players[playerID]
	if !ok {
		a.logger.Debug().Str("player", playerID).Msg("ready for unknown player ignored")
		return false
	}
	p.Ready = true

	if !a.state.GameStarted && a.state.allReady() {
		a.startGame()
	}
	// a solo player who readies up starts and immediately ends the game
	if a.state.checkGameOver() {
		a.logGameOver("ready")
	}
	return true
}

func (a *GameActor) startGame() {
	a.state.GameStarted = true
	a.scheduleKeySpawn()
	a.scheduleGameTimeout()
	a.state.announce(announceStarted)
	a.logger.Info().Int("players", len(a.state.Players)).
		Dur("keyInterval", a.cfg.KeyInterval).Dur("timeout", a.cfg.GameTimeout).Msg("game started")
}

// handleMove applies a move. Unknown ids are ignored.
func (a *GameActor) handleMove(playerID string, dir Direction) bool {
	p, ok := a.state.Players[playerID]
	if !ok {
		return false
	}
	name := p.Name
	wasOver := a.state.GameOver

	a.state.applyMove(playerID, dir, a.cfg.GridSize)

	if _, still := a.state.Players[playerID]; !still {
		a.logger.Info().Str("player", playerID).Str("name", name).Msg("player stepped on the key")
	}
	if !wasOver && a.state.GameOver {
		a.logGameOver("move")
	}
	return true
}

// handleSpawnKey is the periodic key event. It reschedules itself while the
// game is active.
func (a *GameActor) handleSpawnKey() {
	a.keyTimer = nil
	if a.state.checkGameOver() {
		a.logGameOver("spawnKey")
	}
	if !a.state.GameStarted || a.state.GameOver {
		return
	}

	victim := a.state.spawnKey(a.rng, a.cfg.GridSize)
	if victim != "" {
		a.logger.Info().Str("player", victim).Msg("key spawned on a player")
	} else if a.state.Key != nil {
		a.logger.Debug().Int("x", a.state.Key.X).Int("y", a.state.Key.Y).Msg("key spawned")
	}

	if a.state.checkGameOver() {
		a.logGameOver("spawnKey")
		return
	}
	a.scheduleKeySpawn()
}

// handleGameTimeout only re-runs the game-over check.
func (a *GameActor) handleGameTimeout() {
	a.timeoutTimer = nil
	if a.state.checkGameOver() {
		a.logGameOver("timeout")
	}
}

func (a *GameActor) logGameOver(trigger string) {
	latest := ""
	if len(a.state.Announcements) > 0 {
		latest = a.state.Announcements[0]
	}
	a.logger.Info().Str("trigger", trigger).Str("announcement", latest).Msg("game over")
}
