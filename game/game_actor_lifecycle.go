// File: game/game_actor_lifecycle.go
package game

import (
	"errors"
	"time"

	"github.com/lguibr/keypass/bollywood"
	"github.com/rs/zerolog"
)

// handleStart is called when the actor receives the Started message.
func (a *GameActor) handleStart(ctx bollywood.Context) {
	// Only spawn broadcaster if one wasn't injected (e.g., for testing)
	if a.broadcasterPID == nil {
		a.broadcasterPID = a.engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(a.selfPID)))
		if a.broadcasterPID == nil {
			a.logger.Warn().Msg("GameActor started without a broadcaster, snapshots will not be pushed")
			return
		}
	}
	a.logger.Info().Str("broadcaster", a.broadcasterPID.String()).Msg("GameActor started")
}

// scheduleKeySpawn arms a one-shot timer that feeds spawnKeyTick back into the
// mailbox; handleSpawnKey re-arms it.
func (a *GameActor) scheduleKeySpawn() {
	if a.keyTimer != nil {
		a.keyTimer.Stop()
	}
	a.keyTimer = a.sendAfter(a.cfg.KeyInterval, spawnKeyTick{})
}

func (a *GameActor) scheduleGameTimeout() {
	if a.timeoutTimer != nil {
		a.timeoutTimer.Stop()
	}
	a.timeoutTimer = a.sendAfter(a.cfg.GameTimeout, gameTimeoutTick{})
}

func (a *GameActor) sendAfter(d time.Duration, msg interface{}) *time.Timer {
	engine, self, logger := a.engine, a.selfPID, a.logger
	return time.AfterFunc(d, func() {
		sendWithRetry(engine, self, msg, logger)
	})
}

// tickRetryDelay spaces redelivery attempts of a timer event into a full mailbox.
var tickRetryDelay = 50 * time.Millisecond

// sendWithRetry delivers a timer event, retrying while the mailbox is full.
// Losing a spawnKeyTick would stop key spawning for the rest of the game.
func sendWithRetry(engine *bollywood.Engine, pid *bollywood.PID, msg interface{}, logger zerolog.Logger) {
	err := engine.Post(pid, msg, nil)
	if !errors.Is(err, bollywood.ErrMailboxFull) {
		return
	}
	logger.Error().Err(err).Msgf("mailbox full, retrying %T in %v", msg, tickRetryDelay)
	time.AfterFunc(tickRetryDelay, func() {
		sendWithRetry(engine, pid, msg, logger)
	})
}

// stopTimers cancels pending key and timeout events. A tick already queued in
// the mailbox is harmless: both handlers are no-ops once the game is over.
func (a *GameActor) stopTimers() {
	if a.keyTimer != nil {
		a.keyTimer.Stop()
		a.keyTimer = nil
	}
	if a.timeoutTimer != nil {
		a.timeoutTimer.Stop()
		a.timeoutTimer = nil
	}
}

// handleStopping is called when the actor receives the Stopping message.
func (a *GameActor) handleStopping() {
	a.stopTimers()
	if a.broadcasterPID != nil {
		a.engine.Stop(a.broadcasterPID)
	}
	a.logger.Info().Str("phase", a.state.Phase()).Int("players", len(a.state.Players)).Msg("GameActor stopping")
}
