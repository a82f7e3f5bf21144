// File: game/rules.go
package game

import (
	"fmt"
	"sort"

	"github.com/lguibr/keypass/utils"
)

// Direction is a single-cell move on the grid.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

const (
	announceStarted   = "Game Started!"
	announceNoWinners = "Game Over: No winners!"
)

func announcePassed(name string) string { return fmt.Sprintf("%s passed the key!", name) }
func announceLoses(name string) string  { return fmt.Sprintf("Game Over: %s loses!", name) }

// Step moves pos one cell in dir, clamped to a gridSize×gridSize board.
// Unknown directions leave pos unchanged.
func Step(pos Position, dir Direction, gridSize int) Position {
	maxCoord := gridSize - 1
	switch dir {
	case Up:
		pos.Y = utils.Clamp(pos.Y-1, 0, maxCoord)
	case Down:
		pos.Y = utils.Clamp(pos.Y+1, 0, maxCoord)
	case Left:
		pos.X = utils.Clamp(pos.X-1, 0, maxCoord)
	case Right:
		pos.X = utils.Clamp(pos.X+1, 0, maxCoord)
	}
	return pos
}

// allReady is true when at least one player is present and every one is ready.
func (s *GameState) allReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// eliminate announces and removes a player.
func (s *GameState) eliminate(id string) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	s.announce(announcePassed(p.Name))
	delete(s.Players, id)
}

// checkGameOver ends the game when one or zero players remain. It reports
// whether this call performed the transition.
func (s *GameState) checkGameOver() bool {
	if !s.GameStarted || s.GameOver {
		return false
	}
	switch len(s.Players) {
	case 0:
		s.announce(announceNoWinners)
	case 1:
		for id, p := range s.Players {
			s.announce(announceLoses(p.Name))
			delete(s.Players, id)
		}
	default:
		return false
	}
	s.GameOver = true
	s.Key = nil
	return true
}

// applyMove runs a full Move command: reposition, key pickup, game-over check.
// Once the game is over moves are ignored. It reports whether the player existed.
func (s *GameState) applyMove(id string, dir Direction, gridSize int) bool {
	p, ok := s.Players[id]
	if !ok {
		return false
	}
	if s.GameOver {
		return true
	}
	p.Pos = Step(p.Pos, dir, gridSize)

	if s.GameStarted && s.Key != nil && p.Pos == *s.Key {
		s.eliminate(id)
		s.Key = nil
	}
	s.checkGameOver()
	return true
}

// playersAt returns the ids of players standing on pos, sorted so a seeded
// random source picks reproducibly.
func (s *GameState) playersAt(pos Position) []string {
	ids := make([]string, 0, 1)
	for id, p := range s.Players {
		if p.Pos == pos {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// spawnKey places a key at a random cell. A key landing on players eliminates
// one of them, chosen uniformly, and is consumed immediately. It reports the
// eliminated player id, if any.
func (s *GameState) spawnKey(rng utils.Intner, gridSize int) string {
	x, y := utils.NewRandomPosition(rng, gridSize)
	key := Position{X: x, Y: y}
	s.Key = &key

	colliding := s.playersAt(key)
	if len(colliding) == 0 {
		return ""
	}
	victim := colliding[rng.Intn(len(colliding))]
	s.eliminate(victim)
	s.Key = nil
	return victim
}
