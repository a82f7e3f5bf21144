// File: game/state.go
package game

// Position is a grid coordinate. Both components stay in [0, GridSize-1].
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Player is a participant. Eliminated players are deleted from the game
// state, so Alive is true for every player a snapshot contains.
type Player struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Pos   Position `json:"pos"`
	Alive bool     `json:"alive"`
	Color string   `json:"color"` // "#rrggbb"
	Ready bool     `json:"ready"`
}

// GameState is the aggregate owned by one GameActor.
type GameState struct {
	Players       map[string]*Player `json:"players"`
	Key           *Position          `json:"key"`           // nil when no key is on the board
	Announcements []string           `json:"announcements"` // newest first
	GameStarted   bool               `json:"gameStarted"`
	GameOver      bool               `json:"gameOver"`
}

// NewGameState returns the empty lobby state.
func NewGameState() *GameState {
	return &GameState{
		Players:       make(map[string]*Player),
		Announcements: []string{},
	}
}

// Snapshot returns a deep copy that shares no memory with s.
func (s *GameState) Snapshot() GameState {
	players := make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		players[id] = &cp
	}
	var key *Position
	if s.Key != nil {
		k := *s.Key
		key = &k
	}
	announcements := make([]string, len(s.Announcements))
	copy(announcements, s.Announcements)

	return GameState{
		Players:       players,
		Key:           key,
		Announcements: announcements,
		GameStarted:   s.GameStarted,
		GameOver:      s.GameOver,
	}
}

// Phase names the state the booleans describe.
func (s *GameState) Phase() string {
	switch {
	case s.GameOver:
		return PhaseFinished
	case s.GameStarted:
		return PhasePlaying
	default:
		return PhaseLobby
	}
}

const (
	PhaseLobby    = "lobby"
	PhasePlaying  = "playing"
	PhaseFinished = "finished"
)

// announce prepends msg to the announcement log.
func (s *GameState) announce(msg string) {
	s.Announcements = append([]string{msg}, s.Announcements...)
}
