// File: server/stress_test.go
package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lguibr/keypass/game"
	"github.com/lguibr/keypass/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

const (
	stressRooms          = 3
	stressClientsPerRoom = 8
	stressDuration       = 1500 * time.Millisecond
	sendCommandInterval  = 10 * time.Millisecond
	stressJoinTimeout    = 5 * time.Second
)

// clientWorker joins, waits for every client to have joined, readies up and
// then sends random moves until stopCh closes.
func clientWorker(t *testing.T, wg *sync.WaitGroup, ws *websocket.Conn, name string, joined *sync.WaitGroup, startCh, stopCh <-chan struct{}) {
	defer wg.Done()

	var once sync.Once
	markJoined := func() { once.Do(joined.Done) }
	defer markJoined()

	// drain pushes so the server never blocks on us
	gotJoined := make(chan struct{})
	go func() {
		var raw string
		for websocket.Message.Receive(ws, &raw) == nil {
			var f frame
			if json.Unmarshal([]byte(raw), &f) == nil && f.MessageType == "joined" {
				select {
				case <-gotJoined:
				default:
					close(gotJoined)
				}
			}
		}
	}()

	if err := websocket.JSON.Send(ws, game.ClientCommand{Action: "join", Name: name}); err != nil {
		t.Errorf("join %s: %v", name, err)
		return
	}
	select {
	case <-gotJoined:
	case <-time.After(stressJoinTimeout):
		t.Errorf("%s never got its joined frame", name)
		return
	}
	markJoined()

	select {
	case <-startCh:
	case <-stopCh:
		return
	}
	if err := websocket.JSON.Send(ws, game.ClientCommand{Action: "ready"}); err != nil {
		t.Errorf("ready %s: %v", name, err)
		return
	}

	ticker := time.NewTicker(sendCommandInterval)
	defer ticker.Stop()
	directions := []string{"up", "down", "left", "right", "ArrowUp", "a"}
	randGen := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			cmd := game.ClientCommand{Action: "move", Direction: directions[randGen.Intn(len(directions))]}
			if err := websocket.JSON.Send(ws, cmd); err != nil {
				return
			}
		}
	}
}

func roomState(t *testing.T, serverURL, room string) game.GameState {
	t.Helper()
	resp := doJSON(t, http.MethodGet, serverURL+"/rooms/"+room+"/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state game.GameState
	decode(t, resp, &state)
	return state
}

func TestStress_ManyClientsManyRooms(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode.")
	}
	cfg := testConfig()
	cfg.MaxRooms = stressRooms + 1 // plus the lobby
	ts := newTestServerWithConfig(t, cfg)

	var rooms []string
	for i := 0; i < stressRooms; i++ {
		id := fmt.Sprintf("stress-%d", i)
		resp := doJSON(t, http.MethodPost, ts.URL+"/rooms", map[string]string{"id": id})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		rooms = append(rooms, id)
	}

	var wg, joined sync.WaitGroup
	startCh := make(chan struct{})
	stopCh := make(chan struct{})
	for _, room := range rooms {
		for i := 0; i < stressClientsPerRoom; i++ {
			ws := dialRoom(t, ts.URL, room)
			wg.Add(1)
			joined.Add(1)
			go clientWorker(t, &wg, ws, fmt.Sprintf("%s-p%d", room, i), &joined, startCh, stopCh)
		}
	}

	joined.Wait()
	for _, room := range rooms {
		state := roomState(t, ts.URL, room)
		assert.Len(t, state.Players, stressClientsPerRoom, "room %s before ready", room)
		assert.False(t, state.GameStarted, "room %s started before everyone joined", room)
	}

	close(startCh)
	time.Sleep(stressDuration)
	close(stopCh)
	wg.Wait()

	for _, room := range rooms {
		state := roomState(t, ts.URL, room)
		assert.True(t, state.GameStarted, "room %s", room)

		// every player who left the board is accounted for by an announcement
		removed := 0
		for _, a := range state.Announcements {
			if strings.HasSuffix(a, "passed the key!") || strings.HasSuffix(a, "loses!") {
				removed++
			}
		}
		assert.Equal(t, stressClientsPerRoom, len(state.Players)+removed, "room %s", room)
		if state.GameOver {
			assert.Empty(t, state.Players, "room %s", room)
			assert.Nil(t, state.Key, "room %s", room)
		} else {
			assert.GreaterOrEqual(t, len(state.Players), 2, "room %s", room)
		}
		for _, p := range state.Players {
			assert.True(t, p.Pos.X >= 0 && p.Pos.X < utils.GridSize)
			assert.True(t, p.Pos.Y >= 0 && p.Pos.Y < utils.GridSize)
		}
	}
}
