package game

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func setupRooms(t *testing.T, cfg utils.Config) (*bollywood.Engine, *Rooms) {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(testShutdownTimeout) })
	pid := engine.Spawn(bollywood.NewProps(NewRoomManagerProducer(engine, cfg, WithRand(utils.NewRand(7)))))
	require.NotNil(t, pid)
	return engine, NewRooms(engine, pid, cfg.AskTimeout)
}

func TestRoomManager_CreateAndGet(t *testing.T) {
	_, rooms := setupRooms(t, testConfig())

	id, err := rooms.Create("lobby")
	require.NoError(t, err)
	assert.Equal(t, "lobby", id)

	h, err := rooms.Get("lobby")
	require.NoError(t, err)
	p, err := h.Join("Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
}

func TestRoomManager_GeneratedID(t *testing.T) {
	_, rooms := setupRooms(t, testConfig())
	a, err := rooms.Create("")
	require.NoError(t, err)
	b, err := rooms.Create("")
	require.NoError(t, err)
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestRoomManager_DuplicateRoom(t *testing.T) {
	_, rooms := setupRooms(t, testConfig())
	_, err := rooms.Create("dup")
	require.NoError(t, err)
	_, err = rooms.Create("dup")
	assert.ErrorIs(t, err, ErrRoomExists)
}

func TestRoomManager_MaxRooms(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRooms = 2
	_, rooms := setupRooms(t, cfg)
	for i := 0; i < 2; i++ {
		_, err := rooms.Create(fmt.Sprintf("r%d", i))
		require.NoError(t, err)
	}
	_, err := rooms.Create("r2")
	assert.ErrorIs(t, err, ErrTooManyRooms)

	require.NoError(t, rooms.Remove("r0"))
	_, err = rooms.Create("r2")
	assert.NoError(t, err, "removing a room frees a slot")
}

func TestRoomManager_UnknownRoom(t *testing.T) {
	_, rooms := setupRooms(t, testConfig())
	_, err := rooms.Get("nope")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, rooms.Remove("nope"), ErrRoomNotFound)
}

func TestRoomManager_RemoveStopsGame(t *testing.T) {
	engine, rooms := setupRooms(t, testConfig())
	_, err := rooms.Create("gone")
	require.NoError(t, err)
	h, err := rooms.Get("gone")
	require.NoError(t, err)

	require.NoError(t, rooms.Remove("gone"))

	assert.Eventually(t, func() bool { return !engine.Alive(h.PID()) }, time.Second, 10*time.Millisecond)
	_, err = h.State()
	assert.ErrorIs(t, err, bollywood.ErrActorNotFound)
	_, err = rooms.Get("gone")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomManager_ListTracksStatus(t *testing.T) {
	_, rooms := setupRooms(t, testConfig())
	for _, id := range []string{"first", "second"} {
		_, err := rooms.Create(id)
		require.NoError(t, err)
	}

	list, err := rooms.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].ID)
	assert.Equal(t, PhaseLobby, list[0].Phase)
	assert.Equal(t, 0, list[0].Players)

	h, err := rooms.Get("second")
	require.NoError(t, err)
	alice, err := h.Join("Alice")
	require.NoError(t, err)
	bob, err := h.Join("Bob")
	require.NoError(t, err)
	require.NoError(t, h.SetReady(alice.ID))
	require.NoError(t, h.SetReady(bob.ID))

	assert.Eventually(t, func() bool {
		list, err := rooms.List()
		if err != nil || len(list) != 2 {
			return false
		}
		return list[1].Phase == PhasePlaying && list[1].Players == 2
	}, time.Second, 10*time.Millisecond)
}

func TestRoomManager_SoloReadyListsFinished(t *testing.T) {
	_, rooms := setupRooms(t, testConfig())
	_, err := rooms.Create("solo")
	require.NoError(t, err)
	h, err := rooms.Get("solo")
	require.NoError(t, err)
	p, err := h.Join("Alice")
	require.NoError(t, err)
	require.NoError(t, h.SetReady(p.ID))

	assert.Eventually(t, func() bool {
		list, err := rooms.List()
		return err == nil && len(list) == 1 && list[0].Phase == PhaseFinished && list[0].Players == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRoomManager_ListTracksSubscribers(t *testing.T) {
	engine, rooms := setupRooms(t, testConfig())
	_, err := rooms.Create("watched")
	require.NoError(t, err)
	h, err := rooms.Get("watched")
	require.NoError(t, err)

	subscribers := func() int {
		list, err := rooms.List()
		if err != nil || len(list) != 1 {
			return -1
		}
		return list[0].Subscribers
	}
	assert.Equal(t, 0, subscribers())

	conns := make(chan *websocket.Conn, 2)
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		conns <- ws
		var cmd ClientCommand
		for websocket.JSON.Receive(ws, &cmd) == nil {
		}
	}))
	t.Cleanup(srv.Close)

	var server []*websocket.Conn
	for i := 0; i < 2; i++ {
		client, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", "http://localhost/")
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })
		conn := <-conns
		server = append(server, conn)
		_, err = engine.Ask(h.PID(), AddClient{Conn: conn}, time.Second)
		require.NoError(t, err)
	}
	b := server[1]
	assert.Eventually(t, func() bool { return subscribers() == 2 }, time.Second, 10*time.Millisecond)

	_, err = engine.Ask(h.PID(), RemoveClient{Conn: b}, time.Second)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return subscribers() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRoomManager_StopStopsRooms(t *testing.T) {
	engine := bollywood.NewEngine()
	cfg := testConfig()
	managerPID := engine.Spawn(bollywood.NewProps(NewRoomManagerProducer(engine, cfg)))
	rooms := NewRooms(engine, managerPID, cfg.AskTimeout)
	_, err := rooms.Create("a")
	require.NoError(t, err)
	h, err := rooms.Get("a")
	require.NoError(t, err)

	engine.Stop(managerPID)

	assert.Eventually(t, func() bool {
		return !engine.Alive(managerPID) && !engine.Alive(h.PID())
	}, time.Second, 10*time.Millisecond)
	engine.Shutdown(testShutdownTimeout)
}
