package game

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/keypass/bollywood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type broadcasterFixture struct {
	engine     *bollywood.Engine
	pid        *bollywood.PID
	gameActor  *MockBroadcasterActor // stands in for the GameActor
	registered chan *websocket.Conn // server side of each dialed client
	url        string
}

func setupBroadcaster(t *testing.T) broadcasterFixture {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(testShutdownTimeout) })

	mock := &MockBroadcasterActor{}
	mockPID := engine.Spawn(bollywood.NewProps(func() bollywood.Actor { return mock }))
	pid := engine.Spawn(bollywood.NewProps(NewBroadcasterProducer(mockPID)))
	registered := make(chan *websocket.Conn, 8)

	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		engine.Send(pid, AddClient{Conn: ws}, nil)
		registered <- ws
		var cmd ClientCommand
		for websocket.JSON.Receive(ws, &cmd) == nil {
		}
	}))
	t.Cleanup(srv.Close)

	return broadcasterFixture{
		engine:     engine,
		pid:        pid,
		gameActor:  mock,
		registered: registered,
		url:        "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

// dial connects a client and waits until its AddClient is queued ahead of
// anything the test sends next. It returns the client and the server side.
func (f broadcasterFixture) dial(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	ws, err := websocket.Dial(f.url, "", "http://localhost/")
	require.NoError(t, err)
	select {
	case server := <-f.registered:
		return ws, server
	case <-time.After(time.Second):
		t.Fatal("client was never registered")
		return nil, nil
	}
}

func (f broadcasterFixture) broadcast(roomID string, state GameState) {
	f.engine.Send(f.pid, BroadcastStateCommand{RoomID: roomID, State: state}, nil)
}

func (f broadcasterFixture) removals() int {
	f.gameActor.mu.Lock()
	defer f.gameActor.mu.Unlock()
	n := 0
	for _, m := range f.gameActor.Received {
		if _, ok := m.(RemoveClient); ok {
			n++
		}
	}
	return n
}

func receiveState(t *testing.T, ws *websocket.Conn) StateMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(time.Second)))
	var got StateMessage
	require.NoError(t, websocket.JSON.Receive(ws, &got))
	return got
}

func TestBroadcaster_PushesStateToAllClients(t *testing.T) {
	f := setupBroadcaster(t)
	a, _ := f.dial(t)
	defer a.Close()
	b, _ := f.dial(t)
	defer b.Close()

	state := *NewGameState()
	state.Players["p1"] = &Player{ID: "p1", Name: "Alice", Alive: true}
	f.broadcast("r1", state)

	for _, ws := range []*websocket.Conn{a, b} {
		got := receiveState(t, ws)
		assert.Equal(t, "gameState", got.MessageType)
		assert.Equal(t, "r1", got.RoomID)
		require.Contains(t, got.State.Players, "p1")
		assert.Equal(t, "Alice", got.State.Players["p1"].Name)
	}
}

func TestBroadcaster_RemovedClientGetsNothing(t *testing.T) {
	f := setupBroadcaster(t)
	kept, _ := f.dial(t)
	defer kept.Close()
	removed, removedServer := f.dial(t)
	defer removed.Close()

	f.engine.Send(f.pid, RemoveClient{Conn: removedServer}, nil)
	f.engine.Send(f.pid, RemoveClient{Conn: nil}, nil) // unknown connection is ignored
	f.broadcast("r1", *NewGameState())

	got := receiveState(t, kept)
	assert.Equal(t, "r1", got.RoomID)

	require.NoError(t, removed.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var msg StateMessage
	assert.Error(t, websocket.JSON.Receive(removed, &msg), "removed client must not be written to")
	assert.Equal(t, 0, f.removals(), "explicit removal is not reported back")
}

func TestBroadcaster_DropsClosedClients(t *testing.T) {
	f := setupBroadcaster(t)
	ws, _ := f.dial(t)
	require.NoError(t, ws.Close())

	assert.Eventually(t, func() bool {
		f.broadcast("r1", *NewGameState())
		return f.removals() > 0
	}, 2*time.Second, 20*time.Millisecond, "the game actor is told about the dead client")

	// the dead client is reported once, later broadcasts skip it
	time.Sleep(50 * time.Millisecond)
	f.broadcast("r1", *NewGameState())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.removals())
}

func TestBroadcaster_NoClientsIsNoOp(t *testing.T) {
	f := setupBroadcaster(t)
	f.broadcast("r1", *NewGameState())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, f.removals())
	assert.True(t, f.engine.Alive(f.pid))
}
