package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lguibr/keypass/bollywood"
	"github.com/lguibr/keypass/utils"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed draws, then keeps returning 0.
type scriptedRand struct {
	mu     sync.Mutex
	values []int
}

func newScriptedRand(values ...int) *scriptedRand {
	return &scriptedRand{values: values}
}

func (s *scriptedRand) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v % n
}

// sequentialIDs returns p1, p2, p3, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}

// --- Mock Broadcaster Actor ---
// Simple actor to capture messages sent to it
type MockBroadcasterActor struct {
	mu       sync.Mutex
	Received []interface{}
}

func (a *MockBroadcasterActor) Receive(ctx bollywood.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Received = append(a.Received, ctx.Message())
}

func (a *MockBroadcasterActor) States() []GameState {
	a.mu.Lock()
	defer a.mu.Unlock()
	var states []GameState
	for _, m := range a.Received {
		if cmd, ok := m.(BroadcastStateCommand); ok {
			states = append(states, cmd.State)
		}
	}
	return states
}

const testShutdownTimeout = 2 * time.Second

// testConfig keeps timers out of the way unless a test shortens them.
func testConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.KeyInterval = time.Hour
	cfg.GameTimeout = time.Hour
	cfg.AskTimeout = time.Second
	return cfg
}

type gameFixture struct {
	engine      *bollywood.Engine
	handle      *Handle
	broadcaster *MockBroadcasterActor
}

func setupGame(t *testing.T, cfg utils.Config, rng utils.Intner) gameFixture {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(testShutdownTimeout) })

	mock := &MockBroadcasterActor{}
	mockPID := engine.Spawn(bollywood.NewProps(func() bollywood.Actor { return mock }))
	require.NotNil(t, mockPID)

	pid := engine.Spawn(bollywood.NewProps(NewGameActorProducer(engine, cfg, "test-room",
		WithRand(rng), WithIDGenerator(sequentialIDs()), WithBroadcaster(mockPID))))
	require.NotNil(t, pid)

	return gameFixture{engine: engine, handle: NewHandle(engine, pid, cfg.AskTimeout), broadcaster: mock}
}

func (f gameFixture) state(t *testing.T) GameState {
	t.Helper()
	state, err := f.handle.State()
	require.NoError(t, err)
	return state
}

// fire delivers an internal timer event and waits until it has been processed.
func (f gameFixture) fire(t *testing.T, tick interface{}) {
	t.Helper()
	f.engine.Send(f.handle.PID(), tick, nil)
	f.state(t)
}
