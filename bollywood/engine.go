package bollywood

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine manages the lifecycle and message dispatching for actors.
type Engine struct {
	pidCounter     uint64
	requestCounter uint64
	actors         map[string]*process
	mu             sync.RWMutex // protects actors
	stopping       atomic.Bool
}

// NewEngine creates a new actor engine.
func NewEngine() *Engine {
	return &Engine{
		actors: make(map[string]*process),
	}
}

func (e *Engine) nextPID() *PID {
	id := atomic.AddUint64(&e.pidCounter, 1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
// It returns nil when the engine is shutting down.
func (e *Engine) Spawn(props *Props) *PID {
	if e.stopping.Load() {
		log.Warn().Msg("engine is stopping, cannot spawn new actors")
		return nil
	}

	pid := e.nextPID()
	proc := newProcess(e, pid, props)

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	go proc.run()
	return pid
}

// Send delivers a message to the actor identified by pid.
// sender can be nil if the message originates from outside the actor system.
func (e *Engine) Send(pid *PID, message interface{}, sender *PID) {
	err := e.Post(pid, message, sender)
	if err != nil && !e.stopping.Load() {
		log.Debug().Err(err).Str("actor", pid.String()).Msgf("dropped %T", message)
	}
}

// Post is Send for callers that must know whether the message was enqueued,
// e.g. to retry on ErrMailboxFull.
func (e *Engine) Post(pid *PID, message interface{}, sender *PID) error {
	return e.deliver(pid, &messageEnvelope{Sender: sender, Message: message})
}

// Ask sends a message and waits for the actor to answer it with Context.Reply.
// A reply that is itself an error is returned as the error.
func (e *Engine) Ask(pid *PID, message interface{}, timeout time.Duration) (interface{}, error) {
	reqID := fmt.Sprintf("req-%d", atomic.AddUint64(&e.requestCounter, 1))
	replyCh := make(chan interface{}, 1)

	err := e.deliver(pid, &messageEnvelope{Message: message, RequestID: reqID, ReplyCh: replyCh})
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		if replyErr, ok := reply.(error); ok {
			return nil, replyErr
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: %T to %s after %v", ErrTimeout, message, pid, timeout)
	}
}

func (e *Engine) deliver(pid *PID, envelope *messageEnvelope) error {
	if pid == nil {
		return ErrActorNotFound
	}
	if e.stopping.Load() && !isSystemMessage(envelope.Message) {
		return ErrEngineStopping
	}

	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrActorNotFound, pid)
	}
	return proc.sendMessage(envelope)
}

// Stop asks an actor to stop. The actor receives Stopping, then Stopped once its
// goroutine exits.
func (e *Engine) Stop(pid *PID) {
	if pid == nil {
		return
	}
	e.mu.RLock()
	proc, ok := e.actors[pid.ID]
	e.mu.RUnlock()

	if ok {
		proc.signalStop()
	}
}

// Alive reports whether the actor is still registered with the engine.
func (e *Engine) Alive(pid *PID) bool {
	if pid == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.actors[pid.ID]
	return ok
}

func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors and waits up to timeout for them to terminate.
func (e *Engine) Shutdown(timeout time.Duration) {
	if !e.stopping.CompareAndSwap(false, true) {
		log.Warn().Msg("engine already shutting down")
		return
	}

	e.mu.RLock()
	pidsToStop := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pidsToStop = append(pidsToStop, proc.pid)
	}
	e.mu.RUnlock()

	log.Info().Int("actors", len(pidsToStop)).Msg("engine shutdown initiated")
	for _, pid := range pidsToStop {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 {
			log.Info().Msg("engine shutdown complete")
			return
		}
		time.Sleep(20 * time.Millisecond)
	}

	e.mu.Lock()
	remaining := make([]string, 0, len(e.actors))
	for id := range e.actors {
		remaining = append(remaining, id)
	}
	e.actors = make(map[string]*process)
	e.mu.Unlock()
	log.Warn().Strs("actors", remaining).Msg("engine shutdown timeout, abandoning actors")
}
