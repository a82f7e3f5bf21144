package bollywood

import "errors"

// Started is delivered once, before any user message.
type Started struct{}

// Stopping is delivered when the actor is asked to stop. No user message follows it.
type Stopping struct{}

// Stopped is the last message an actor receives.
type Stopped struct{}

var (
	ErrActorNotFound  = errors.New("bollywood: actor not found")
	ErrTimeout        = errors.New("bollywood: ask timed out")
	ErrEngineStopping = errors.New("bollywood: engine is stopping")
	ErrMailboxFull    = errors.New("bollywood: mailbox full")
)

type messageEnvelope struct {
	Sender    *PID
	Message   interface{}
	RequestID string
	ReplyCh   chan interface{}
}

func isSystemMessage(msg interface{}) bool {
	switch msg.(type) {
	case Started, Stopping, Stopped:
		return true
	}
	return false
}
