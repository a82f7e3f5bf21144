package bollywood

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

const defaultMailboxSize = 1024

// process is the running instance of an actor: its mailbox and run loop.
type process struct {
	engine  *Engine
	pid     *PID
	actor   Actor
	mailbox chan *messageEnvelope
	props   *Props
	stopCh  chan struct{}
	stopped atomic.Bool
	closing atomic.Bool
}

func newProcess(engine *Engine, pid *PID, props *Props) *process {
	size := props.mailboxSize
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &process{
		engine:  engine,
		pid:     pid,
		props:   props,
		mailbox: make(chan *messageEnvelope, size),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) sendMessage(envelope *messageEnvelope) error {
	if p.stopped.Load() && !isSystemMessage(envelope.Message) {
		return fmt.Errorf("%w: %s", ErrActorNotFound, p.pid)
	}
	select {
	case p.mailbox <- envelope:
		return nil
	default:
		log.Warn().Str("actor", p.pid.ID).Msgf("mailbox full, dropping %T", envelope.Message)
		return fmt.Errorf("%w: %s", ErrMailboxFull, p.pid)
	}
}

// signalStop closes stopCh once; the run loop exits after invoking Stopping.
func (p *process) signalStop() {
	if p.closing.CompareAndSwap(false, true) {
		close(p.stopCh)
	}
}

func (p *process) run() {
	defer func() {
		p.stopped.Store(true)
		if p.actor != nil {
			p.invokeReceive(&messageEnvelope{Message: Stopped{}})
		}
		p.engine.remove(p.pid)
	}()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("actor", p.pid.ID).Interface("panic", r).
				Str("stack", string(debug.Stack())).Msg("actor run loop panicked")
		}
	}()

	p.actor = p.props.Produce()
	if p.actor == nil {
		panic(fmt.Sprintf("actor %s producer returned nil actor", p.pid.ID))
	}
	p.invokeReceive(&messageEnvelope{Message: Started{}})

	for {
		select {
		case <-p.stopCh:
			p.stopping()
			return
		case envelope := <-p.mailbox:
			switch envelope.Message.(type) {
			case Stopping:
				p.stopping()
				return
			case Started, Stopped:
				log.Warn().Str("actor", p.pid.ID).Msgf("unexpected system message %T in mailbox", envelope.Message)
			default:
				p.invokeReceive(envelope)
			}
		}
	}
}

func (p *process) stopping() {
	if p.stopped.CompareAndSwap(false, true) {
		p.invokeReceive(&messageEnvelope{Message: Stopping{}})
	}
}

// invokeReceive runs the actor's Receive, recovering from panics so one bad
// message does not take the process down.
func (p *process) invokeReceive(envelope *messageEnvelope) {
	ctx := &context{
		engine:    p.engine,
		self:      p.pid,
		sender:    envelope.Sender,
		message:   envelope.Message,
		requestID: envelope.RequestID,
		replyCh:   envelope.ReplyCh,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("actor", p.pid.ID).Interface("panic", r).
				Str("stack", string(debug.Stack())).Msgf("actor panicked during Receive(%T)", envelope.Message)
			ctx.Reply(fmt.Errorf("actor %s panicked: %v", p.pid.ID, r))
		}
	}()
	p.actor.Receive(ctx)
}
