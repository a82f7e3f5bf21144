package bollywood

// Actor processes the messages delivered to its mailbox, one at a time.
type Actor interface {
	Receive(ctx Context)
}

// Producer creates a fresh Actor instance for a process.
type Producer func() Actor

// Props describes how to build an actor.
type Props struct {
	producer    Producer
	mailboxSize int
}

// NewProps creates Props for the given producer with the default mailbox size.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("bollywood: producer cannot be nil")
	}
	return &Props{producer: producer, mailboxSize: defaultMailboxSize}
}

// WithMailboxSize overrides the mailbox capacity.
func (p *Props) WithMailboxSize(size int) *Props {
	if size > 0 {
		p.mailboxSize = size
	}
	return p
}

// Produce creates a new actor instance.
func (p *Props) Produce() Actor {
	return p.producer()
}

// PID identifies a running actor.
type PID struct {
	ID string
}

func (pid *PID) String() string {
	if pid == nil {
		return "<nil>"
	}
	return pid.ID
}
