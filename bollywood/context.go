package bollywood

// Context is handed to an Actor for every message it processes.
type Context interface {
	Engine() *Engine
	Self() *PID
	Sender() *PID
	Message() interface{}
	// RequestID is non-empty when the message was delivered through Engine.Ask.
	RequestID() string
	// Reply answers an Ask. It is a no-op for plain Send deliveries.
	Reply(response interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
	replyCh   chan interface{}
}

func (c *context) Engine() *Engine      { return c.engine }
func (c *context) Self() *PID           { return c.self }
func (c *context) Sender() *PID         { return c.sender }
func (c *context) Message() interface{} { return c.message }
func (c *context) RequestID() string    { return c.requestID }

func (c *context) Reply(response interface{}) {
	if c.replyCh == nil {
		return
	}
	select {
	case c.replyCh <- response:
	default:
		// already answered
	}
}
