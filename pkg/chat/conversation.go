package chat

import (
	"context"
	"errors"

	"keywordpulse/pkg/validation"
)

type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

// ErrBusy is returned when a message is submitted while a reply is pending.
var ErrBusy = errors.New("a reply is still pending")

// Conversation is the append-only log of one chat widget with its Idle/Sending state.
// It is not safe for concurrent use; callers serialize access.
type Conversation struct {
	messages []Message
	state    State
}

func NewConversation() *Conversation {
	return &Conversation{messages: NewLog(), state: StateIdle}
}

func (c *Conversation) State() State {
	return c.state
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Submit appends the user message and moves to Sending. It returns the log snapshot to send.
func (c *Conversation) Submit(text string) ([]Message, string, error) {
	if c.state == StateSending {
		return nil, "", ErrBusy
	}
	msg, err := validation.Required("message", text)
	if err != nil {
		return nil, "", err
	}
	c.messages = append(c.messages, Message{Role: RoleUser, Text: msg})
	c.state = StateSending
	return c.Messages(), msg, nil
}

// Complete appends the reply, or the connection-lost fallback when err is set, and returns to Idle.
func (c *Conversation) Complete(reply string, err error) Message {
	m := Message{Role: RoleBot, Text: reply}
	if err != nil {
		m.Text = ConnectionLost
	}
	c.messages = append(c.messages, m)
	c.state = StateIdle
	return m
}

// Exchange runs Submit, the orchestrator call and Complete in one go. Provider failures end up
// as the fallback message, never as a returned error.
func (c *Conversation) Exchange(ctx context.Context, o *Orchestrator, text string) (Message, error) {
	log, msg, err := c.Submit(text)
	if err != nil {
		return Message{}, err
	}
	reply, err := o.Send(ctx, log, msg)
	return c.Complete(reply, err), nil
}
