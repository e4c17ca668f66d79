// Package chat runs the strategy-assistant conversation. The orchestrator is stateless: every
// send rebuilds the provider history from the full local log.
package chat

import (
	"context"
	"errors"
	"strings"

	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

const (
	Greeting = "Welcome to the Strategy Lab. I am your marketing strategy expert. How can I assist your marketing goals today?"

	Persona = "You are a senior digital marketing strategist. Provide actionable advice based on search data."

	// EmptyReply stands in when the provider answers with no text.
	EmptyReply = "I apologize, I encountered an issue processing that."

	// ConnectionLost is shown in place of a reply when the call fails.
	ConnectionLost = "Expert connection lost. Please check your network."
)

var ErrChatFailed = errors.New("chat failed")

type ChatError struct {
	Err error
}

func (e *ChatError) Error() string {
	return "chat failed: " + e.Err.Error()
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

func (e *ChatError) Is(target error) bool {
	return target == ErrChatFailed
}

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NewLog starts a conversation with the fixed greeting.
func NewLog() []Message {
	return []Message{{Role: RoleBot, Text: Greeting}}
}

// BuildHistory maps the log to provider turns, dropping the leading greeting and the newest
// message, which is sent separately as the current turn.
func BuildHistory(log []Message) []provider.Content {
	if len(log) > 0 && log[0].Role == RoleBot && log[0].Text == Greeting {
		log = log[1:]
	}
	if len(log) > 0 {
		log = log[:len(log)-1]
	}

	turns := make([]provider.Content, 0, len(log))
	for _, m := range log {
		if m.Role == RoleUser {
			turns = append(turns, provider.UserText(m.Text))
		} else {
			turns = append(turns, provider.ModelText(m.Text))
		}
	}
	return turns
}

// Provider sends one message over an explicit, immutable history.
type Provider interface {
	SendChat(ctx context.Context, systemInstruction string, history []provider.Content, message string) (string, error)
}

type Orchestrator struct {
	provider Provider
	log      *logger.Logger
}

func NewOrchestrator(p Provider) *Orchestrator {
	return &Orchestrator{
		provider: p,
		log:      logger.GetLogger().Component("chat"),
	}
}

// Send expects log to already end with the user message being sent. It returns the reply text,
// EmptyReply when the provider gave none, or a *ChatError.
func (o *Orchestrator) Send(ctx context.Context, log []Message, newMessage string) (string, error) {
	msg, err := validation.Required("message", newMessage)
	if err != nil {
		return "", err
	}

	history := BuildHistory(log)
	o.log.WithField("history_turns", len(history)).Debug("Sending chat turn")

	reply, err := o.provider.SendChat(ctx, Persona, history, msg)
	if err != nil {
		o.log.WithError(err).Warn("Chat turn failed")
		return "", &ChatError{Err: err}
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return EmptyReply, nil
	}
	return reply, nil
}
