package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

type chatCall struct {
	system  string
	history []provider.Content
	message string
}

type stubProvider struct {
	calls []chatCall
	reply string
	err   error
}

func (s *stubProvider) SendChat(ctx context.Context, systemInstruction string, history []provider.Content, message string) (string, error) {
	s.calls = append(s.calls, chatCall{systemInstruction, history, message})
	return s.reply, s.err
}

func TestBuildHistory_ExcludesGreetingAndCurrent(t *testing.T) {
	log := append(NewLog(),
		Message{Role: RoleUser, Text: "q1"},
		Message{Role: RoleBot, Text: "a1"},
		Message{Role: RoleUser, Text: "q2"},
	)

	history := BuildHistory(log)
	require.Len(t, history, 2)
	assert.Equal(t, provider.UserText("q1"), history[0])
	assert.Equal(t, provider.ModelText("a1"), history[1])

	for _, turn := range history {
		assert.NotEqual(t, Greeting, turn.Text())
	}
}

func TestBuildHistory_FirstMessage(t *testing.T) {
	log := append(NewLog(), Message{Role: RoleUser, Text: "hello"})
	assert.Empty(t, BuildHistory(log))
	assert.Empty(t, BuildHistory(nil))
}

func TestSend_RequestShape(t *testing.T) {
	stub := &stubProvider{reply: "  Focus on intent.  "}
	o := NewOrchestrator(stub)

	log := append(NewLog(),
		Message{Role: RoleUser, Text: "q1"},
		Message{Role: RoleBot, Text: "a1"},
		Message{Role: RoleUser, Text: "q2"},
	)
	reply, err := o.Send(context.Background(), log, "q2")
	require.NoError(t, err)
	assert.Equal(t, "Focus on intent.", reply)

	require.Len(t, stub.calls, 1)
	call := stub.calls[0]
	assert.Equal(t, Persona, call.system)
	assert.Contains(t, call.system, "senior digital marketing strategist")
	assert.Equal(t, "q2", call.message)
	require.Len(t, call.history, 2)
	assert.Equal(t, provider.RoleUser, call.history[0].Role)
	assert.Equal(t, provider.RoleModel, call.history[1].Role)
	for _, turn := range call.history {
		assert.NotEqual(t, Greeting, turn.Text(), "greeting must never reach the provider")
	}
}

func TestSend_EmptyReplyFallback(t *testing.T) {
	o := NewOrchestrator(&stubProvider{reply: "   "})
	reply, err := o.Send(context.Background(), append(NewLog(), Message{Role: RoleUser, Text: "hi"}), "hi")
	require.NoError(t, err)
	assert.Equal(t, EmptyReply, reply)
}

func TestSend_Failure(t *testing.T) {
	o := NewOrchestrator(&stubProvider{err: &provider.Error{Op: "generateContent", Message: "request failed"}})
	_, err := o.Send(context.Background(), append(NewLog(), Message{Role: RoleUser, Text: "hi"}), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChatFailed))
	assert.True(t, provider.IsProvider(err))
}

func TestSend_EmptyMessage(t *testing.T) {
	stub := &stubProvider{reply: "x"}
	_, err := NewOrchestrator(stub).Send(context.Background(), NewLog(), "  ")
	assert.True(t, validation.IsValidation(err))
	assert.Empty(t, stub.calls)
}

func TestConversation_StateMachine(t *testing.T) {
	c := NewConversation()
	assert.Equal(t, StateIdle, c.State())
	require.Len(t, c.Messages(), 1)

	log, msg, err := c.Submit("  how do I rank?  ")
	require.NoError(t, err)
	assert.Equal(t, "how do I rank?", msg)
	assert.Equal(t, StateSending, c.State())
	assert.Len(t, log, 2)

	_, _, err = c.Submit("another")
	assert.ErrorIs(t, err, ErrBusy)

	m := c.Complete("Write better content.", nil)
	assert.Equal(t, Message{Role: RoleBot, Text: "Write better content."}, m)
	assert.Equal(t, StateIdle, c.State())

	_, _, err = c.Submit("again")
	require.NoError(t, err)
	m = c.Complete("", errors.New("network down"))
	assert.Equal(t, ConnectionLost, m.Text)
	assert.Equal(t, StateIdle, c.State())

	msgs := c.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, Greeting, msgs[0].Text)
	assert.Equal(t, ConnectionLost, msgs[4].Text)
}

func TestConversation_Exchange(t *testing.T) {
	stub := &stubProvider{err: errors.New("boom")}
	o := NewOrchestrator(stub)
	c := NewConversation()

	m, err := c.Exchange(context.Background(), o, "hello")
	require.NoError(t, err, "failures degrade to the fallback message")
	assert.Equal(t, ConnectionLost, m.Text)

	stub.err = nil
	stub.reply = "Hi there"
	m, err = c.Exchange(context.Background(), o, "next")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", m.Text)

	require.Len(t, stub.calls, 2)
	// second call sees the first exchange, including the fallback reply, but never the greeting
	require.Len(t, stub.calls[1].history, 2)
	assert.Equal(t, "hello", stub.calls[1].history[0].Text())
	assert.Equal(t, ConnectionLost, stub.calls[1].history[1].Text())

	_, err = c.Exchange(context.Background(), o, "")
	assert.True(t, validation.IsValidation(err))
	assert.Equal(t, StateIdle, c.State())
}
