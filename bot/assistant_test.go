package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrbitCS/bot/catalog"
	"OrbitCS/bot/dialog"
	"OrbitCS/bot/match"
	"OrbitCS/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGate struct{ loggedIn bool }

func (f *fakeGate) IsLoggedIn(string) bool { return f.loggedIn }

type recordingSink struct{ events []*entity.DialogEvent }

func (r *recordingSink) Publish(event *entity.DialogEvent) {
	r.events = append(r.events, event)
}

func newTestAssistant(t *testing.T, gate *fakeGate) (*Assistant, *recordingSink) {
	t.Helper()

	cat, err := catalog.New(
		&entity.Command{Key: "opening_hours", Kind: entity.KindSimple, Response: "We are open 9 to 5."},
		&entity.Command{
			Key:  "book_appointment",
			Kind: entity.KindConversation,
			Steps: []entity.Step{
				{ID: "service", Prompt: "Which service?", Expect: []string{"haircut"}, StoreResponse: true},
				{ID: "done", Prompt: "Noted!", Responses: map[string]string{"haircut": "Booked a haircut!"}},
			},
		},
	)
	require.NoError(t, err)

	matcher, err := match.NewMatcher(context.Background(), cat, nil, testLogger())
	require.NoError(t, err)

	engine := dialog.NewEngine(cat, dialog.NewMemoryStore(), nil, nil, testLogger())
	assistant := NewAssistant(cat, matcher, engine, gate, match.StrategyLexical, testLogger())

	sink := &recordingSink{}
	assistant.SetEventSink(sink)
	return assistant, sink
}

func TestHandleMessageRequiresLogin(t *testing.T) {
	assistant, _ := newTestAssistant(t, &fakeGate{loggedIn: false})

	reply, err := assistant.HandleMessage(context.Background(), "telegram", "chat1", "user1", "opening_hours")
	require.NoError(t, err)
	assert.Equal(t, MsgLoginRequired, reply.Text)
}

func TestHandleMessageSimpleCommand(t *testing.T) {
	assistant, sink := newTestAssistant(t, &fakeGate{loggedIn: true})

	reply, err := assistant.HandleMessage(context.Background(), "telegram", "chat1", "user1", "opening hours")
	require.NoError(t, err)
	assert.Equal(t, "We are open 9 to 5.", reply.Text)

	// Incoming and outgoing both land in the event stream.
	require.Len(t, sink.events, 2)
	assert.Equal(t, entity.EventIncoming, sink.events[0].Direction)
	assert.Equal(t, entity.EventOutgoing, sink.events[1].Direction)
	assert.Equal(t, "opening_hours", sink.events[1].Command)
}

func TestHandleMessageUnknown(t *testing.T) {
	assistant, _ := newTestAssistant(t, &fakeGate{loggedIn: true})

	reply, err := assistant.HandleMessage(context.Background(), "telegram", "chat1", "user1", "qwertyuiop zxcvbnm")
	require.NoError(t, err)
	assert.Equal(t, MsgUnknown, reply.Text)
}

func TestHandleMessageScriptedConversation(t *testing.T) {
	assistant, _ := newTestAssistant(t, &fakeGate{loggedIn: true})
	ctx := context.Background()

	reply, err := assistant.HandleMessage(ctx, "telegram", "chat1", "user1", "book_appointment")
	require.NoError(t, err)
	assert.Equal(t, "Which service?", reply.Text)
	assert.Equal(t, []string{"haircut"}, reply.Choices)

	// While the conversation is active, free text routes to the engine,
	// not the matcher.
	reply, err = assistant.HandleMessage(ctx, "telegram", "chat1", "user1", "haircut")
	require.NoError(t, err)
	assert.Equal(t, "Noted!", reply.Text)
}

func TestResetDelegatesToEngine(t *testing.T) {
	assistant, _ := newTestAssistant(t, &fakeGate{loggedIn: true})
	ctx := context.Background()

	reset, err := assistant.Reset(ctx, "chat1")
	require.NoError(t, err)
	assert.False(t, reset)

	_, err = assistant.HandleMessage(ctx, "telegram", "chat1", "user1", "book_appointment")
	require.NoError(t, err)

	reset, err = assistant.Reset(ctx, "chat1")
	require.NoError(t, err)
	assert.True(t, reset)
}
