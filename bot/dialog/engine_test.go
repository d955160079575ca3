package dialog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrbitCS/bot/catalog"
	"OrbitCS/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bookingCommand is a conversation with a field-edit loop: two answers are
// collected, summarized for confirmation and individually editable.
func bookingCommand() *entity.Command {
	return &entity.Command{
		Key:  "book_appointment",
		Kind: entity.KindConversation,
		Steps: []entity.Step{
			{
				ID:            "service",
				Prompt:        "Which service would you like?",
				Expect:        []string{"haircut", "massage"},
				StoreResponse: true,
			},
			{
				ID:            "date",
				Prompt:        "Which day suits you?",
				StoreResponse: true,
			},
			{
				ID:     "confirmation",
				Prompt: "Here is your booking:\n{summary}\nShall I confirm?",
				Expect: []string{"yes", "edit"},
				Responses: map[string]string{
					"yes": "You're all set, see you then!",
				},
				Goto:    map[string]string{"edit": "field_to_update"},
				IsFinal: true,
			},
			{
				ID:     "field_to_update",
				Prompt: "Which field do you want to change?",
				Expect: []string{"service", "date"},
				Goto: map[string]string{
					"service": "service",
					"date":    "date",
				},
			},
		},
	}
}

func newTestEngine(t *testing.T, cmd *entity.Command, executor ApiExecutor, formatter Formatter) (*Engine, Store) {
	t.Helper()
	cat, err := catalog.New(cmd)
	require.NoError(t, err)
	store := NewMemoryStore()
	return NewEngine(cat, store, executor, formatter, testLogger()), store
}

func TestStartEmitsFirstPrompt(t *testing.T) {
	cmd := bookingCommand()
	engine, _ := newTestEngine(t, cmd, nil, nil)
	ctx := context.Background()

	reply, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)
	assert.Equal(t, "Which service would you like?", reply.Text)
	assert.Equal(t, []string{"haircut", "massage"}, reply.Choices)

	active, err := engine.Active(ctx, "chat1")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestStartRejectsSimpleCommand(t *testing.T) {
	cmd := bookingCommand()
	engine, _ := newTestEngine(t, cmd, nil, nil)

	_, err := engine.Start(context.Background(), "chat1", "user1",
		&entity.Command{Key: "greet", Kind: entity.KindSimple, Response: "hi"})
	require.Error(t, err)
}

func TestStartWhileActiveReemitsCurrentPrompt(t *testing.T) {
	cmd := bookingCommand()
	engine, _ := newTestEngine(t, cmd, nil, nil)
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	_, err = engine.Handle(ctx, "chat1", "user1", "haircut")
	require.NoError(t, err)

	// Starting again must not reset the conversation.
	reply, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)
	assert.Equal(t, "Which day suits you?", reply.Text)
}

func TestValidationGateRepromptsWithoutAdvancing(t *testing.T) {
	cmd := bookingCommand()
	engine, store := newTestEngine(t, cmd, nil, nil)
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "pedicure")
	require.NoError(t, err)
	assert.Equal(t, "Please choose one of: haircut, massage", reply.Text)
	assert.Equal(t, []string{"haircut", "massage"}, reply.Choices)

	state, err := store.Load(ctx, "chat1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 0, state.StepIndex)
	assert.Empty(t, state.Stored)
}

func TestFullConversationWithFieldEdit(t *testing.T) {
	cmd := bookingCommand()
	engine, _ := newTestEngine(t, cmd, nil, nil)
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "Haircut")
	require.NoError(t, err)
	assert.Equal(t, "Which day suits you?", reply.Text)

	reply, err = engine.Handle(ctx, "chat1", "user1", "tuesday")
	require.NoError(t, err)
	assert.Equal(t, "Here is your booking:\nservice: haircut\ndate: tuesday\nShall I confirm?", reply.Text)

	// Branch into the edit loop.
	reply, err = engine.Handle(ctx, "chat1", "user1", "edit")
	require.NoError(t, err)
	assert.Equal(t, "Which field do you want to change?", reply.Text)

	reply, err = engine.Handle(ctx, "chat1", "user1", "date")
	require.NoError(t, err)
	assert.Equal(t, "Which day suits you?", reply.Text)

	// The re-asked field updates in place and loops back to confirmation.
	reply, err = engine.Handle(ctx, "chat1", "user1", "wednesday")
	require.NoError(t, err)
	assert.Equal(t, "Here is your booking:\nservice: haircut\ndate: wednesday\nShall I confirm?", reply.Text)

	reply, err = engine.Handle(ctx, "chat1", "user1", "yes")
	require.NoError(t, err)
	assert.Equal(t, "You're all set, see you then!", reply.Text)
	assert.True(t, reply.ClearChoices)

	active, err := engine.Active(ctx, "chat1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestHandleWithoutConversation(t *testing.T) {
	cmd := bookingCommand()
	engine, _ := newTestEngine(t, cmd, nil, nil)

	reply, err := engine.Handle(context.Background(), "chat1", "user1", "hello")
	require.NoError(t, err)
	assert.Equal(t, MsgStartOver, reply.Text)
}

func TestNoTransitionKeepsConversation(t *testing.T) {
	cmd := &entity.Command{
		Key:  "dead_end",
		Kind: entity.KindConversation,
		Steps: []entity.Step{
			{ID: "only", Prompt: "Say something", IsFinal: true},
		},
	}
	engine, store := newTestEngine(t, cmd, nil, nil)
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "anything")
	require.NoError(t, err)
	assert.Equal(t, MsgStartOver, reply.Text)

	// The state survives so the user can retry.
	state, err := store.Load(ctx, "chat1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 0, state.StepIndex)
}

func TestResetDiscardsConversation(t *testing.T) {
	cmd := bookingCommand()
	engine, _ := newTestEngine(t, cmd, nil, nil)
	ctx := context.Background()

	reset, err := engine.Reset(ctx, "chat1")
	require.NoError(t, err)
	assert.False(t, reset)

	_, err = engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reset, err = engine.Reset(ctx, "chat1")
	require.NoError(t, err)
	assert.True(t, reset)

	active, err := engine.Active(ctx, "chat1")
	require.NoError(t, err)
	assert.False(t, active)
}

// fakeExecutor returns a canned outcome and records what it was given.
type fakeExecutor struct {
	outcome   ApiOutcome
	gotStored map[string]string
	calls     int
}

func (f *fakeExecutor) Execute(_ context.Context, _ string, _ *entity.ApiSpec, stored map[string]string) ApiOutcome {
	f.calls++
	f.gotStored = stored
	return f.outcome
}

type fakeFormatter struct{ text string }

func (f *fakeFormatter) Format(any, *entity.ResponseFormat) string { return f.text }

func orderStatusCommand(finalApi bool) *entity.Command {
	steps := []entity.Step{
		{
			ID:            "order_id",
			Prompt:        "Which order number?",
			StoreResponse: true,
		},
		{
			ID: "lookup",
			Api: &entity.ApiSpec{
				Method:  "POST",
				URL:     "http://backend.local/orders/status",
				Payload: map[string]string{"order": "{order_id}"},
				Format:  &entity.ResponseFormat{ErrorMessage: "Could not fetch your order."},
			},
			IsFinal: finalApi,
		},
	}
	if !finalApi {
		steps = append(steps, entity.Step{ID: "anything_else", Prompt: "Anything else?"})
	}
	return &entity.Command{Key: "order_status", Kind: entity.KindApiRequest, Steps: steps}
}

func TestApiStepSuccessFinalTerminates(t *testing.T) {
	cmd := orderStatusCommand(true)
	executor := &fakeExecutor{outcome: ApiOutcome{Status: ApiSuccess, Raw: map[string]any{"ok": true}}}
	formatter := &fakeFormatter{text: "Order 42 is on its way."}
	engine, _ := newTestEngine(t, cmd, executor, formatter)
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "42")
	require.NoError(t, err)
	assert.Equal(t, "Order 42 is on its way.", reply.Text)
	assert.True(t, reply.ClearChoices)
	assert.Equal(t, map[string]string{"order_id": "42"}, executor.gotStored)

	active, err := engine.Active(ctx, "chat1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestApiStepSuccessNonFinalAdvances(t *testing.T) {
	cmd := orderStatusCommand(false)
	executor := &fakeExecutor{outcome: ApiOutcome{Status: ApiSuccess, Raw: map[string]any{}}}
	formatter := &fakeFormatter{text: "Done."}
	engine, store := newTestEngine(t, cmd, executor, formatter)
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "42")
	require.NoError(t, err)
	assert.Equal(t, "Done.", reply.Text)

	state, err := store.Load(ctx, "chat1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 1, state.StepIndex)
}

func TestApiStepSessionExpiredKeepsPosition(t *testing.T) {
	cmd := orderStatusCommand(true)
	executor := &fakeExecutor{outcome: ApiOutcome{Status: ApiSessionExpired, Message: "Your session has expired."}}
	engine, store := newTestEngine(t, cmd, executor, &fakeFormatter{})
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "42")
	require.NoError(t, err)
	assert.Equal(t, "Your session has expired.", reply.Text)

	// Conversation still parked on the question step, answer retained.
	state, err := store.Load(ctx, "chat1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 0, state.StepIndex)
	value, ok := state.GetStored("order_id")
	require.True(t, ok)
	assert.Equal(t, "42", value)
}

func TestApiStepFailureFinalTerminates(t *testing.T) {
	cmd := orderStatusCommand(true)
	executor := &fakeExecutor{outcome: ApiOutcome{Status: ApiFailure, Message: "Could not fetch your order."}}
	engine, _ := newTestEngine(t, cmd, executor, &fakeFormatter{})
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "42")
	require.NoError(t, err)
	assert.Equal(t, "Could not fetch your order.", reply.Text)
	assert.True(t, reply.ClearChoices)

	active, err := engine.Active(ctx, "chat1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestApiStepFailureNonFinalKeepsPosition(t *testing.T) {
	cmd := orderStatusCommand(false)
	executor := &fakeExecutor{outcome: ApiOutcome{Status: ApiFailure, Message: "Could not fetch your order."}}
	engine, store := newTestEngine(t, cmd, executor, &fakeFormatter{})
	ctx := context.Background()

	_, err := engine.Start(ctx, "chat1", "user1", cmd)
	require.NoError(t, err)

	reply, err := engine.Handle(ctx, "chat1", "user1", "42")
	require.NoError(t, err)
	assert.Equal(t, "Could not fetch your order.", reply.Text)

	state, err := store.Load(ctx, "chat1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 0, state.StepIndex)
}
