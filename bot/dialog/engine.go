// Package dialog interprets a command's step graph as a per-conversation
// finite-state machine: it validates answers, stores fields, branches on
// goto/responses links and fires API-backed steps.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"OrbitCS/bot/catalog"
	"OrbitCS/entity"
	"OrbitCS/internal/lib/sl"
)

// User-facing texts the engine emits on its own behalf.
const (
	MsgStartOver     = "I'm not sure what to do next. Let's start over."
	msgChoosePrefix  = "Please choose one of: "
	summaryPlacehold = "{summary}"
)

// Reply is the outgoing message plus its optional choice set.
type Reply struct {
	Text         string
	Choices      []string // choice keyboard to present, if any
	ClearChoices bool     // remove a previously presented keyboard
}

// Engine walks command step graphs. It owns the conversation store; every
// state is created by Start and destroyed on termination or Reset.
type Engine struct {
	catalog   *catalog.Catalog
	store     Store
	executor  ApiExecutor
	formatter Formatter
	log       *slog.Logger
}

// NewEngine creates a conversation engine over the given catalog.
func NewEngine(cat *catalog.Catalog, store Store, executor ApiExecutor, formatter Formatter, log *slog.Logger) *Engine {
	return &Engine{
		catalog:   cat,
		store:     store,
		executor:  executor,
		formatter: formatter,
		log:       log.With(sl.Module("dialog-engine")),
	}
}

// Active reports whether the chat has an ongoing conversation.
func (e *Engine) Active(ctx context.Context, chatID string) (bool, error) {
	state, err := e.store.Load(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("loading state: %w", err)
	}
	return state != nil, nil
}

// Reset discards the chat's conversation, if any.
func (e *Engine) Reset(ctx context.Context, chatID string) (bool, error) {
	state, err := e.store.Load(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		return false, nil
	}
	if err := e.store.Delete(ctx, chatID); err != nil {
		return false, fmt.Errorf("deleting state: %w", err)
	}
	return true, nil
}

// Start begins a scripted conversation for the chat and returns the first
// step's prompt. If a conversation is already running, its current prompt
// is re-emitted instead of restarting.
func (e *Engine) Start(ctx context.Context, chatID, userID string, cmd *entity.Command) (Reply, error) {
	if !cmd.IsScripted() {
		return Reply{}, fmt.Errorf("command %q is not scripted", cmd.Key)
	}

	state := NewConversationState(chatID, userID, cmd.Key)
	created, err := e.store.SaveIfAbsent(ctx, state)
	if err != nil {
		return Reply{}, fmt.Errorf("saving initial state: %w", err)
	}
	if !created {
		existing, err := e.store.Load(ctx, chatID)
		if err != nil || existing == nil {
			return Reply{}, fmt.Errorf("conversation already active for chat %s", chatID)
		}
		state = existing
		active, ok := e.catalog.Get(state.CommandKey)
		if !ok || state.StepIndex >= len(active.Steps) {
			_ = e.store.Delete(ctx, chatID)
			return Reply{Text: MsgStartOver, ClearChoices: true}, nil
		}
		cmd = active
	}

	e.log.Info("conversation started",
		slog.String("chat_id", chatID),
		slog.String("command", state.CommandKey),
	)

	step := &cmd.Steps[state.StepIndex]
	return e.renderStep(step, state, ""), nil
}

// Handle processes one user message for an active conversation.
func (e *Engine) Handle(ctx context.Context, chatID, userID, text string) (Reply, error) {
	state, err := e.store.Load(ctx, chatID)
	if err != nil {
		return Reply{}, fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		return Reply{Text: MsgStartOver}, nil
	}

	cmd, ok := e.catalog.Get(state.CommandKey)
	if !ok || state.StepIndex < 0 || state.StepIndex >= len(cmd.Steps) {
		// The catalog changed under a live conversation. Drop it.
		_ = e.store.Delete(ctx, chatID)
		return Reply{Text: MsgStartOver, ClearChoices: true}, nil
	}

	step := &cmd.Steps[state.StepIndex]
	input := strings.ToLower(strings.TrimSpace(text))

	// Validation has priority over everything else: a rejected answer
	// re-emits the prompt and leaves the state untouched.
	if !step.Accepts(input) {
		return Reply{
			Text:    msgChoosePrefix + strings.Join(step.Expect, ", "),
			Choices: step.Expect,
		}, nil
	}

	if step.StoreResponse {
		state.SetStored(step.ID, input)
	}

	ack, nextIndex, terminal := e.resolveTransition(cmd, step, state, input)

	if terminal {
		if err := e.store.Delete(ctx, chatID); err != nil {
			return Reply{}, fmt.Errorf("deleting state: %w", err)
		}
		e.logCompleted(state)
		return Reply{Text: ack, ClearChoices: true}, nil
	}

	if nextIndex < 0 || nextIndex >= len(cmd.Steps) {
		// Script authoring defect: nothing to transition to. Keep the
		// state as-is so the user can retry.
		e.log.Warn("no transition from step",
			slog.String("chat_id", chatID),
			slog.String("command", cmd.Key),
			slog.String("step", step.ID),
			slog.String("input", input),
		)
		if err := e.store.Save(ctx, state); err != nil {
			return Reply{}, fmt.Errorf("saving state: %w", err)
		}
		return Reply{Text: MsgStartOver}, nil
	}

	target := &cmd.Steps[nextIndex]
	if target.Api != nil {
		return e.executeApiStep(ctx, state, target, nextIndex)
	}

	state.StepIndex = nextIndex
	if err := e.store.Save(ctx, state); err != nil {
		return Reply{}, fmt.Errorf("saving state: %w", err)
	}
	return e.renderStep(target, state, ack), nil
}

// resolveTransition applies the branch priority order: explicit goto first,
// then keyed responses, then the pending return-to-confirmation flag, then
// linear advance. A true terminal means the conversation ends here with the
// acknowledgement as the last word.
func (e *Engine) resolveTransition(cmd *entity.Command, step *entity.Step, state *ConversationState, input string) (ack string, nextIndex int, terminal bool) {
	nextIndex = -1

	if target, ok := step.Goto[input]; ok {
		nextIndex = cmd.StepIndex(target)
		if step.ID == cmd.FieldSelectorStep() {
			state.PendingReturn = true
		}
		ack = step.Responses[input]
		return ack, nextIndex, false
	}

	if msg, ok := step.Responses[input]; ok {
		if step.IsFinal {
			return msg, -1, true
		}
		return msg, state.StepIndex + 1, false
	}

	if state.PendingReturn {
		state.PendingReturn = false
		return "", cmd.StepIndex(cmd.ConfirmationStep()), false
	}

	if !step.IsFinal {
		return "", state.StepIndex + 1, false
	}

	return "", -1, false
}

// executeApiStep fires the call the target step describes and commits the
// transition only when it succeeds. Expiry and non-final failures leave the
// conversation exactly where it was before the call.
func (e *Engine) executeApiStep(ctx context.Context, state *ConversationState, target *entity.Step, nextIndex int) (Reply, error) {
	outcome := e.executor.Execute(ctx, state.UserID, target.Api, state.StoredMap())

	switch outcome.Status {
	case ApiSuccess:
		text := e.formatter.Format(outcome.Raw, target.Api.Format)
		if target.IsFinal {
			if err := e.store.Delete(ctx, state.ChatID); err != nil {
				return Reply{}, fmt.Errorf("deleting state: %w", err)
			}
			e.logCompleted(state)
			return Reply{Text: text, ClearChoices: true}, nil
		}
		state.StepIndex = nextIndex
		if err := e.store.Save(ctx, state); err != nil {
			return Reply{}, fmt.Errorf("saving state: %w", err)
		}
		return Reply{Text: text}, nil

	case ApiSessionExpired:
		// The executor invalidated the session; the conversation stays at
		// its pre-call step until the user logs in again.
		if err := e.store.Save(ctx, state); err != nil {
			return Reply{}, fmt.Errorf("saving state: %w", err)
		}
		return Reply{Text: outcome.Message}, nil

	default:
		if target.IsFinal {
			if err := e.store.Delete(ctx, state.ChatID); err != nil {
				return Reply{}, fmt.Errorf("deleting state: %w", err)
			}
			return Reply{Text: outcome.Message, ClearChoices: true}, nil
		}
		if err := e.store.Save(ctx, state); err != nil {
			return Reply{}, fmt.Errorf("saving state: %w", err)
		}
		return Reply{Text: outcome.Message}, nil
	}
}

// renderStep builds the outgoing prompt for a step: {summary} substitution,
// acknowledgement prefix, choice keyboard from the expect set.
func (e *Engine) renderStep(step *entity.Step, state *ConversationState, ack string) Reply {
	text := step.Prompt
	if strings.Contains(text, summaryPlacehold) {
		text = strings.ReplaceAll(text, summaryPlacehold, state.Summary())
	}
	if ack != "" {
		text = ack + "\n\n" + text
	}
	return Reply{Text: text, Choices: step.Expect}
}

func (e *Engine) logCompleted(state *ConversationState) {
	e.log.Info("conversation completed",
		slog.String("chat_id", state.ChatID),
		slog.String("command", state.CommandKey),
	)
}
