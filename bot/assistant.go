package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"OrbitCS/bot/catalog"
	"OrbitCS/bot/dialog"
	"OrbitCS/bot/match"
	"OrbitCS/entity"
	"OrbitCS/internal/lib/sl"
)

// User-facing texts the facade emits on its own behalf.
const (
	MsgLoginRequired = "Please type /login to login before using the bot."
	MsgUnknown       = "I don't understand what you said."
)

// SessionGate is the slice of the auth collaborator the facade needs.
type SessionGate interface {
	IsLoggedIn(userID string) bool
}

// EventSink receives the dialogue transcript (the CRM websocket hub).
type EventSink interface {
	Publish(event *entity.DialogEvent)
}

// Assistant is the platform-agnostic entry point: it gates on login,
// routes messages to the active conversation or the matcher, and starts
// new conversations from match results.
type Assistant struct {
	catalog  *catalog.Catalog
	matcher  *match.Matcher
	engine   *dialog.Engine
	auth     SessionGate
	strategy match.Strategy
	events   EventSink
	log      *slog.Logger
}

// NewAssistant wires the dialogue core together.
func NewAssistant(cat *catalog.Catalog, matcher *match.Matcher, engine *dialog.Engine, auth SessionGate, strategy match.Strategy, log *slog.Logger) *Assistant {
	return &Assistant{
		catalog:  cat,
		matcher:  matcher,
		engine:   engine,
		auth:     auth,
		strategy: strategy,
		log:      log.With(sl.Module("assistant")),
	}
}

// SetEventSink enables transcript publishing.
func (a *Assistant) SetEventSink(sink EventSink) {
	a.events = sink
}

// HandleMessage processes one user message and returns the reply.
func (a *Assistant) HandleMessage(ctx context.Context, platform, chatID, userID, text string) (dialog.Reply, error) {
	a.publish(entity.EventIncoming, platform, chatID, userID, "", text)

	if !a.auth.IsLoggedIn(userID) {
		return a.reply(platform, chatID, userID, "", dialog.Reply{Text: MsgLoginRequired}), nil
	}

	active, err := a.engine.Active(ctx, chatID)
	if err != nil {
		return dialog.Reply{}, err
	}
	if active {
		reply, err := a.engine.Handle(ctx, chatID, userID, text)
		if err != nil {
			return dialog.Reply{}, err
		}
		return a.reply(platform, chatID, userID, "", reply), nil
	}

	result := a.matcher.Match(ctx, text, a.strategy)
	if !result.Matched() {
		return a.reply(platform, chatID, userID, "", dialog.Reply{Text: MsgUnknown}), nil
	}

	a.log.Info("command matched",
		slog.String("chat_id", chatID),
		slog.String("command", result.CommandKey),
		slog.Float64("score", result.Score),
		slog.String("method", string(result.Method)),
	)

	cmd, ok := a.catalog.Get(result.CommandKey)
	if !ok {
		return a.reply(platform, chatID, userID, "", dialog.Reply{Text: MsgUnknown}), nil
	}

	if cmd.Kind == entity.KindSimple {
		return a.reply(platform, chatID, userID, cmd.Key, dialog.Reply{Text: cmd.Response}), nil
	}

	reply, err := a.engine.Start(ctx, chatID, userID, cmd)
	if err != nil {
		return dialog.Reply{}, err
	}
	return a.reply(platform, chatID, userID, cmd.Key, reply), nil
}

// Reset discards the chat's conversation, if any.
func (a *Assistant) Reset(ctx context.Context, chatID string) (bool, error) {
	return a.engine.Reset(ctx, chatID)
}

func (a *Assistant) reply(platform, chatID, userID, command string, r dialog.Reply) dialog.Reply {
	a.publish(entity.EventOutgoing, platform, chatID, userID, command, r.Text)
	return r
}

func (a *Assistant) publish(direction, platform, chatID, userID, command, text string) {
	if a.events == nil {
		return
	}
	a.events.Publish(&entity.DialogEvent{
		ID:        uuid.NewString(),
		Direction: direction,
		Platform:  platform,
		ChatID:    chatID,
		UserID:    userID,
		Command:   command,
		Text:      text,
		Timestamp: time.Now(),
	})
}
