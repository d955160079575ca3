package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"OrbitCS/bot/dialog"
	"OrbitCS/internal/lib/sl"
)

const platformTelegram = "telegram"

// Transcriber is the speech-to-text collaborator for voice messages.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// LoginService is the slice of the auth service the transport drives
// during the /login and /logout flows.
type LoginService interface {
	Login(ctx context.Context, userID, username, password string) (bool, string)
	Logout(userID string) (bool, string)
	IsLoggedIn(userID string) bool
}

// loginFlow tracks a user mid-login: first message is the username, the
// second the password.
type loginFlow struct {
	username string
}

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64

	assistant   *Assistant
	auth        LoginService
	transcriber Transcriber

	mu     sync.Mutex
	logins map[string]*loginFlow
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
		logins:      make(map[string]*loginFlow),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SetAssistant wires the dialogue facade.
func (t *TgBot) SetAssistant(assistant *Assistant) {
	t.assistant = assistant
}

// SetAuthService wires the login collaborator.
func (t *TgBot) SetAuthService(auth LoginService) {
	t.auth = auth
}

// SetTranscriber enables voice message handling.
func (t *TgBot) SetTranscriber(transcriber Transcriber) {
	t.transcriber = transcriber
}

func (t *TgBot) Start() error {

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Println("an error occurred while handling update:", err.Error())
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})

	dispatcher.AddHandler(handlers.NewCommand("start", t.startCommand))
	dispatcher.AddHandler(handlers.NewCommand("help", t.helpCommand))
	dispatcher.AddHandler(handlers.NewCommand("reset", t.resetCommand))
	dispatcher.AddHandler(handlers.NewCommand("login", t.loginCommand))
	dispatcher.AddHandler(handlers.NewCommand("logout", t.logoutCommand))
	dispatcher.AddHandler(handlers.NewCommand("cancel", t.cancelCommand))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return msg.Voice != nil
	}, t.handleVoice))
	dispatcher.AddHandler(handlers.NewMessage(func(msg *tgbotapi.Message) bool {
		return msg.Text != "" && !strings.HasPrefix(msg.Text, "/")
	}, t.handleText))

	updater := ext.NewUpdater(dispatcher, nil)

	// Start receiving updates.
	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("telegram bot polling", slog.String("bot", t.botUsername))

	// Idle, to keep updates coming in, and avoid bot stopping.
	updater.Idle()

	return nil
}

func (t *TgBot) startCommand(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.send(ctx.EffectiveChat.Id, dialog.Reply{
		Text: "Hello there! I'm your assistant today. How can I help you?",
	})
}

func (t *TgBot) helpCommand(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.send(ctx.EffectiveChat.Id, dialog.Reply{
		Text: "I'm here to help! Just ask me a question or send me a voice message.",
	})
}

func (t *TgBot) resetCommand(b *tgbotapi.Bot, ctx *ext.Context) error {
	chatID := strconv.FormatInt(ctx.EffectiveChat.Id, 10)
	reset, err := t.assistant.Reset(context.Background(), chatID)
	if err != nil {
		t.log.Error("resetting conversation", slog.String("chat_id", chatID), sl.Err(err))
		return t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: "Something went wrong. Please try again."})
	}
	if reset {
		return t.send(ctx.EffectiveChat.Id, dialog.Reply{
			Text:         "Conversation reset. You can start a new command.",
			ClearChoices: true,
		})
	}
	return t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: "No active conversation to reset."})
}

func (t *TgBot) loginCommand(b *tgbotapi.Bot, ctx *ext.Context) error {
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)

	if t.auth.IsLoggedIn(userID) {
		return t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: "You are already logged in! You can start using the bot."})
	}

	t.mu.Lock()
	t.logins[userID] = &loginFlow{}
	t.mu.Unlock()

	return t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: "Please enter your username:"})
}

func (t *TgBot) logoutCommand(b *tgbotapi.Bot, ctx *ext.Context) error {
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)
	_, msg := t.auth.Logout(userID)
	return t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: msg})
}

func (t *TgBot) cancelCommand(b *tgbotapi.Bot, ctx *ext.Context) error {
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)

	t.mu.Lock()
	_, pending := t.logins[userID]
	delete(t.logins, userID)
	t.mu.Unlock()

	if pending {
		return t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: "Login cancelled. You can try again later using /login"})
	}
	return nil
}

func (t *TgBot) handleText(b *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	chatID := strconv.FormatInt(msg.Chat.Id, 10)
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)
	text := msg.Text

	// In a group the bot only reacts when mentioned, and the mention is
	// stripped before processing.
	if msg.Chat.Type != "private" {
		mention := "@" + t.botUsername
		if !strings.Contains(text, mention) {
			return nil
		}
		text = strings.TrimSpace(strings.ReplaceAll(text, mention, ""))
	}

	if handled, err := t.continueLogin(b, ctx, userID, text); handled {
		return err
	}

	reply, err := t.assistant.HandleMessage(context.Background(), platformTelegram, chatID, userID, text)
	if err != nil {
		t.log.Error("handling message", slog.String("chat_id", chatID), sl.Err(err))
		return t.send(msg.Chat.Id, dialog.Reply{Text: "Something went wrong. Please try again."})
	}

	return t.send(msg.Chat.Id, reply)
}

// continueLogin advances a pending /login flow. The password message is
// deleted as soon as it arrives.
func (t *TgBot) continueLogin(b *tgbotapi.Bot, ctx *ext.Context, userID, text string) (bool, error) {
	t.mu.Lock()
	flow, pending := t.logins[userID]
	if pending && flow.username == "" {
		flow.username = text
		t.mu.Unlock()
		return true, t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: "Please enter your password:"})
	}
	if pending {
		delete(t.logins, userID)
	}
	t.mu.Unlock()

	if !pending {
		return false, nil
	}

	if _, err := ctx.EffectiveMessage.Delete(b, nil); err != nil {
		t.log.Warn("deleting password message", sl.Err(err))
	}

	_, msg := t.auth.Login(context.Background(), userID, flow.username, text)
	return true, t.send(ctx.EffectiveChat.Id, dialog.Reply{Text: msg})
}

func (t *TgBot) handleVoice(b *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	chatID := strconv.FormatInt(msg.Chat.Id, 10)
	userID := strconv.FormatInt(ctx.EffectiveUser.Id, 10)

	if t.transcriber == nil {
		return t.send(msg.Chat.Id, dialog.Reply{
			Text: "Sorry, I couldn't process your voice message. Please try again or send a text message.",
		})
	}

	_, _ = b.SendChatAction(msg.Chat.Id, "typing", nil)

	transcript, err := t.fetchAndTranscribe(b, msg.Voice.FileId)
	if err != nil {
		t.log.Error("processing voice message", slog.String("chat_id", chatID), sl.Err(err))
		return t.send(msg.Chat.Id, dialog.Reply{
			Text: "Sorry, I couldn't process your voice message. Please try again or send a text message.",
		})
	}

	reply, err := t.assistant.HandleMessage(context.Background(), platformTelegram, chatID, userID, transcript)
	if err != nil {
		t.log.Error("handling transcribed message", slog.String("chat_id", chatID), sl.Err(err))
		return t.send(msg.Chat.Id, dialog.Reply{Text: "Something went wrong. Please try again."})
	}

	reply.Text = fmt.Sprintf("🎤 Transcribed: %s\n\n%s", transcript, reply.Text)
	return t.send(msg.Chat.Id, reply)
}

func (t *TgBot) fetchAndTranscribe(b *tgbotapi.Bot, fileID string) (string, error) {
	file, err := b.GetFile(fileID, nil)
	if err != nil {
		return "", fmt.Errorf("getting voice file: %w", err)
	}

	resp, err := http.Get(file.URL(b, nil))
	if err != nil {
		return "", fmt.Errorf("downloading voice file: %w", err)
	}
	defer resp.Body.Close()

	return t.transcriber.Transcribe(context.Background(), resp.Body, "voice.ogg")
}

// send delivers a reply, translating the choice set into a one-time reply
// keyboard and ClearChoices into keyboard removal.
func (t *TgBot) send(chatId int64, reply dialog.Reply) error {
	if reply.Text == "" {
		t.log.Debug("empty message", slog.Int64("id", chatId))
		return nil
	}

	opts := &tgbotapi.SendMessageOpts{}
	if len(reply.Choices) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Choices))
		for _, choice := range reply.Choices {
			rows = append(rows, []tgbotapi.KeyboardButton{{Text: choice}})
		}
		opts.ReplyMarkup = tgbotapi.ReplyKeyboardMarkup{
			Keyboard:        rows,
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		}
	} else if reply.ClearChoices {
		opts.ReplyMarkup = tgbotapi.ReplyKeyboardRemove{RemoveKeyboard: true}
	}

	_, err := t.api.SendMessage(chatId, reply.Text, opts)
	if err != nil {
		t.log.With(
			slog.Int64("id", chatId),
		).Error("sending message", sl.Err(err))
	}
	return err
}

// SendMessage delivers an out-of-band message to the admin chat. Used by
// the logger's Telegram handler.
func (t *TgBot) SendMessage(msg string) {
	if t.adminId == 0 {
		return
	}
	_, err := t.api.SendMessage(t.adminId, msg, nil)
	if err != nil {
		t.log.With(
			slog.Int64("id", t.adminId),
		).Warn("sending admin message", sl.Err(err))
	}
}
