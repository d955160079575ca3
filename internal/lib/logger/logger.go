package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the process logger for the given environment.
// Local runs get human-readable text on stdout; dev and prod write JSON,
// prod additionally into a log file under logPath.
func SetupLogger(env, logPath string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		out := io.Writer(os.Stdout)
		file, err := os.OpenFile(filepath.Join(logPath, "orbitcs.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("opening log file: %v, falling back to stdout", err)
		} else {
			out = io.MultiWriter(os.Stdout, file)
		}
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// AdminNotifier delivers out-of-band alerts (the Telegram admin chat).
type AdminNotifier interface {
	SendMessage(msg string)
}

// telegramHandler fans records at or above its level out to the admin chat
// while delegating everything to the wrapped handler.
type telegramHandler struct {
	next     slog.Handler
	notifier AdminNotifier
	level    slog.Level
}

// SetupTelegramHandler layers admin-chat forwarding on top of an existing
// logger. Records below minLevel pass through untouched.
func SetupTelegramHandler(lg *slog.Logger, notifier AdminNotifier, minLevel slog.Level) *slog.Logger {
	return slog.New(&telegramHandler{
		next:     lg.Handler(),
		notifier: notifier,
		level:    minLevel,
	})
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError && r.Level >= h.level && h.notifier != nil {
		h.notifier.SendMessage(r.Level.String() + ": " + r.Message)
	}
	return h.next.Handle(ctx, r)
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &telegramHandler{next: h.next.WithAttrs(attrs), notifier: h.notifier, level: h.level}
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	return &telegramHandler{next: h.next.WithGroup(name), notifier: h.notifier, level: h.level}
}
