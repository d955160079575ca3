package main

import (
	"OrbitCS/ai/asr"
	"OrbitCS/ai/embed"
	"OrbitCS/bot"
	"OrbitCS/bot/catalog"
	"OrbitCS/bot/dialog"
	"OrbitCS/bot/match"
	"OrbitCS/internal/config"
	repository "OrbitCS/internal/database"
	"OrbitCS/internal/http-server/api"
	"OrbitCS/internal/lib/logger"
	"OrbitCS/internal/lib/sl"
	"OrbitCS/internal/service/auth"
	"OrbitCS/internal/service/backend"
	"OrbitCS/internal/ws"
	"context"
	"flag"
	"fmt"
	"log/slog"
)

// staticKeyAuth accepts the single API key from the config. Used when no
// database backs the api-keys collection.
type staticKeyAuth struct {
	key string
}

func (a staticKeyAuth) CheckApiKey(key string) (string, error) {
	if a.key != "" && key == a.key {
		return "admin", nil
	}
	return "", fmt.Errorf("unknown api key")
}

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	// Initialize Telegram bot if enabled
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", slog.String("error", err.Error()))
		} else {
			// Set up Telegram handler for the logger
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelDebug)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting orbitcs", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	cat, err := catalog.Load(conf.Commands.Path)
	if err != nil {
		lg.Error("loading command catalog", sl.Err(err))
		return
	}
	lg.With(
		slog.String("path", conf.Commands.Path),
		slog.Int("commands", cat.Len()),
	).Info("command catalog loaded")

	authService := auth.NewAuthService(conf.Backend.BaseURL, conf.Backend.LoginPath, lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		authService.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	var embedder match.Embedder
	if conf.OpenAI.Enabled {
		embedder = embed.NewOpenAIEmbedder(conf.OpenAI.ApiKey, conf.OpenAI.EmbeddingModel, lg)
		lg.With(
			sl.Secret("openai_key", conf.OpenAI.ApiKey),
			slog.String("model", conf.OpenAI.EmbeddingModel),
		).Info("embedder initialized")
	}

	matcher, err := match.NewMatcher(context.Background(), cat, embedder, lg)
	if err != nil {
		lg.Error("building matcher index", sl.Err(err))
		return
	}

	var store dialog.Store = dialog.NewMemoryStore()
	if db != nil && conf.Mongo.PersistDialogs {
		store = dialog.NewMongoStore(db)
		lg.Info("conversation persistence enabled")
	}

	executor := backend.NewExecutor(authService, lg)
	formatter := backend.NewFormatter(lg)
	engine := dialog.NewEngine(cat, store, executor, formatter, lg)

	assistant := bot.NewAssistant(cat, matcher, engine, authService, match.Strategy(conf.Matcher.Strategy), lg)

	hub := ws.NewHub(lg)
	hub.SetResetter(assistant)
	assistant.SetEventSink(hub)
	go hub.Run()

	if tgBot != nil {
		tgBot.SetAssistant(assistant)
		tgBot.SetAuthService(authService)
		if conf.OpenAI.Enabled {
			tgBot.SetTranscriber(asr.NewTranscriber(conf.OpenAI.ApiKey, lg))
		}

		// Start the bot in a goroutine
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot error", slog.String("error", err.Error()))
			}
		}()
	}

	deps := api.Deps{
		Catalog:  cat,
		Matcher:  matcher,
		Dialogue: assistant,
		Hub:      hub,
	}
	if db != nil {
		deps.Auth = db
		deps.Keys = db
		deps.WsAuth = db
	} else {
		static := staticKeyAuth{key: conf.Listen.ApiKey}
		deps.Auth = static
		deps.WsAuth = static
	}

	// *** blocking start with http server ***
	err = api.New(conf, lg, deps)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
