package api

import (
	"OrbitCS/bot/match"
	"OrbitCS/internal/config"
	"OrbitCS/internal/http-server/handlers/command"
	"OrbitCS/internal/http-server/handlers/conversation"
	"OrbitCS/internal/http-server/handlers/errors"
	"OrbitCS/internal/http-server/handlers/key"
	"OrbitCS/internal/http-server/handlers/matchdebug"
	"OrbitCS/internal/http-server/middleware/authenticate"
	"OrbitCS/internal/lib/sl"
	"OrbitCS/internal/ws"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net"
	"net/http"
	"time"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Deps are the collaborators the management API exposes.
type Deps struct {
	Auth     authenticate.Authenticate
	Keys     key.Core
	Catalog  command.Core
	Matcher  matchdebug.Core
	Dialogue conversation.Core
	Hub      *ws.Hub
	WsAuth   ws.Authenticator
}

func New(conf *config.Config, log *slog.Logger, deps Deps) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.Timeout(5 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// The websocket endpoint authenticates on its own query key.
	if deps.Hub != nil {
		router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWs(deps.Hub, deps.WsAuth, log, w, r)
		})
	}

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(authenticate.New(log, deps.Auth))

		v1.Route("/commands", func(r chi.Router) {
			r.Get("/", command.List(log, deps.Catalog))
			r.Get("/{key}", command.Get(log, deps.Catalog))
		})
		v1.Route("/match", func(r chi.Router) {
			r.Post("/", matchdebug.Match(log, deps.Matcher, match.Strategy(conf.Matcher.Strategy)))
		})
		v1.Route("/conversation", func(r chi.Router) {
			r.Post("/reset", conversation.Reset(log, deps.Dialogue))
		})
		v1.Route("/key", func(r chi.Router) {
			r.Post("/new", key.Generate(log, deps.Keys))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
