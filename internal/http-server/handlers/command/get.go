package command

import (
	"OrbitCS/internal/lib/api/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

// Get returns the full definition of one command.
func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("command catalog not available")
			http.Error(w, "command catalog not available", http.StatusServiceUnavailable)
			return
		}

		key := chi.URLParam(r, "key")
		if key == "" {
			http.Error(w, "Missing key parameter", http.StatusBadRequest)
			return
		}

		cmd, ok := handler.Get(key)
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Command not found"))
			return
		}

		render.JSON(w, r, response.Ok(cmd))
	}
}
