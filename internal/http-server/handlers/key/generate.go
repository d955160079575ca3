package key

import (
	"OrbitCS/internal/lib/api/response"
	"OrbitCS/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

// Core issues API keys for the management API and websocket clients.
type Core interface {
	GenerateApiKey(username string) (string, error)
}

type request struct {
	Username string `json:"username" validate:"required"`
}

// Generate returns the caller's API key, creating one when none exists.
func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("key generation not available")
			http.Error(w, "key generation not available", http.StatusServiceUnavailable)
			return
		}

		var req request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("decoding key request", sl.Err(err))
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" {
			http.Error(w, "Missing username field", http.StatusBadRequest)
			return
		}

		apiKey, err := handler.GenerateApiKey(req.Username)
		if err != nil {
			log.Error("generating api key", sl.Err(err))
			http.Error(w, "Key generation failed", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, response.Ok(map[string]string{"key": apiKey}))
	}
}
