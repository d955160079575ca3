package matchdebug

import (
	"OrbitCS/bot/match"
	"OrbitCS/internal/lib/api/response"
	"OrbitCS/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

type request struct {
	Text     string `json:"text" validate:"required"`
	Strategy string `json:"strategy,omitempty"`
}

// Match scores a phrase against the catalog without touching any
// conversation. Used to tune samples and thresholds.
func Match(log *slog.Logger, handler Core, defaultStrategy match.Strategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("matcher not available")
			http.Error(w, "matcher not available", http.StatusServiceUnavailable)
			return
		}

		var req request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("decoding match request", sl.Err(err))
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Text == "" {
			http.Error(w, "Missing text field", http.StatusBadRequest)
			return
		}

		strategy := defaultStrategy
		if req.Strategy != "" {
			strategy = match.Strategy(req.Strategy)
		}

		result := handler.Match(r.Context(), req.Text, strategy)
		render.JSON(w, r, response.Ok(result))
	}
}
