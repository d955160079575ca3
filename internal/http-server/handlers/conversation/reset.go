package conversation

import (
	"context"

	"OrbitCS/internal/lib/api/response"
	"OrbitCS/internal/lib/sl"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

// Core is the dialogue slice the conversation handlers call.
type Core interface {
	Reset(ctx context.Context, chatID string) (bool, error)
}

// Reset discards the chat's active conversation, if any.
func Reset(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("conversation reset not available")
			http.Error(w, "conversation reset not available", http.StatusServiceUnavailable)
			return
		}

		chatID := r.URL.Query().Get("chat_id")
		if chatID == "" {
			http.Error(w, "Missing chat_id parameter", http.StatusBadRequest)
			return
		}

		reset, err := handler.Reset(r.Context(), chatID)
		if err != nil {
			log.Error("reset conversation", sl.Err(err))
			http.Error(w, "Reset failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if !reset {
			render.JSON(w, r, response.Ok("No active conversation"))
			return
		}
		render.JSON(w, r, response.Ok("Conversation reset successfully"))
	}
}
