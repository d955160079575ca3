package command

import (
	"OrbitCS/entity"
	"OrbitCS/internal/lib/api/response"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

type commandSummary struct {
	Key     string            `json:"key"`
	Kind    entity.CommandKind `json:"kind"`
	Samples []string          `json:"samples,omitempty"`
	Steps   int               `json:"steps,omitempty"`
}

// List returns every catalog command in load order.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("command catalog not available")
			http.Error(w, "command catalog not available", http.StatusServiceUnavailable)
			return
		}

		keys := handler.Keys()
		summaries := make([]commandSummary, 0, len(keys))
		for _, key := range keys {
			cmd, ok := handler.Get(key)
			if !ok {
				continue
			}
			summaries = append(summaries, commandSummary{
				Key:     cmd.Key,
				Kind:    cmd.Kind,
				Samples: cmd.Samples,
				Steps:   len(cmd.Steps),
			})
		}

		render.JSON(w, r, response.Ok(summaries))
	}
}
