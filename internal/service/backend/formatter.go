package backend

import (
	"fmt"
	"log/slog"
	"strings"

	"OrbitCS/entity"
	"OrbitCS/internal/lib/sl"
)

// ResponseFormatter renders raw API payloads through the declarative
// format grammar. Any substitution failure anywhere in the pipeline yields
// the descriptor's configured error text instead of propagating.
type ResponseFormatter struct {
	log *slog.Logger
}

// NewFormatter creates a formatter.
func NewFormatter(log *slog.Logger) *ResponseFormatter {
	return &ResponseFormatter{log: log.With(sl.Module("formatter"))}
}

// Format renders raw into user-facing text per the descriptor.
func (f *ResponseFormatter) Format(raw any, format *entity.ResponseFormat) string {
	parts := make(map[string]string, len(format.Rules))

	// A payload object with a "data" field formats that field; anything
	// else formats as-is.
	items := raw
	if object, ok := raw.(map[string]any); ok {
		if data, exists := object["data"]; exists {
			items = data
		}
	}

	for key, rule := range format.Rules {
		part, err := f.formatSlot(raw, items, rule, format)
		if err != nil {
			f.log.Error("formatting response", slog.String("slot", key), sl.Err(err))
			return format.ErrorMessage
		}
		parts[key] = part
	}

	text, err := substitute(format.SuccessMessage, parts)
	if err != nil {
		f.log.Error("formatting success message", sl.Err(err))
		return format.ErrorMessage
	}
	return text
}

func (f *ResponseFormatter) formatSlot(raw, items any, rule entity.FormatRule, format *entity.ResponseFormat) (string, error) {
	switch data := items.(type) {
	case []any:
		if len(data) == 0 {
			return payloadMessage(raw, format.FallbackText()), nil
		}
		rendered := make([]string, 0, len(data))
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				rendered = append(rendered, fmt.Sprintf("%v", item))
				continue
			}
			line, err := substitute(rule.Template, stringify(record))
			if err != nil {
				return "", err
			}
			rendered = append(rendered, line)
		}
		return strings.Join(rendered, rule.JoinWith), nil

	case map[string]any:
		return substitute(rule.Template, stringify(data))

	default:
		return payloadMessage(raw, fmt.Sprintf("%v", items)), nil
	}
}

// payloadMessage prefers the payload's own message field over the fallback.
func payloadMessage(raw any, fallback string) string {
	if object, ok := raw.(map[string]any); ok {
		if msg, ok := object["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fallback
}
