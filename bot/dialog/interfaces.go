package dialog

import (
	"context"

	"OrbitCS/entity"
)

// ApiStatus classifies an API step outcome into exactly three buckets.
type ApiStatus int

const (
	// ApiSuccess carries the parsed response body.
	ApiSuccess ApiStatus = iota
	// ApiSessionExpired means the backend rejected the credential bundle;
	// the executor has already invalidated the stored session.
	ApiSessionExpired
	// ApiFailure covers every other status, timeouts and transport errors.
	ApiFailure
)

// ApiOutcome is the result of a single API step invocation.
type ApiOutcome struct {
	Status  ApiStatus
	Raw     any    // parsed JSON body, only on success
	Message string // user-facing text on expiry or failure
}

// ApiExecutor performs the backend call an api step describes, templating
// the payload from the conversation's stored answers. One attempt per
// invocation, no retries.
type ApiExecutor interface {
	Execute(ctx context.Context, userID string, api *entity.ApiSpec, stored map[string]string) ApiOutcome
}

// Formatter renders a raw API payload through the step's declarative
// format descriptor. It never fails: any substitution problem degrades to
// the descriptor's configured error text.
type Formatter interface {
	Format(raw any, format *entity.ResponseFormat) string
}
