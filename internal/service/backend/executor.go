// Package backend executes the API descriptors carried by api_request
// steps and renders their responses through the declarative format grammar.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"OrbitCS/bot/dialog"
	"OrbitCS/entity"
	"OrbitCS/internal/lib/sl"
)

// sessionTokenField is the body field the backend expects the CSRF-style
// token under on mutating requests.
const sessionTokenField = "_token"

// requestTimeout bounds every API step call; an overrun is a plain Failure.
const requestTimeout = 10 * time.Second

// statusPageExpired is the Laravel status for a CSRF token mismatch or an
// expired session. net/http has no constant for it.
const statusPageExpired = 419

// User-facing texts for the two recoverable credential situations.
const (
	MsgNotLoggedIn    = "You are not logged in. Please type /login first."
	MsgSessionExpired = "Your session has expired. Please type /login to log in again."
)

// SessionService is the auth collaborator the executor consults. The
// credential bundle stays opaque: cookies are attached, the token injected,
// nothing else inspected.
type SessionService interface {
	Session(userID string) *entity.Session
	Token(userID string) string
	Invalidate(userID string)
}

// Executor performs one HTTP call per invocation. No automatic retries.
type Executor struct {
	client *http.Client
	auth   SessionService
	log    *slog.Logger
}

// NewExecutor creates an API step executor bound to the auth collaborator.
func NewExecutor(auth SessionService, log *slog.Logger) *Executor {
	return &Executor{
		client: &http.Client{Timeout: requestTimeout},
		auth:   auth,
		log:    log.With(sl.Module("api-executor")),
	}
}

// Execute resolves the step's API descriptor into a concrete HTTP call and
// classifies the outcome into success, expired session or failure.
func (x *Executor) Execute(ctx context.Context, userID string, api *entity.ApiSpec, stored map[string]string) dialog.ApiOutcome {
	session := x.auth.Session(userID)
	if !session.Valid() {
		return dialog.ApiOutcome{Status: dialog.ApiFailure, Message: MsgNotLoggedIn}
	}

	payload, err := x.buildPayload(api, stored)
	if err != nil {
		x.log.Error("templating payload", slog.String("url", api.URL), sl.Err(err))
		return dialog.ApiOutcome{Status: dialog.ApiFailure, Message: api.Format.ErrorMessage}
	}

	req, err := x.buildRequest(ctx, userID, api, payload)
	if err != nil {
		x.log.Error("building request", slog.String("url", api.URL), sl.Err(err))
		return dialog.ApiOutcome{Status: dialog.ApiFailure, Message: api.Format.ErrorMessage}
	}

	for name, value := range session.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := x.client.Do(req)
	if err != nil {
		// Timeouts and transport errors classify uniformly as failure.
		x.log.Error("api request", slog.String("url", api.URL), sl.Err(err))
		return dialog.ApiOutcome{Status: dialog.ApiFailure, Message: api.Format.ErrorMessage}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var raw any
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			x.log.Error("decoding api response", slog.String("url", api.URL), sl.Err(err))
			return dialog.ApiOutcome{Status: dialog.ApiFailure, Message: api.Format.ErrorMessage}
		}
		return dialog.ApiOutcome{Status: dialog.ApiSuccess, Raw: raw}

	case statusPageExpired:
		x.auth.Invalidate(userID)
		x.log.Info("session expired", slog.String("user_id", userID), slog.String("url", api.URL))
		return dialog.ApiOutcome{Status: dialog.ApiSessionExpired, Message: MsgSessionExpired}

	default:
		x.log.Error("api error status",
			slog.String("url", api.URL),
			slog.Int("status", resp.StatusCode),
		)
		return dialog.ApiOutcome{Status: dialog.ApiFailure, Message: api.Format.ErrorMessage}
	}
}

// buildPayload substitutes {fieldName} placeholders from stored answers.
func (x *Executor) buildPayload(api *entity.ApiSpec, stored map[string]string) (map[string]string, error) {
	payload := make(map[string]string, len(api.Payload))
	for key, template := range api.Payload {
		value, err := substitute(template, stored)
		if err != nil {
			return nil, err
		}
		payload[key] = value
	}
	return payload, nil
}

// buildRequest passes the payload as query parameters on GET and as a JSON
// body, with the session token injected, on every other method.
func (x *Executor) buildRequest(ctx context.Context, userID string, api *entity.ApiSpec, payload map[string]string) (*http.Request, error) {
	method := strings.ToUpper(api.Method)

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, api.URL, nil)
		if err != nil {
			return nil, err
		}
		query := url.Values{}
		for key, value := range payload {
			query.Set(key, value)
		}
		req.URL.RawQuery = query.Encode()
	} else {
		body := make(map[string]any, len(payload)+1)
		for key, value := range payload {
			body[key] = value
		}
		if token := x.auth.Token(userID); token != "" {
			body[sessionTokenField] = token
		}
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, api.URL, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	}

	for name, value := range api.Headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}
