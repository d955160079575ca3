package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrbitCS/bot/dialog"
	"OrbitCS/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuth struct {
	session     *entity.Session
	invalidated bool
}

func (f *fakeAuth) Session(string) *entity.Session { return f.session }

func (f *fakeAuth) Token(string) string {
	if f.session == nil {
		return ""
	}
	return f.session.Token
}

func (f *fakeAuth) Invalidate(string) { f.invalidated = true }

func loggedInAuth() *fakeAuth {
	return &fakeAuth{session: &entity.Session{
		UserID:    "user1",
		Cookies:   map[string]string{"XSRF-TOKEN": "csrf", "laravel_session": "sess"},
		Token:     "tok123",
		LastLogin: time.Now(),
	}}
}

func apiSpec(method, url string, payload map[string]string) *entity.ApiSpec {
	return &entity.ApiSpec{
		Method:  method,
		URL:     url,
		Payload: payload,
		Format:  &entity.ResponseFormat{ErrorMessage: "Something went wrong with your request."},
	}
}

func TestExecuteNotLoggedIn(t *testing.T) {
	executor := NewExecutor(&fakeAuth{}, testLogger())

	outcome := executor.Execute(context.Background(), "user1",
		apiSpec("POST", "http://backend.local/x", nil), nil)

	assert.Equal(t, dialog.ApiFailure, outcome.Status)
	assert.Equal(t, MsgNotLoggedIn, outcome.Message)
}

func TestExecutePostSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotCookies []*http.Cookie
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		gotCookies = r.Cookies()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": [{"id": 1}]}`))
	}))
	defer server.Close()

	executor := NewExecutor(loggedInAuth(), testLogger())
	outcome := executor.Execute(context.Background(), "user1",
		apiSpec("POST", server.URL, map[string]string{"order": "{order_id}", "note": "rush"}),
		map[string]string{"order_id": "42"})

	require.Equal(t, dialog.ApiSuccess, outcome.Status)
	assert.Equal(t, "42", gotBody["order"])
	assert.Equal(t, "rush", gotBody["note"])
	assert.Equal(t, "tok123", gotBody["_token"])
	assert.Len(t, gotCookies, 2)

	raw, ok := outcome.Raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, raw["success"])
}

func TestExecuteGetUsesQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "42", r.URL.Query().Get("order"))

		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)

		_, _ = w.Write([]byte(`{"status": "shipped"}`))
	}))
	defer server.Close()

	executor := NewExecutor(loggedInAuth(), testLogger())
	outcome := executor.Execute(context.Background(), "user1",
		apiSpec("GET", server.URL, map[string]string{"order": "{order_id}"}),
		map[string]string{"order_id": "42"})

	require.Equal(t, dialog.ApiSuccess, outcome.Status)
}

func TestExecuteSessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusPageExpired)
	}))
	defer server.Close()

	auth := loggedInAuth()
	executor := NewExecutor(auth, testLogger())
	outcome := executor.Execute(context.Background(), "user1",
		apiSpec("POST", server.URL, nil), nil)

	assert.Equal(t, dialog.ApiSessionExpired, outcome.Status)
	assert.Equal(t, MsgSessionExpired, outcome.Message)
	assert.True(t, auth.invalidated)
}

func TestExecuteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	executor := NewExecutor(loggedInAuth(), testLogger())
	spec := apiSpec("POST", server.URL, nil)
	outcome := executor.Execute(context.Background(), "user1", spec, nil)

	assert.Equal(t, dialog.ApiFailure, outcome.Status)
	assert.Equal(t, spec.Format.ErrorMessage, outcome.Message)
}

func TestExecuteMissingPlaceholder(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	executor := NewExecutor(loggedInAuth(), testLogger())
	spec := apiSpec("POST", server.URL, map[string]string{"order": "{order_id}"})
	outcome := executor.Execute(context.Background(), "user1", spec, map[string]string{})

	assert.Equal(t, dialog.ApiFailure, outcome.Status)
	assert.Equal(t, spec.Format.ErrorMessage, outcome.Message)
	assert.False(t, called)
}

func TestExecuteMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	executor := NewExecutor(loggedInAuth(), testLogger())
	outcome := executor.Execute(context.Background(), "user1",
		apiSpec("POST", server.URL, nil), nil)

	assert.Equal(t, dialog.ApiFailure, outcome.Status)
}
