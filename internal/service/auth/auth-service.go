// Package auth exchanges user credentials for a backend session bundle
// (cookie set plus CSRF-style token) and hands it out as opaque material.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"OrbitCS/entity"
	"OrbitCS/internal/lib/sl"
)

// Cookie names the backend must set for a login to count as successful.
const (
	csrfCookie    = "XSRF-TOKEN"
	sessionCookie = "laravel_session"
)

const loginTimeout = 10 * time.Second

// Repository persists session bundles across restarts. Optional; without
// one the service is memory-only.
type Repository interface {
	UpsertSession(ctx context.Context, session *entity.Session) error
	GetSession(ctx context.Context, userID string) (*entity.Session, error)
	DeleteSession(ctx context.Context, userID string) error
}

// Service owns the per-user session bundles.
type Service struct {
	loginURL   string
	client     *http.Client
	repository Repository

	mu       sync.RWMutex
	sessions map[string]*entity.Session

	log *slog.Logger
}

// NewAuthService creates the session service. baseURL points at the
// backend; loginPath is the authentication endpoint.
func NewAuthService(baseURL, loginPath string, logger *slog.Logger) *Service {
	return &Service{
		loginURL: strings.TrimRight(baseURL, "/") + loginPath,
		client:   &http.Client{Timeout: loginTimeout},
		sessions: make(map[string]*entity.Session),
		log:      logger.With(sl.Module("auth-service")),
	}
}

// SetRepository enables persistent session storage.
func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"_token"`
}

// Login authenticates the user against the backend and stores the
// resulting cookie bundle. Returns a user-facing message either way.
func (s *Service) Login(ctx context.Context, userID, username, password string) (bool, string) {
	if s.IsLoggedIn(userID) {
		return true, "You are already logged in! You can start using the bot."
	}

	form := url.Values{}
	form.Set("email", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		s.log.Error("building login request", sl.Err(err))
		return false, "Sorry, I couldn't log you in. Please try again later."
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("login request", sl.Err(err))
		return false, "Sorry, I couldn't log you in. Please try again later."
	}
	defer resp.Body.Close()

	var body loginResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	cookies := make(map[string]string)
	for _, cookie := range resp.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}

	if resp.StatusCode != http.StatusOK || !body.Success || cookies[csrfCookie] == "" || cookies[sessionCookie] == "" {
		s.log.Warn("login rejected",
			slog.Int("status", resp.StatusCode),
			sl.Secret("username", username),
		)
		return false, "Login failed. Please try again."
	}

	session := &entity.Session{
		UserID:    userID,
		Username:  username,
		Cookies:   cookies,
		Token:     body.Token,
		LastLogin: time.Now(),
	}

	s.mu.Lock()
	s.sessions[userID] = session
	s.mu.Unlock()

	if s.repository != nil {
		if err := s.repository.UpsertSession(ctx, session); err != nil {
			s.log.Error("persisting session", sl.Err(err))
		}
	}

	s.log.Info("user logged in", slog.String("user_id", userID))
	return true, "Login successful! You can now chat with me and use all available commands."
}

// IsLoggedIn reports whether the user holds a usable session bundle.
func (s *Service) IsLoggedIn(userID string) bool {
	return s.Session(userID).Valid()
}

// Session returns the user's credential bundle, or nil.
func (s *Service) Session(userID string) *entity.Session {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return session
	}

	if s.repository == nil {
		return nil
	}
	session, err := s.repository.GetSession(context.Background(), userID)
	if err != nil {
		s.log.Error("loading session", slog.String("user_id", userID), sl.Err(err))
		return nil
	}
	if session == nil {
		return nil
	}

	s.mu.Lock()
	s.sessions[userID] = session
	s.mu.Unlock()
	return session
}

// Token returns the user's CSRF-style token, if logged in.
func (s *Service) Token(userID string) string {
	if session := s.Session(userID); session != nil {
		return session.Token
	}
	return ""
}

// Invalidate drops the user's session bundle everywhere.
func (s *Service) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	if s.repository != nil {
		if err := s.repository.DeleteSession(context.Background(), userID); err != nil {
			s.log.Error("deleting session", slog.String("user_id", userID), sl.Err(err))
		}
	}
	s.log.Info("session invalidated", slog.String("user_id", userID))
}

// Logout is Invalidate with a user-facing result.
func (s *Service) Logout(userID string) (bool, string) {
	if !s.IsLoggedIn(userID) {
		return false, "You are not logged in."
	}
	s.Invalidate(userID)
	return true, "You have been logged out successfully."
}
