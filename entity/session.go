package entity

import "time"

// Session is the opaque credential bundle a logged-in user holds against
// the backend: its cookie set plus the CSRF-style token the backend issued
// at login. The dialogue engine never looks inside it.
type Session struct {
	UserID    string            `json:"user_id" bson:"user_id"`
	Username  string            `json:"username" bson:"username"`
	Cookies   map[string]string `json:"cookies" bson:"cookies"`
	Token     string            `json:"token" bson:"token"`
	LastLogin time.Time         `json:"last_login" bson:"last_login"`
}

// Valid reports whether the bundle carries usable cookies.
func (s *Session) Valid() bool {
	return s != nil && len(s.Cookies) > 0
}
