package entity

import "time"

// DialogEvent direction markers.
const (
	EventIncoming = "incoming"
	EventOutgoing = "outgoing"
)

// DialogEvent is one transcript entry published to observers (the CRM
// websocket hub). It mirrors what the transport saw, after ASR if any.
type DialogEvent struct {
	ID        string    `json:"id" bson:"id"`
	Direction string    `json:"direction" bson:"direction"`
	Platform  string    `json:"platform" bson:"platform"`
	ChatID    string    `json:"chat_id" bson:"chat_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Command   string    `json:"command,omitempty" bson:"command,omitempty"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
