package dialog

import (
	"strings"
	"time"
)

// StoredField is one recorded answer, keyed by the step id that captured
// it. Fields keep insertion order so {summary} renders deterministically;
// re-recording an existing field updates it in place.
type StoredField struct {
	StepID string `json:"step_id" bson:"step_id"`
	Value  string `json:"value" bson:"value"`
}

// ConversationState is the live position of one ongoing dialogue for one
// chat. It exists from the moment a scripted command is matched until the
// dialogue terminates; absence means the chat is idle.
type ConversationState struct {
	ChatID     string        `json:"chat_id" bson:"chat_id"`
	UserID     string        `json:"user_id" bson:"user_id"`
	CommandKey string        `json:"command_key" bson:"command_key"`
	StepIndex  int           `json:"step_index" bson:"step_index"`
	Stored     []StoredField `json:"stored" bson:"stored"`

	// PendingReturn is set when a branch was taken to edit a single field
	// and the dialogue must loop back to the confirmation step afterwards.
	PendingReturn bool `json:"pending_return" bson:"pending_return"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewConversationState creates a state positioned at the first step.
func NewConversationState(chatID, userID, commandKey string) *ConversationState {
	return &ConversationState{
		ChatID:     chatID,
		UserID:     userID,
		CommandKey: commandKey,
		UpdatedAt:  time.Now(),
	}
}

// SetStored records an answer under the given step id, replacing an
// earlier value for the same id without moving it.
func (s *ConversationState) SetStored(stepID, value string) {
	for i := range s.Stored {
		if s.Stored[i].StepID == stepID {
			s.Stored[i].Value = value
			return
		}
	}
	s.Stored = append(s.Stored, StoredField{StepID: stepID, Value: value})
}

// GetStored returns the recorded answer for a step id, if any.
func (s *ConversationState) GetStored(stepID string) (string, bool) {
	for i := range s.Stored {
		if s.Stored[i].StepID == stepID {
			return s.Stored[i].Value, true
		}
	}
	return "", false
}

// StoredMap returns the recorded answers as a map for templating.
func (s *ConversationState) StoredMap() map[string]string {
	m := make(map[string]string, len(s.Stored))
	for i := range s.Stored {
		m[s.Stored[i].StepID] = s.Stored[i].Value
	}
	return m
}

// Summary renders the stored answers as "id: value" lines in the order
// they were first recorded.
func (s *ConversationState) Summary() string {
	lines := make([]string, 0, len(s.Stored))
	for i := range s.Stored {
		lines = append(lines, s.Stored[i].StepID+": "+s.Stored[i].Value)
	}
	return strings.Join(lines, "\n")
}
