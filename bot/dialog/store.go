package dialog

import (
	"context"
	"sync"
	"time"
)

// Store holds the per-chat conversation states. Different chats are fully
// independent; same-key operations must not corrupt state even under the
// concurrency the transport is not supposed to produce.
type Store interface {
	Load(ctx context.Context, chatID string) (*ConversationState, error)
	Save(ctx context.Context, state *ConversationState) error
	// SaveIfAbsent creates the state only when the chat has none yet and
	// reports whether it did. This is the atomic check-and-set guarding
	// against double conversation starts.
	SaveIfAbsent(ctx context.Context, state *ConversationState) (bool, error)
	Delete(ctx context.Context, chatID string) error
}

// MemoryStore is the default in-process store. Conversation state does not
// survive a restart, which is acceptable for live dialogues.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*ConversationState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*ConversationState)}
}

func (s *MemoryStore) Load(ctx context.Context, chatID string) (*ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	// Hand out a copy so callers mutate freely and commit via Save.
	clone := *state
	clone.Stored = append([]StoredField(nil), state.Stored...)
	return &clone, nil
}

func (s *MemoryStore) Save(ctx context.Context, state *ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.UpdatedAt = time.Now()
	clone := *state
	clone.Stored = append([]StoredField(nil), state.Stored...)
	s.states[state.ChatID] = &clone
	return nil
}

func (s *MemoryStore) SaveIfAbsent(ctx context.Context, state *ConversationState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[state.ChatID]; exists {
		return false, nil
	}
	state.UpdatedAt = time.Now()
	clone := *state
	clone.Stored = append([]StoredField(nil), state.Stored...)
	s.states[state.ChatID] = &clone
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
	return nil
}
