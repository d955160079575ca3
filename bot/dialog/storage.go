package dialog

import "context"

// StateRepository defines the database operations for conversation state.
type StateRepository interface {
	SaveDialogState(ctx context.Context, state *ConversationState) error
	SaveDialogStateIfAbsent(ctx context.Context, state *ConversationState) (bool, error)
	LoadDialogState(ctx context.Context, chatID string) (*ConversationState, error)
	DeleteDialogState(ctx context.Context, chatID string) error
}

// MongoStore adapts the database repository to the Store interface for
// deployments that want conversations to survive a restart.
type MongoStore struct {
	repo StateRepository
}

// NewMongoStore creates a MongoDB-backed conversation store.
func NewMongoStore(repo StateRepository) *MongoStore {
	return &MongoStore{repo: repo}
}

func (s *MongoStore) Load(ctx context.Context, chatID string) (*ConversationState, error) {
	return s.repo.LoadDialogState(ctx, chatID)
}

func (s *MongoStore) Save(ctx context.Context, state *ConversationState) error {
	return s.repo.SaveDialogState(ctx, state)
}

func (s *MongoStore) SaveIfAbsent(ctx context.Context, state *ConversationState) (bool, error) {
	return s.repo.SaveDialogStateIfAbsent(ctx, state)
}

func (s *MongoStore) Delete(ctx context.Context, chatID string) error {
	return s.repo.DeleteDialogState(ctx, chatID)
}
