package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"OrbitCS/bot/dialog"
)

// SaveDialogState persists a conversation state by chat_id.
func (m *MongoDB) SaveDialogState(ctx context.Context, state *dialog.ConversationState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(dialogStateCollection)

	state.UpdatedAt = time.Now()

	filter := bson.D{{Key: "chat_id", Value: state.ChatID}}
	update := bson.D{{Key: "$set", Value: state}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// SaveDialogStateIfAbsent creates the state only when the chat has none,
// reporting whether the insert happened.
func (m *MongoDB) SaveDialogStateIfAbsent(ctx context.Context, state *dialog.ConversationState) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(dialogStateCollection)

	state.UpdatedAt = time.Now()

	filter := bson.D{{Key: "chat_id", Value: state.ChatID}}
	update := bson.D{{Key: "$setOnInsert", Value: state}}
	opts := options.Update().SetUpsert(true)

	result, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return result.UpsertedCount > 0, nil
}

// LoadDialogState retrieves a conversation state by chat_id.
func (m *MongoDB) LoadDialogState(ctx context.Context, chatID string) (*dialog.ConversationState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(dialogStateCollection)

	filter := bson.D{{Key: "chat_id", Value: chatID}}

	var state dialog.ConversationState
	err = collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}

// DeleteDialogState removes a conversation state by chat_id.
func (m *MongoDB) DeleteDialogState(ctx context.Context, chatID string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(dialogStateCollection)

	filter := bson.D{{Key: "chat_id", Value: chatID}}

	_, err = collection.DeleteOne(ctx, filter)
	return err
}
