package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// SessionStore persists chat session histories.
type SessionStore struct {
	collection *mongo.Collection
}

// NewSessionStore creates a new session store.
func NewSessionStore(db *MongoDB) *SessionStore {
	return &SessionStore{collection: db.Collection(CollectionChatHistories)}
}

// AppendTurn appends messages to the session in a single atomic update,
// creating the session on first use and replacing its metadata.
func (s *SessionStore) AppendTurn(ctx context.Context, sessionID string, messages []model.SessionMessage, meta model.SessionMetadata) error {
	now := time.Now()

	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set": bson.M{
			"metadata":  meta,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"resolved":  false,
			"createdAt": now,
		},
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"sessionId": sessionID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to append chat turn: %w", err)
	}
	return nil
}

// Get returns one session by its id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// List returns a page of sessions, newest first, and the total count.
func (s *SessionStore) List(ctx context.Context, page, limit int) ([]model.ChatSession, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []model.ChatSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode sessions: %w", err)
	}

	total, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return sessions, total, nil
}
