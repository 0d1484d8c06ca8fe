package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// ContentStore persists scraped website content.
type ContentStore struct {
	collection *mongo.Collection
}

// NewContentStore creates a new content store.
func NewContentStore(db *MongoDB) *ContentStore {
	return &ContentStore{collection: db.Collection(CollectionWebsiteContent)}
}

// TextSearch runs a full-text search over title and content of active
// pages, most relevant first.
func (s *ContentStore) TextSearch(ctx context.Context, query string, limit int) ([]model.ContentEntry, error) {
	filter := bson.M{
		"$text":    bson.M{"$search": query},
		"isActive": true,
	}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search content: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []model.ContentEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return entries, nil
}

// Upsert creates or overwrites the entry for entry.URL.
func (s *ContentStore) Upsert(ctx context.Context, entry *model.ContentEntry) error {
	headings := entry.Headings
	if headings == nil {
		headings = []model.Heading{}
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"url": entry.URL},
		bson.M{"$set": bson.M{
			"url":             entry.URL,
			"title":           entry.Title,
			"metaDescription": entry.MetaDescription,
			"content":         entry.Content,
			"headings":        headings,
			"lastScraped":     entry.LastScraped,
			"isActive":        entry.IsActive,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert content for %s: %w", entry.URL, err)
	}
	return nil
}
