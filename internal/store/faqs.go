package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// FAQStore persists FAQ entries.
type FAQStore struct {
	collection *mongo.Collection
}

// NewFAQStore creates a new FAQ store.
func NewFAQStore(db *MongoDB) *FAQStore {
	return &FAQStore{collection: db.Collection(CollectionFAQs)}
}

// TextSearch runs a full-text search over question, answer and keywords of
// active FAQs, most relevant first. Priority breaks relevance ties.
func (s *FAQStore) TextSearch(ctx context.Context, query string, limit int) ([]model.FAQ, error) {
	filter := bson.M{
		"$text":    bson.M{"$search": query},
		"isActive": true,
	}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
			{Key: "priority", Value: -1},
		}).
		SetLimit(int64(limit))

	return s.find(ctx, filter, opts)
}

// KeywordSearch returns active FAQs whose keyword set intersects keywords,
// highest priority first.
func (s *FAQStore) KeywordSearch(ctx context.Context, keywords []string, limit int) ([]model.FAQ, error) {
	filter := bson.M{
		"isActive": true,
		"keywords": bson.M{"$in": keywords},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "priority", Value: -1}}).
		SetLimit(int64(limit))

	return s.find(ctx, filter, opts)
}

// IncrementViews bumps the views counter of every listed FAQ.
func (s *FAQStore) IncrementViews(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment FAQ views: %w", err)
	}
	return nil
}

// TopActive returns active FAQs ordered by priority then views.
func (s *FAQStore) TopActive(ctx context.Context, limit int) ([]model.FAQ, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "views", Value: -1}}).
		SetProjection(bson.M{"question": 1, "priority": 1, "views": 1}).
		SetLimit(int64(limit))

	return s.find(ctx, bson.M{"isActive": true}, opts)
}

// ListActive returns all active FAQs ordered by category then priority.
func (s *FAQStore) ListActive(ctx context.Context) ([]model.FAQ, error) {
	return s.find(ctx, bson.M{"isActive": true}, sortByCategory())
}

// ListAll returns every FAQ, including inactive ones.
func (s *FAQStore) ListAll(ctx context.Context) ([]model.FAQ, error) {
	return s.find(ctx, bson.M{}, sortByCategory())
}

// CountActive counts active FAQs.
func (s *FAQStore) CountActive(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count FAQs: %w", err)
	}
	return n, nil
}

// FindByQuestion looks up an FAQ by its exact question text.
func (s *FAQStore) FindByQuestion(ctx context.Context, question string) (*model.FAQ, error) {
	var faq model.FAQ
	err := s.collection.FindOne(ctx, bson.M{"question": question}).Decode(&faq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find FAQ: %w", err)
	}
	return &faq, nil
}

// Create inserts a new FAQ and sets its ID.
func (s *FAQStore) Create(ctx context.Context, faq *model.FAQ) error {
	now := time.Now()
	faq.CreatedAt = now
	faq.UpdatedAt = now

	result, err := s.collection.InsertOne(ctx, faq)
	if err != nil {
		return fmt.Errorf("failed to create FAQ: %w", err)
	}
	faq.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Update applies a partial update and returns the updated FAQ.
func (s *FAQStore) Update(ctx context.Context, id primitive.ObjectID, req *model.UpdateFAQRequest) (*model.FAQ, error) {
	set := bson.M{"updatedAt": time.Now()}
	if req.Question != nil {
		set["question"] = *req.Question
	}
	if req.Answer != nil {
		set["answer"] = *req.Answer
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Keywords != nil {
		set["keywords"] = *req.Keywords
	}
	if req.Priority != nil {
		set["priority"] = *req.Priority
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var faq model.FAQ
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&faq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update FAQ: %w", err)
	}
	return &faq, nil
}

// Delete removes an FAQ.
func (s *FAQStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete FAQ: %w", err)
	}
	if result.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *FAQStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]model.FAQ, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query FAQs: %w", err)
	}
	defer cursor.Close(ctx)

	faqs := []model.FAQ{}
	if err := cursor.All(ctx, &faqs); err != nil {
		return nil, fmt.Errorf("failed to decode FAQs: %w", err)
	}
	return faqs, nil
}

func sortByCategory() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "priority", Value: -1}})
}
