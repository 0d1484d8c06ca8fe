// Package service implements the chatbot answer pipeline and the knowledge
// base administration around it.
package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// FAQRepository is the FAQ side of the knowledge store.
type FAQRepository interface {
	TextSearch(ctx context.Context, query string, limit int) ([]model.FAQ, error)
	KeywordSearch(ctx context.Context, keywords []string, limit int) ([]model.FAQ, error)
	IncrementViews(ctx context.Context, ids []primitive.ObjectID) error
	TopActive(ctx context.Context, limit int) ([]model.FAQ, error)
	ListActive(ctx context.Context) ([]model.FAQ, error)
	ListAll(ctx context.Context) ([]model.FAQ, error)
	CountActive(ctx context.Context) (int64, error)
	FindByQuestion(ctx context.Context, question string) (*model.FAQ, error)
	Create(ctx context.Context, faq *model.FAQ) error
	Update(ctx context.Context, id primitive.ObjectID, req *model.UpdateFAQRequest) (*model.FAQ, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ContentRepository is the scraped-content side of the knowledge store.
type ContentRepository interface {
	TextSearch(ctx context.Context, query string, limit int) ([]model.ContentEntry, error)
}

// SessionRepository stores chat session histories.
type SessionRepository interface {
	AppendTurn(ctx context.Context, sessionID string, messages []model.SessionMessage, meta model.SessionMetadata) error
	List(ctx context.Context, page, limit int) ([]model.ChatSession, int64, error)
}

// TurnPublisher emits analytics events for recorded turns.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) error
}
