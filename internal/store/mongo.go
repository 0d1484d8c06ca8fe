// Package store provides the MongoDB-backed knowledge and session stores.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// Collection names
const (
	CollectionFAQs           = "faqs"
	CollectionWebsiteContent = "websitecontents"
	CollectionChatHistories  = "chathistories"
)

// SessionRetention is how long a chat session lives after creation.
const SessionRetention = 30 * 24 * time.Hour

const defaultDatabase = "bitwisdom"

// MongoDB wraps the MongoDB client and database.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *logger.Logger
}

// Connect opens a pooled MongoDB connection and verifies it with a ping.
// dbName overrides the database named in the URI path.
func Connect(ctx context.Context, uri, dbName string, log *logger.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if dbName == "" {
		dbName = DatabaseFromURI(uri)
	}

	log.Info("connected to MongoDB", zap.String("database", dbName))

	return &MongoDB{
		client:   client,
		database: client.Database(dbName),
		logger:   log,
	}, nil
}

// DatabaseFromURI extracts the database name from the URI path, falling back
// to the default database.
func DatabaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return defaultDatabase
	}
	return name
}

// Initialize creates the indexes the stores depend on: text indexes for
// relevance search, natural-key indexes, and the session TTL.
func (m *MongoDB) Initialize(ctx context.Context) error {
	if err := m.createIndexes(ctx, CollectionFAQs, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "question", Value: "text"},
				{Key: "answer", Value: "text"},
				{Key: "keywords", Value: "text"},
			},
			Options: options.Index().SetName("faq_text"),
		},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "keywords", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "priority", Value: -1}, {Key: "views", Value: -1}}},
		{Keys: bson.D{{Key: "question", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create faqs indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionWebsiteContent, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "content", Value: "text"},
			},
			Options: options.Index().SetName("content_text"),
		},
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create websitecontents indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionChatHistories, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(SessionRetention.Seconds())),
		},
	}); err != nil {
		return fmt.Errorf("failed to create chathistories indexes: %w", err)
	}

	m.logger.Info("MongoDB indexes initialized")
	return nil
}

func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	_, err := m.database.Collection(collectionName).Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle.
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Database returns the underlying database handle.
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Ping checks if the database connection is alive.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close closes the MongoDB connection.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
