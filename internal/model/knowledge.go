// Package model defines data structures for the site assistant.
package model

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by repositories when a document does not exist.
var ErrNotFound = errors.New("not found")

// DefaultCategory is applied to FAQs created without a category.
const DefaultCategory = "General"

// FAQ is a question/answer pair in the knowledge base.
type FAQ struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	Category  string             `bson:"category" json:"category"`
	Keywords  []string           `bson:"keywords" json:"keywords"`
	Priority  int                `bson:"priority" json:"priority"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	Views     int64              `bson:"views" json:"views"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Score is the text relevance score, only populated by text search.
	Score float64 `bson:"score,omitempty" json:"-"`
}

// Heading is one h1-h6 element of a scraped page.
type Heading struct {
	Level int    `bson:"level" json:"level"`
	Text  string `bson:"text" json:"text"`
}

// ContentEntry is the stored, boilerplate-stripped text of one crawled page.
type ContentEntry struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	URL             string             `bson:"url" json:"url"`
	Title           string             `bson:"title" json:"title"`
	MetaDescription string             `bson:"metaDescription" json:"metaDescription"`
	Content         string             `bson:"content" json:"content"`
	Headings        []Heading          `bson:"headings" json:"headings"`
	LastScraped     time.Time          `bson:"lastScraped" json:"lastScraped"`
	IsActive        bool               `bson:"isActive" json:"isActive"`

	Score float64 `bson:"score,omitempty" json:"-"`
}

// CreateFAQRequest is the admin request to create an FAQ.
type CreateFAQRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Priority int      `json:"priority,omitempty"`
}

// UpdateFAQRequest is a partial FAQ update; nil fields are left untouched.
type UpdateFAQRequest struct {
	Question *string   `json:"question,omitempty"`
	Answer   *string   `json:"answer,omitempty"`
	Category *string   `json:"category,omitempty"`
	Keywords *[]string `json:"keywords,omitempty"`
	Priority *int      `json:"priority,omitempty"`
	IsActive *bool     `json:"isActive,omitempty"`
}

// Empty reports whether the update carries no fields.
func (r *UpdateFAQRequest) Empty() bool {
	return r.Question == nil && r.Answer == nil && r.Category == nil &&
		r.Keywords == nil && r.Priority == nil && r.IsActive == nil
}

// FAQSeed is one entry of the knowledge-base seed file.
type FAQSeed struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Priority *int     `yaml:"priority,omitempty"`
}

// QuestionAnswer is the browse-panel projection of an FAQ.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// NormalizeKeywords lower-cases and trims keywords, dropping empties and
// duplicates while keeping first-seen order.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
