package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the chatbot understands.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatSession is the stored history of one browser session.
type ChatSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"sessionId" json:"sessionId"`
	Messages  []SessionMessage   `bson:"messages" json:"messages"`
	Metadata  SessionMetadata    `bson:"metadata" json:"metadata"`
	Resolved  bool               `bson:"resolved" json:"resolved"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SessionMessage is one stored chat message.
type SessionMessage struct {
	Role      Role      `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// SessionMetadata is a best-effort snapshot of the latest request.
type SessionMetadata struct {
	UserAgent string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	IPAddress string `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	Referrer  string `bson:"referrer,omitempty" json:"referrer,omitempty"`
}

// HistoryTurn is a prior message supplied by the client.
type HistoryTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SendMessageRequest is the public chatbot request.
type SendMessageRequest struct {
	Message             string        `json:"message"`
	SessionID           string        `json:"sessionId"`
	ConversationHistory []HistoryTurn `json:"conversationHistory"`
}

// Sources tells the widget which knowledge sources informed an answer.
type Sources struct {
	FAQs    bool `json:"faqs"`
	Website bool `json:"website"`
}

// ChatReply is the public chatbot answer.
type ChatReply struct {
	Message string  `json:"message"`
	Sources Sources `json:"sources"`
}

// Pagination describes a page of admin results.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// SessionPage is the admin session history listing.
type SessionPage struct {
	Chats      []ChatSession `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// TurnEvent is the analytics event emitted for each recorded turn.
type TurnEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	UserChars  int       `json:"user_chars"`
	ReplyChars int       `json:"reply_chars"`
	Mode       string    `json:"mode"`
	Sources    Sources   `json:"sources"`
	CreatedAt  time.Time `json:"created_at"`
}

// CrawlPageResult is the outcome of scraping one URL.
type CrawlPageResult struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Title   string `json:"title,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CrawlResult summarises a crawl run.
type CrawlResult struct {
	TotalScraped int               `json:"totalScraped"`
	Results      []CrawlPageResult `json:"results"`
}

// CrawlRequest is the admin request to crawl a site.
type CrawlRequest struct {
	BaseURL  string `json:"baseUrl"`
	MaxPages int    `json:"maxPages,omitempty"`
}
