package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bitwisdom/site-assistant/internal/model"
)

const (
	// MaxMessageLength bounds a chat message in characters.
	MaxMessageLength = 4000
	// MaxSessionIDLength bounds the client-chosen session id.
	MaxSessionIDLength = 128
	// MaxHistoryEntries bounds the history accepted from the client.
	MaxHistoryEntries = 50
)

// ValidateMessageContent validates a trimmed chat message.
func ValidateMessageContent(content string) error {
	if content == "" {
		return errors.New("message is required")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	return nil
}

// ValidateSessionID validates an optional session id.
func ValidateSessionID(id string) error {
	if len(id) > MaxSessionIDLength {
		return errors.New("session ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("session ID must be valid UTF-8")
	}
	return nil
}

// ValidateSendMessage trims and validates a chat request in place and
// drops history entries the pipeline cannot use.
func ValidateSendMessage(req *model.SendMessageRequest) error {
	req.Message = strings.TrimSpace(req.Message)
	if err := ValidateMessageContent(req.Message); err != nil {
		return err
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := ValidateSessionID(req.SessionID); err != nil {
		return err
	}
	req.ConversationHistory = SanitizeHistory(req.ConversationHistory)
	return nil
}

// SanitizeHistory keeps entries with a known role and non-empty valid
// content, at most the most recent MaxHistoryEntries.
func SanitizeHistory(history []model.HistoryTurn) []model.HistoryTurn {
	out := make([]model.HistoryTurn, 0, len(history))
	for _, turn := range history {
		if !turn.Role.Valid() {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" || !utf8.ValidString(turn.Content) {
			continue
		}
		out = append(out, turn)
	}
	if len(out) > MaxHistoryEntries {
		out = out[len(out)-MaxHistoryEntries:]
	}
	return out
}

// ValidateObjectID validates a document id path parameter.
func ValidateObjectID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return errors.New("invalid ID format")
	}
	return nil
}
