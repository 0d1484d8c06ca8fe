package service

import (
	"strings"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// MaxHistoryTurns is how many prior messages reach the prompt.
const MaxHistoryTurns = 10

const promptPreamble = `You are a helpful customer support assistant for BitWisdom, a cryptocurrency and blockchain technology company.

IMPORTANT INSTRUCTIONS:
1. Be friendly, professional, and helpful
2. Keep responses concise but informative
3. Use the provided context to answer questions accurately
4. If you don't know something, admit it and offer to connect the user with human support
5. Never make up information
6. Focus on BitWisdom's products and services

`

// BuildPrompt assembles the single completion prompt.
func BuildPrompt(message, contextText string, history []model.HistoryTurn) string {
	var b strings.Builder
	b.WriteString(promptPreamble)

	if contextText != "" {
		b.WriteString("CONTEXT INFORMATION:\n")
		b.WriteString(contextText)
		b.WriteString("\n")
	}

	b.WriteString("\n\nCONVERSATION HISTORY:\n")
	recent := RecentHistory(history)
	for i, turn := range recent {
		if i > 0 {
			b.WriteString("\n")
		}
		if turn.Role == model.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Content)
	}

	b.WriteString("\n\nUSER QUESTION: ")
	b.WriteString(message)
	b.WriteString("\n\nPlease provide a helpful response:")

	return b.String()
}

// RecentHistory keeps the last MaxHistoryTurns messages.
func RecentHistory(history []model.HistoryTurn) []model.HistoryTurn {
	if len(history) > MaxHistoryTurns {
		return history[len(history)-MaxHistoryTurns:]
	}
	return history
}
