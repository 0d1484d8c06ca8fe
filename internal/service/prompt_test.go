package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitwisdom/site-assistant/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	history := []model.HistoryTurn{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "Hello!"},
	}

	prompt := BuildPrompt("What do you offer?", "Frequently Asked Questions:\n\nQ1: a\nA1: b\n\n", history)

	assert.True(t, strings.HasPrefix(prompt, "You are a helpful customer support assistant for BitWisdom"))
	assert.Contains(t, prompt, "6. Focus on BitWisdom's products and services\n\nCONTEXT INFORMATION:\nFrequently Asked Questions:")
	assert.Contains(t, prompt, "CONVERSATION HISTORY:\nUser: hi\nAssistant: Hello!\n\nUSER QUESTION: What do you offer?")
	assert.True(t, strings.HasSuffix(prompt, "\n\nPlease provide a helpful response:"))
}

func TestBuildPromptWithoutContext(t *testing.T) {
	prompt := BuildPrompt("hello", "", nil)
	assert.NotContains(t, prompt, "CONTEXT INFORMATION")
	assert.Contains(t, prompt, "CONVERSATION HISTORY:\n\n\nUSER QUESTION: hello")
}

func TestBuildPromptKeepsLastTenTurns(t *testing.T) {
	var history []model.HistoryTurn
	for i := 1; i <= 15; i++ {
		role := model.RoleUser
		if i%2 == 0 {
			role = model.RoleAssistant
		}
		history = append(history, model.HistoryTurn{Role: role, Content: fmt.Sprintf("turn-%02d", i)})
	}

	prompt := BuildPrompt("latest", "", history)

	for i := 1; i <= 5; i++ {
		assert.NotContains(t, prompt, fmt.Sprintf("turn-%02d", i))
	}
	for i := 6; i <= 15; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("turn-%02d", i))
	}
	assert.Len(t, RecentHistory(history), MaxHistoryTurns)
}
