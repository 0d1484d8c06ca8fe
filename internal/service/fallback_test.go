package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwisdom/site-assistant/internal/model"
)

func TestFallbackAlwaysAnswers(t *testing.T) {
	messages := []string{
		"",
		"   ",
		"hello",
		"zzzz qqqq",
		"¿Qué tal?",
		"What does it cost to run a validator?",
		"🚀🚀🚀",
	}
	for _, msg := range messages {
		reply, rule := Fallback(msg, &KnowledgeContext{})
		require.NotNil(t, reply, msg)
		assert.NotEmpty(t, reply.Message, msg)
		assert.NotEmpty(t, rule, msg)
	}

	reply, rule := Fallback("zzzz", nil)
	assert.Equal(t, MenuMessage, reply.Message)
	assert.Equal(t, RuleMenu, rule)
}

func TestFallbackUsesFirstFAQAnswer(t *testing.T) {
	kc := &KnowledgeContext{
		FAQs: []model.FAQ{
			{Question: "How do I get started?", Answer: "Fill out the qualifying form."},
			{Question: "Second", Answer: "Second answer"},
		},
		Content: []model.ContentEntry{{Title: "Home", Content: "Welcome"}},
	}

	reply, rule := Fallback("hello there", kc)
	assert.Equal(t, RuleFAQ, rule)
	assert.Equal(t, "Fill out the qualifying form.", reply.Message)
	assert.Equal(t, model.Sources{FAQs: true, Website: false}, reply.Sources)
}

func TestFallbackMultilineFAQAnswerIsVerbatim(t *testing.T) {
	answer := "Two options:\n\n1. Laptop\n2. Mobile"
	kc := &KnowledgeContext{FAQs: []model.FAQ{{Question: "Options?", Answer: answer}}}

	reply, _ := Fallback("options", kc)
	assert.Equal(t, answer, reply.Message)
}

func TestFallbackCategoryPrecedence(t *testing.T) {
	tests := []struct {
		message string
		rule    string
	}{
		{"Hello, what is the price of node hosting?", "greeting"},
		{"What is the price of node hosting?", "pricing"},
		{"Which services do you provide?", "greeting"}, // "which" contains "hi"
		{"What services do you provide?", "services"},
		{"How much does mining cost?", "pricing"},
		{"How do I register?", "start"},
		{"Can I email someone?", "contact"},
		{"Tell me about validator nodes", "node"},
		{"Is Bitcoin accepted?", "crypto"},
		{"Shopify plugin?", "integration"},
		{"qwerty", RuleMenu},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply, rule := Fallback(tt.message, &KnowledgeContext{})
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, model.Sources{}, reply.Sources)
		})
	}
}

func TestFallbackCategoriesOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"greeting", "services", "pricing", "start", "contact", "node", "crypto", "integration"},
		FallbackCategories(),
	)
}
