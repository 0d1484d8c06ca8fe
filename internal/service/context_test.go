package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

func newTestComposer(faqs *fakeFAQRepo, content *fakeContentRepo) (*Composer, *Dispatcher) {
	log := logger.NewNop()
	background := NewDispatcher(log)
	return NewComposer(NewSearcher(faqs, content, log), faqs, background, testTracer(), log), background
}

func TestFormatContext(t *testing.T) {
	faqs := []model.FAQ{
		{Question: "What is BitWisdom?", Answer: "A crypto company."},
		{Question: "Where are you?", Answer: "Online."},
	}
	content := []model.ContentEntry{
		{Title: "Home", Content: "Welcome to BitWisdom"},
	}

	want := "Frequently Asked Questions:\n\n" +
		"Q1: What is BitWisdom?\nA1: A crypto company.\n\n" +
		"Q2: Where are you?\nA2: Online.\n\n" +
		"Website Information:\n\n" +
		"1. Home\nWelcome to BitWisdom...\n\n"
	assert.Equal(t, want, FormatContext(faqs, content))

	assert.Equal(t, "", FormatContext(nil, nil))
	assert.True(t, strings.HasPrefix(FormatContext(nil, content), "Website Information:"))
}

func TestSnippetIsBounded(t *testing.T) {
	long := strings.Repeat("é", 800)
	assert.Equal(t, 500, len([]rune(Snippet(long, SnippetLength))))
	assert.Equal(t, "short", Snippet("short", SnippetLength))

	text := FormatContext(nil, []model.ContentEntry{{Title: "T", Content: long}})
	assert.Equal(t, "Website Information:\n\n1. T\n"+strings.Repeat("é", 500)+"...\n\n", text)
}

func TestComposerBuild(t *testing.T) {
	faq := &model.FAQ{Question: "how do i get started?", Answer: "Sign up.", IsActive: true}
	repo := newFakeFAQRepo(faq)
	content := &fakeContentRepo{entries: []model.ContentEntry{{Title: "Start", Content: "Getting started guide"}}}
	composer, background := newTestComposer(repo, content)

	kc := composer.Build(context.Background(), "How do I get started?")
	require.NoError(t, background.Wait(context.Background()))

	assert.True(t, kc.HasFAQ())
	assert.True(t, kc.HasWebContent())
	assert.Equal(t, model.Sources{FAQs: true, Website: true}, kc.Sources())
	assert.Contains(t, kc.Text, "A1: Sign up.")
	assert.Contains(t, kc.Text, "1. Start\nGetting started guide...")
	assert.Equal(t, []primitive.ObjectID{faq.ID}, repo.viewed)
	assert.EqualValues(t, 1, faq.Views)
}

func TestComposerBoundsMatches(t *testing.T) {
	var faqs []*model.FAQ
	for i := 0; i < 10; i++ {
		faqs = append(faqs, &model.FAQ{Question: "q", Answer: "a", Keywords: []string{"wallet"}, IsActive: true})
	}
	entries := make([]model.ContentEntry, 10)
	for i := range entries {
		entries[i] = model.ContentEntry{Title: "p", Content: strings.Repeat("x", 2000)}
	}
	composer, background := newTestComposer(newFakeFAQRepo(faqs...), &fakeContentRepo{entries: entries})

	kc := composer.Build(context.Background(), "wallet setup")
	require.NoError(t, background.Wait(context.Background()))

	assert.Len(t, kc.FAQs, MaxFAQMatches)
	assert.Len(t, kc.Content, MaxContentMatches)
	assert.NotContains(t, kc.Text, strings.Repeat("x", SnippetLength+1))
}

func TestComposerFlagsAreIndependent(t *testing.T) {
	composer, _ := newTestComposer(newFakeFAQRepo(), &fakeContentRepo{entries: []model.ContentEntry{{Title: "A", Content: "B"}}})

	kc := composer.Build(context.Background(), "zz")
	assert.False(t, kc.HasFAQ())
	assert.True(t, kc.HasWebContent())
}

func TestComposerViewsFailureIsSwallowed(t *testing.T) {
	repo := newFakeFAQRepo(&model.FAQ{Question: "pricing", Answer: "From 99.", IsActive: true})
	repo.viewsErr = errors.New("write conflict")
	composer, background := newTestComposer(repo, &fakeContentRepo{})

	kc := composer.Build(context.Background(), "pricing")
	require.NoError(t, background.Wait(context.Background()))

	require.True(t, kc.HasFAQ())
	assert.Equal(t, "From 99.", kc.FAQs[0].Answer)
}
