package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

func strPtr(s string) *string { return &s }

func TestCreateFAQ(t *testing.T) {
	repo := newFakeFAQRepo()
	svc := NewKnowledgeService(repo, NewBrowseCache(BrowseCacheTTL), logger.NewNop())
	ctx := context.Background()

	faq, err := svc.CreateFAQ(ctx, &model.CreateFAQRequest{
		Question: "  How do refunds work? ",
		Answer:   "Within 14 days.",
		Keywords: []string{" Refund", "refund", "", "MONEY"},
	})
	require.NoError(t, err)

	assert.False(t, faq.ID.IsZero())
	assert.Equal(t, "How do refunds work?", faq.Question)
	assert.Equal(t, model.DefaultCategory, faq.Category)
	assert.Equal(t, []string{"refund", "money"}, faq.Keywords)
	assert.True(t, faq.IsActive)
	assert.Zero(t, faq.Views)

	_, err = svc.CreateFAQ(ctx, &model.CreateFAQRequest{Question: "q", Answer: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateFAQ(ctx, &model.CreateFAQRequest{Answer: "a"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateFAQ(t *testing.T) {
	existing := &model.FAQ{Question: "Old?", Answer: "Old.", Category: "Misc", Priority: 3, IsActive: true}
	repo := newFakeFAQRepo(existing)
	svc := NewKnowledgeService(repo, nil, logger.NewNop())
	ctx := context.Background()

	updated, err := svc.UpdateFAQ(ctx, existing.ID.Hex(), &model.UpdateFAQRequest{Answer: strPtr(" New. ")})
	require.NoError(t, err)
	assert.Equal(t, "New.", updated.Answer)
	assert.Equal(t, "Old?", updated.Question)
	assert.Equal(t, "Misc", updated.Category)
	assert.Equal(t, 3, updated.Priority)

	_, err = svc.UpdateFAQ(ctx, "not-an-id", &model.UpdateFAQRequest{Answer: strPtr("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateFAQ(ctx, primitive.NewObjectID().Hex(), &model.UpdateFAQRequest{Answer: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.UpdateFAQ(ctx, existing.ID.Hex(), &model.UpdateFAQRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateFAQ(ctx, existing.ID.Hex(), &model.UpdateFAQRequest{Question: strPtr(" ")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteFAQ(t *testing.T) {
	existing := &model.FAQ{Question: "Q", Answer: "A", IsActive: true}
	repo := newFakeFAQRepo(existing)
	svc := NewKnowledgeService(repo, nil, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.DeleteFAQ(ctx, existing.ID.Hex()))
	assert.ErrorIs(t, svc.DeleteFAQ(ctx, existing.ID.Hex()), model.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteFAQ(ctx, "zzz"), ErrInvalidInput)

	all, err := svc.ListFAQs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAdminWritesInvalidateBrowseCache(t *testing.T) {
	repo := newFakeFAQRepo()
	cache := NewBrowseCache(BrowseCacheTTL)
	cache.setQuickReplies([]string{"stale"})
	svc := NewKnowledgeService(repo, cache, logger.NewNop())

	_, err := svc.CreateFAQ(context.Background(), &model.CreateFAQRequest{Question: "q", Answer: "a"})
	require.NoError(t, err)

	_, ok := cache.quickReplies()
	assert.False(t, ok)
}

func TestSyncFAQs(t *testing.T) {
	existing := &model.FAQ{Question: "What is BitWisdom?", Answer: "Old answer", Category: "General", Priority: 9, IsActive: false}
	repo := newFakeFAQRepo(existing)
	svc := NewKnowledgeService(repo, nil, logger.NewNop())
	ctx := context.Background()

	two := 2
	result, err := svc.SyncFAQs(ctx, []model.FAQSeed{
		{Question: "What is BitWisdom?", Answer: "A crypto infrastructure company.", Category: "About", Keywords: []string{"About"}},
		{Question: "Do you host nodes?", Answer: "Yes.", Keywords: []string{"nodes"}},
		{Question: "Which chains?", Answer: "Bitcoin and Ethereum.", Category: "Crypto", Priority: &two},
	})
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Inserted: 2, Updated: 1}, result)

	updated, err := repo.FindByQuestion(ctx, "What is BitWisdom?")
	require.NoError(t, err)
	assert.Equal(t, "A crypto infrastructure company.", updated.Answer)
	assert.Equal(t, "About", updated.Category)
	assert.Equal(t, []string{"about"}, updated.Keywords)
	assert.True(t, updated.IsActive)
	assert.Equal(t, 9, updated.Priority)

	hosted, err := repo.FindByQuestion(ctx, "Do you host nodes?")
	require.NoError(t, err)
	assert.Equal(t, DefaultSeedPriority, hosted.Priority)
	assert.Equal(t, model.DefaultCategory, hosted.Category)

	chains, err := repo.FindByQuestion(ctx, "Which chains?")
	require.NoError(t, err)
	assert.Equal(t, 2, chains.Priority)

	again, err := svc.SyncFAQs(ctx, []model.FAQSeed{{Question: "Which chains?", Answer: "More now."}})
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Updated: 1}, again)
}

func TestSyncFAQsRejectsIncompleteSeed(t *testing.T) {
	svc := NewKnowledgeService(newFakeFAQRepo(), nil, logger.NewNop())

	_, err := svc.SyncFAQs(context.Background(), []model.FAQSeed{{Question: "No answer"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`faqs:
  - question: What is BitWisdom?
    answer: |
      A crypto company.
    category: About
    keywords: [about, company]
    priority: 10
  - question: Do you host nodes?
    answer: Yes.
`), 0o600))

	seeds, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "A crypto company.\n", seeds[0].Answer)
	require.NotNil(t, seeds[0].Priority)
	assert.Equal(t, 10, *seeds[0].Priority)
	assert.Nil(t, seeds[1].Priority)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedSeedFileIsComplete(t *testing.T) {
	seeds, err := LoadSeedFile(filepath.Join("..", "..", "configs", "faqs.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, seeds)

	questions := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		assert.NotEmpty(t, s.Question)
		assert.NotEmpty(t, s.Answer)
		assert.NotEmpty(t, s.Category, s.Question)
		assert.False(t, questions[s.Question], "duplicate question %q", s.Question)
		questions[s.Question] = true
	}
}
