package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// ErrInvalidInput marks caller mistakes that map to 400.
var ErrInvalidInput = errors.New("invalid input")

// DefaultSeedPriority applies to synced FAQs whose seed names none.
const DefaultSeedPriority = 5

// SyncResult reports what a knowledge-base sync changed.
type SyncResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// KnowledgeService administers FAQ entries.
type KnowledgeService struct {
	faqs   FAQRepository
	cache  *BrowseCache
	logger *logger.Logger
}

// NewKnowledgeService creates a new knowledge service.
func NewKnowledgeService(faqs FAQRepository, browseCache *BrowseCache, log *logger.Logger) *KnowledgeService {
	return &KnowledgeService{
		faqs:   faqs,
		cache:  browseCache,
		logger: log.Named("knowledge"),
	}
}

// CreateFAQ validates and stores a new FAQ.
func (s *KnowledgeService) CreateFAQ(ctx context.Context, req *model.CreateFAQRequest) (*model.FAQ, error) {
	question := strings.TrimSpace(req.Question)
	answer := strings.TrimSpace(req.Answer)
	if question == "" || answer == "" {
		return nil, fmt.Errorf("%w: question and answer are required", ErrInvalidInput)
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = model.DefaultCategory
	}

	faq := &model.FAQ{
		Question: question,
		Answer:   answer,
		Category: category,
		Keywords: model.NormalizeKeywords(req.Keywords),
		Priority: req.Priority,
		IsActive: true,
	}
	if err := s.faqs.Create(ctx, faq); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Info("FAQ created", zap.String("id", faq.ID.Hex()), zap.String("category", faq.Category))
	return faq, nil
}

// UpdateFAQ applies a partial update.
func (s *KnowledgeService) UpdateFAQ(ctx context.Context, id string, req *model.UpdateFAQRequest) (*model.FAQ, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	if req.Question != nil {
		q := strings.TrimSpace(*req.Question)
		if q == "" {
			return nil, fmt.Errorf("%w: question cannot be empty", ErrInvalidInput)
		}
		req.Question = &q
	}
	if req.Answer != nil {
		a := strings.TrimSpace(*req.Answer)
		if a == "" {
			return nil, fmt.Errorf("%w: answer cannot be empty", ErrInvalidInput)
		}
		req.Answer = &a
	}
	if req.Category != nil {
		c := strings.TrimSpace(*req.Category)
		if c == "" {
			c = model.DefaultCategory
		}
		req.Category = &c
	}
	if req.Keywords != nil {
		k := model.NormalizeKeywords(*req.Keywords)
		req.Keywords = &k
	}

	faq, err := s.faqs.Update(ctx, oid, req)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	return faq, nil
}

// DeleteFAQ permanently removes an FAQ.
func (s *KnowledgeService) DeleteFAQ(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.faqs.Delete(ctx, oid); err != nil {
		return err
	}

	s.cache.Invalidate()
	s.logger.Info("FAQ deleted", zap.String("id", id))
	return nil
}

// ListFAQs returns every FAQ, including inactive ones.
func (s *KnowledgeService) ListFAQs(ctx context.Context) ([]model.FAQ, error) {
	return s.faqs.ListAll(ctx)
}

// SyncFAQs upserts seeds by exact question. Existing entries get the seed's
// answer, category and keywords and are re-activated; new ones are inserted
// with the seed priority.
func (s *KnowledgeService) SyncFAQs(ctx context.Context, seeds []model.FAQSeed) (*SyncResult, error) {
	result := &SyncResult{}
	defer s.cache.Invalidate()

	for i, seed := range seeds {
		question := strings.TrimSpace(seed.Question)
		answer := strings.TrimSpace(seed.Answer)
		if question == "" || answer == "" {
			return result, fmt.Errorf("%w: seed %d has no question or answer", ErrInvalidInput, i)
		}
		category := strings.TrimSpace(seed.Category)
		if category == "" {
			category = model.DefaultCategory
		}
		keywords := model.NormalizeKeywords(seed.Keywords)

		existing, err := s.faqs.FindByQuestion(ctx, question)
		switch {
		case err == nil:
			active := true
			if _, err := s.faqs.Update(ctx, existing.ID, &model.UpdateFAQRequest{
				Answer:   &answer,
				Category: &category,
				Keywords: &keywords,
				IsActive: &active,
			}); err != nil {
				return result, fmt.Errorf("failed to update FAQ %q: %w", question, err)
			}
			result.Updated++

		case errors.Is(err, model.ErrNotFound):
			priority := DefaultSeedPriority
			if seed.Priority != nil {
				priority = *seed.Priority
			}
			if err := s.faqs.Create(ctx, &model.FAQ{
				Question: question,
				Answer:   answer,
				Category: category,
				Keywords: keywords,
				Priority: priority,
				IsActive: true,
			}); err != nil {
				return result, fmt.Errorf("failed to insert FAQ %q: %w", question, err)
			}
			result.Inserted++

		default:
			return result, err
		}
	}

	s.logger.Info("FAQ sync complete",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

// LoadSeedFile reads FAQ seeds from a YAML file with a top-level "faqs"
// list.
func LoadSeedFile(path string) ([]model.FAQSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file struct {
		FAQs []model.FAQSeed `yaml:"faqs"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return file.FAQs, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", ErrInvalidInput, id)
	}
	return oid, nil
}
