package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
	"github.com/bitwisdom/site-assistant/pkg/metrics"
)

// Search bounds.
const (
	MaxFAQMatches     = 3
	MaxContentMatches = 5

	// keyword tier only considers words longer than this
	minKeywordLength = 3
)

// Searcher runs relevance search over the knowledge store. Backend errors
// are logged and reported as no matches.
type Searcher struct {
	faqs    FAQRepository
	content ContentRepository
	logger  *logger.Logger
}

// NewSearcher creates a new searcher.
func NewSearcher(faqs FAQRepository, content ContentRepository, log *logger.Logger) *Searcher {
	return &Searcher{
		faqs:    faqs,
		content: content,
		logger:  log.Named("search"),
	}
}

// SearchFAQs returns up to three FAQ matches. Full-text search runs first;
// the keyword tier only runs when it finds nothing.
func (s *Searcher) SearchFAQs(ctx context.Context, query string) []model.FAQ {
	faqs, err := s.faqs.TextSearch(ctx, query, MaxFAQMatches)
	if err != nil {
		metrics.RecordSearchError("faq_text")
		s.logger.Error("FAQ text search failed", zap.Int("query_len", len(query)), zap.Error(err))
		return nil
	}
	if len(faqs) > 0 {
		return capFAQs(faqs)
	}

	keywords := QueryKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	faqs, err = s.faqs.KeywordSearch(ctx, keywords, MaxFAQMatches)
	if err != nil {
		metrics.RecordSearchError("faq_keyword")
		s.logger.Error("FAQ keyword search failed", zap.Strings("keywords", keywords), zap.Error(err))
		return nil
	}
	return capFAQs(faqs)
}

// SearchContent returns up to five scraped page matches.
func (s *Searcher) SearchContent(ctx context.Context, query string) []model.ContentEntry {
	entries, err := s.content.TextSearch(ctx, query, MaxContentMatches)
	if err != nil {
		metrics.RecordSearchError("content")
		s.logger.Error("content search failed", zap.Int("query_len", len(query)), zap.Error(err))
		return nil
	}
	if len(entries) > MaxContentMatches {
		entries = entries[:MaxContentMatches]
	}
	return entries
}

// QueryKeywords splits a query into lower-cased words longer than three
// characters, with surrounding punctuation trimmed and duplicates removed.
func QueryKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(w) <= minKeywordLength {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func capFAQs(faqs []model.FAQ) []model.FAQ {
	if len(faqs) > MaxFAQMatches {
		return faqs[:MaxFAQMatches]
	}
	return faqs
}
