package service

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bitwisdom/site-assistant/internal/model"
)

// BrowseCacheTTL is how long quick replies and the FAQ browse listing are
// served from memory.
const BrowseCacheTTL = time.Minute

const (
	cacheKeyQuickReplies   = "quick_replies"
	cacheKeyFAQsByCategory = "faqs_by_category"
)

// BrowseCache holds the read-mostly widget listings. Any FAQ write
// invalidates it. A nil cache is valid and never hits.
type BrowseCache struct {
	store *cache.Cache
}

// NewBrowseCache creates a new browse cache.
func NewBrowseCache(ttl time.Duration) *BrowseCache {
	return &BrowseCache{store: cache.New(ttl, 2*ttl)}
}

func (c *BrowseCache) quickReplies() ([]string, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.store.Get(cacheKeyQuickReplies)
	if !ok {
		return nil, false
	}
	return append([]string(nil), v.([]string)...), true
}

func (c *BrowseCache) setQuickReplies(v []string) {
	if c != nil {
		c.store.SetDefault(cacheKeyQuickReplies, append([]string(nil), v...))
	}
}

func (c *BrowseCache) faqsByCategory() (map[string][]model.QuestionAnswer, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.store.Get(cacheKeyFAQsByCategory)
	if !ok {
		return nil, false
	}
	return cloneCategories(v.(map[string][]model.QuestionAnswer)), true
}

func (c *BrowseCache) setFAQsByCategory(v map[string][]model.QuestionAnswer) {
	if c != nil {
		c.store.SetDefault(cacheKeyFAQsByCategory, cloneCategories(v))
	}
}

// Invalidate drops every cached listing.
func (c *BrowseCache) Invalidate() {
	if c != nil {
		c.store.Flush()
	}
}

// Cached listings are copied in and out so callers cannot mutate the shared
// entry.
func cloneCategories(m map[string][]model.QuestionAnswer) map[string][]model.QuestionAnswer {
	out := make(map[string][]model.QuestionAnswer, len(m))
	for k, v := range m {
		out[k] = append([]model.QuestionAnswer(nil), v...)
	}
	return out
}
