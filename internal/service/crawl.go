package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// MaxCrawlPages caps a single crawl request.
const MaxCrawlPages = 200

// ErrCrawlInProgress is returned when a crawl is already running.
var ErrCrawlInProgress = errors.New("crawl already in progress")

// SiteCrawler fetches pages into the content store.
type SiteCrawler interface {
	Crawl(ctx context.Context, baseURL string, maxPages int) (*model.CrawlResult, error)
	ScrapeURLs(ctx context.Context, urls []string) (*model.CrawlResult, error)
}

// CrawlService runs at most one crawl at a time.
type CrawlService struct {
	crawler         SiteCrawler
	defaultMaxPages int
	running         atomic.Bool
	logger          *logger.Logger
}

// NewCrawlService creates a new crawl service.
func NewCrawlService(crawler SiteCrawler, defaultMaxPages int, log *logger.Logger) *CrawlService {
	if defaultMaxPages <= 0 {
		defaultMaxPages = 50
	}
	return &CrawlService{
		crawler:         crawler,
		defaultMaxPages: defaultMaxPages,
		logger:          log.Named("crawl"),
	}
}

// Crawl validates the request and crawls the site.
func (s *CrawlService) Crawl(ctx context.Context, req *model.CrawlRequest) (*model.CrawlResult, error) {
	if err := ValidateBaseURL(req.BaseURL); err != nil {
		return nil, err
	}

	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = s.defaultMaxPages
	}
	if maxPages > MaxCrawlPages {
		maxPages = MaxCrawlPages
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCrawlInProgress
	}
	defer s.running.Store(false)

	s.logger.Info("crawl started", zap.String("base_url", req.BaseURL), zap.Int("max_pages", maxPages))

	result, err := s.crawler.Crawl(ctx, req.BaseURL, maxPages)
	if err != nil {
		s.logger.Error("crawl failed", zap.String("base_url", req.BaseURL), zap.Error(err))
		return nil, err
	}

	s.logger.Info("crawl finished",
		zap.String("base_url", req.BaseURL),
		zap.Int("total_scraped", result.TotalScraped),
		zap.Int("attempted", len(result.Results)),
	)
	return result, nil
}

// Scrape fetches an explicit list of URLs without following links.
func (s *CrawlService) Scrape(ctx context.Context, urls []string) (*model.CrawlResult, error) {
	for _, u := range urls {
		if err := ValidateBaseURL(u); err != nil {
			return nil, err
		}
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCrawlInProgress
	}
	defer s.running.Store(false)

	return s.crawler.ScrapeURLs(ctx, urls)
}

// ValidateBaseURL requires an absolute http or https URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidInput, raw)
	}
	return nil
}
