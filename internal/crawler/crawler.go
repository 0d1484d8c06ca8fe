// Package crawler fetches site pages, strips boilerplate and stores the
// extracted text for relevance search.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
	"github.com/bitwisdom/site-assistant/pkg/metrics"
)

const maxPageBytes = 5 * 1024 * 1024

// ErrNotHTML is returned for responses that are not HTML documents.
var ErrNotHTML = errors.New("not an HTML document")

// skippedExtensions are never enqueued.
var skippedExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".css": true, ".js": true, ".zip": true, ".mp4": true,
	".mp3": true, ".xml": true, ".json": true,
}

// ContentStore persists extracted pages.
type ContentStore interface {
	Upsert(ctx context.Context, entry *model.ContentEntry) error
}

// Config configures the crawler.
type Config struct {
	UserAgent string
	Delay     time.Duration
	Timeout   time.Duration
}

// Crawler fetches pages one at a time with a fixed delay between requests.
type Crawler struct {
	cfg    Config
	client *http.Client
	robots *RobotsChecker
	store  ContentStore
	logger *logger.Logger
	now    func() time.Time
}

// New creates a new crawler.
func New(cfg Config, store ContentStore, log *logger.Logger) *Crawler {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "BitWisdom-Bot/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: cfg.Timeout}

	return &Crawler{
		cfg:    cfg,
		client: client,
		robots: NewRobotsChecker(cfg.UserAgent, client),
		store:  store,
		logger: log.Named("crawler"),
		now:    time.Now,
	}
}

// Crawl walks the site breadth-first from baseURL, staying on its host,
// until maxPages pages have been attempted or the frontier is empty. A
// failed page is reported in the result and its links are not followed.
func (c *Crawler) Crawl(ctx context.Context, baseURL string, maxPages int) (*model.CrawlResult, error) {
	start, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	host := strings.ToLower(start.Host)

	limiter := c.newLimiter()
	result := &model.CrawlResult{Results: []model.CrawlPageResult{}}

	first := Normalize(start)
	queue := []string{first}
	visited := map[string]bool{first: true}

	for len(queue) > 0 && len(result.Results) < maxPages {
		pageURL := queue[0]
		queue = queue[1:]

		if !c.allowed(ctx, pageURL, limiter) {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		page, err := c.scrape(ctx, pageURL)
		result.Results = append(result.Results, pageResult(pageURL, page, err))
		if err != nil {
			continue
		}
		result.TotalScraped++

		for _, link := range page.Links {
			if visited[link] || !sameHost(link, host) || skipped(link) {
				continue
			}
			visited[link] = true
			queue = append(queue, link)
		}
	}

	return result, nil
}

// ScrapeURLs fetches each URL once, in order, without following links.
func (c *Crawler) ScrapeURLs(ctx context.Context, urls []string) (*model.CrawlResult, error) {
	limiter := c.newLimiter()
	result := &model.CrawlResult{Results: make([]model.CrawlPageResult, 0, len(urls))}

	for _, raw := range urls {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}
		page, err := c.scrape(ctx, raw)
		result.Results = append(result.Results, pageResult(raw, page, err))
		if err == nil {
			result.TotalScraped++
		}
	}
	return result, nil
}

// newLimiter allows one request immediately, then one per delay.
func (c *Crawler) newLimiter() *rate.Limiter {
	if c.cfg.Delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(c.cfg.Delay), 1)
}

// allowed consults robots.txt and slows the limiter down when the site
// asks for a longer crawl delay.
func (c *Crawler) allowed(ctx context.Context, pageURL string, limiter *rate.Limiter) bool {
	ok, delay, err := c.robots.CanFetch(ctx, pageURL)
	if err != nil {
		c.logger.Debug("robots check failed", zap.String("url", pageURL), zap.Error(err))
		return false
	}
	if !ok {
		c.logger.Debug("disallowed by robots.txt", zap.String("url", pageURL))
		return false
	}
	if delay > c.cfg.Delay && limiter.Limit() > rate.Every(delay) {
		limiter.SetLimit(rate.Every(delay))
	}
	return true
}

func (c *Crawler) scrape(ctx context.Context, pageURL string) (*Page, error) {
	page, err := c.fetch(ctx, pageURL)
	if err != nil {
		metrics.RecordCrawledPage(false)
		c.logger.Warn("failed to scrape page", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	entry := &model.ContentEntry{
		URL:             pageURL,
		Title:           page.Title,
		MetaDescription: page.MetaDescription,
		Content:         page.Content,
		Headings:        page.Headings,
		LastScraped:     c.now(),
		IsActive:        true,
	}
	if err := c.store.Upsert(ctx, entry); err != nil {
		metrics.RecordCrawledPage(false)
		c.logger.Error("failed to store page", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	metrics.RecordCrawledPage(true)
	c.logger.Debug("scraped page", zap.String("url", pageURL), zap.String("title", page.Title))
	return page, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml") {
			return nil, ErrNotHTML
		}
	}

	return Extract(io.LimitReader(resp.Body, maxPageBytes), resp.Request.URL)
}

func pageResult(pageURL string, page *Page, err error) model.CrawlPageResult {
	if err != nil {
		return model.CrawlPageResult{URL: pageURL, Success: false, Error: err.Error()}
	}
	return model.CrawlPageResult{URL: pageURL, Success: true, Title: page.Title}
}

func sameHost(link, host string) bool {
	u, err := url.Parse(link)
	return err == nil && strings.ToLower(u.Host) == host
}

func skipped(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	return skippedExtensions[strings.ToLower(path.Ext(u.Path))]
}
