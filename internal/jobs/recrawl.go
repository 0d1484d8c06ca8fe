// Package jobs runs scheduled background work for the API process.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/internal/service"
	"github.com/bitwisdom/site-assistant/pkg/logger"
	"github.com/bitwisdom/site-assistant/pkg/metrics"
)

const recrawlTask = "recrawl"

// Crawler is the part of the crawl service the scheduler needs.
type Crawler interface {
	Crawl(ctx context.Context, req *model.CrawlRequest) (*model.CrawlResult, error)
}

// Recrawler re-crawls the site on a cron schedule.
type Recrawler struct {
	cron     *cron.Cron
	crawler  Crawler
	baseURL  string
	maxPages int
	timeout  time.Duration
	logger   *logger.Logger
}

// NewRecrawler validates the schedule and registers the job. The returned
// scheduler is not started.
func NewRecrawler(schedule, baseURL string, maxPages int, crawler Crawler, log *logger.Logger) (*Recrawler, error) {
	if err := service.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}

	r := &Recrawler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		crawler:  crawler,
		baseURL:  baseURL,
		maxPages: maxPages,
		timeout:  30 * time.Minute,
		logger:   log.Named("recrawl"),
	}

	if _, err := r.cron.AddFunc(schedule, func() { r.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid crawl schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start starts the scheduler in its own goroutine.
func (r *Recrawler) Start() {
	r.cron.Start()
	r.logger.Info("recrawl scheduled", zap.String("base_url", r.baseURL))
}

// Stop stops scheduling new runs and waits for a running one, bounded by ctx.
func (r *Recrawler) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn("recrawl still running at shutdown")
	}
}

// Run performs one crawl. A run that finds another crawl in progress is
// skipped.
func (r *Recrawler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.crawler.Crawl(ctx, &model.CrawlRequest{BaseURL: r.baseURL, MaxPages: r.maxPages})
	switch {
	case errors.Is(err, service.ErrCrawlInProgress):
		r.logger.Info("skipping recrawl, crawl already running")
	case err != nil:
		metrics.RecordBackgroundFailure(recrawlTask)
		r.logger.Error("recrawl failed", zap.Error(err))
	default:
		r.logger.Info("recrawl finished",
			zap.Int("total_scraped", result.TotalScraped),
			zap.Int("attempted", len(result.Results)),
		)
	}
}
