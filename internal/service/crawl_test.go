package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

func TestCrawlServiceBounds(t *testing.T) {
	crawler := &fakeCrawler{}
	svc := NewCrawlService(crawler, 50, logger.NewNop())
	ctx := context.Background()

	_, err := svc.Crawl(ctx, &model.CrawlRequest{BaseURL: "https://bitwisdom.example"})
	require.NoError(t, err)
	assert.Equal(t, 50, crawler.maxPages)

	_, err = svc.Crawl(ctx, &model.CrawlRequest{BaseURL: "https://bitwisdom.example", MaxPages: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxCrawlPages, crawler.maxPages)

	for _, bad := range []string{"", "bitwisdom.example", "ftp://bitwisdom.example", "https://"} {
		_, err = svc.Crawl(ctx, &model.CrawlRequest{BaseURL: bad})
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestCrawlServiceRejectsConcurrentRuns(t *testing.T) {
	crawler := &fakeCrawler{block: make(chan struct{})}
	svc := NewCrawlService(crawler, 10, logger.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Crawl(ctx, &model.CrawlRequest{BaseURL: "https://a.example"})
	}()

	require.Eventually(t, func() bool { return svc.running.Load() }, time.Second, time.Millisecond)

	_, err := svc.Crawl(ctx, &model.CrawlRequest{BaseURL: "https://b.example"})
	assert.ErrorIs(t, err, ErrCrawlInProgress)
	_, err = svc.Scrape(ctx, []string{"https://b.example/x"})
	assert.ErrorIs(t, err, ErrCrawlInProgress)

	close(crawler.block)
	wg.Wait()

	res, err := svc.Scrape(ctx, []string{"https://b.example/x"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalScraped)
}
