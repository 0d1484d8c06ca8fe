package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitwisdom/site-assistant/internal/crawler"
	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/internal/service"
	"github.com/bitwisdom/site-assistant/internal/store"
)

func newCrawlCmd() *cobra.Command {
	var (
		baseURL  string
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the site into the content store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = cfg.CrawlBaseURL
			}
			if baseURL == "" {
				return errors.New("--base-url is required when CRAWL_BASE_URL is unset")
			}

			return withCrawlService(func(ctx context.Context, crawls *service.CrawlService) (*model.CrawlResult, error) {
				return crawls.Crawl(ctx, &model.CrawlRequest{BaseURL: baseURL, MaxPages: maxPages})
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "site to crawl (default: CRAWL_BASE_URL)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page bound (default: CRAWL_MAX_PAGES)")
	return cmd
}

func newScrapeCmd() *cobra.Command {
	var urls []string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape specific pages without following links",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls = append(urls, args...)
			if len(urls) == 0 {
				return errors.New("at least one --url is required")
			}

			return withCrawlService(func(ctx context.Context, crawls *service.CrawlService) (*model.CrawlResult, error) {
				return crawls.Scrape(ctx, urls)
			})
		},
	}

	cmd.Flags().StringSliceVar(&urls, "url", nil, "page to scrape (repeatable)")
	return cmd
}

// withCrawlService wires a crawler to the content store, runs fn until it
// finishes or the process is interrupted, and prints the result.
func withCrawlService(fn func(ctx context.Context, crawls *service.CrawlService) (*model.CrawlResult, error)) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	siteCrawler := crawler.New(crawler.Config{
		UserAgent: cfg.CrawlUserAgent,
		Delay:     cfg.CrawlDelay,
		Timeout:   cfg.CrawlTimeout,
	}, store.NewContentStore(db), log)

	result, err := fn(ctx, service.NewCrawlService(siteCrawler, cfg.CrawlMaxPages, log))
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(result)
	}

	for _, page := range result.Results {
		if page.Success {
			fmt.Printf("ok    %s  %s\n", page.URL, page.Title)
		} else {
			fmt.Printf("fail  %s  %s\n", page.URL, page.Error)
		}
	}
	fmt.Printf("Successfully scraped %d of %d pages\n", result.TotalScraped, len(result.Results))
	return nil
}
