// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/config"
	"github.com/bitwisdom/site-assistant/internal/crawler"
	"github.com/bitwisdom/site-assistant/internal/events"
	"github.com/bitwisdom/site-assistant/internal/handler"
	"github.com/bitwisdom/site-assistant/internal/jobs"
	"github.com/bitwisdom/site-assistant/internal/llm"
	"github.com/bitwisdom/site-assistant/internal/service"
	"github.com/bitwisdom/site-assistant/internal/store"
	"github.com/bitwisdom/site-assistant/pkg/logger"
	"github.com/bitwisdom/site-assistant/pkg/tracing"
)

const serviceName = "site-assistant"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("starting API server")
	ctx := context.Background()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	db, err := store.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err == nil {
		err = db.Initialize(connectCtx)
	}
	cancel()
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	faqStore := store.NewFAQStore(db)
	contentStore := store.NewContentStore(db)
	sessionStore := store.NewSessionStore(db)

	// Chat-turn events are optional
	var publisher service.TurnPublisher
	if cfg.NATSEnabled {
		natsClient, err := events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		turns := events.NewTurnStream(natsClient)
		if err := turns.EnsureStream(ctx); err != nil {
			return err
		}
		publisher = turns
	}

	// Initialize completion client; an unconfigured provider is a steady
	// state served by the fallback responder.
	completer, err := newCompleter(cfg)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("completion provider not configured, answering from the knowledge base only",
			zap.String("provider", cfg.LLMProvider))
	case err != nil:
		return err
	default:
		log.Info("completion provider configured",
			zap.String("provider", completer.Name()),
			zap.String("model", completer.Model()))
	}

	// Initialize services
	tracer := otel.Tracer(serviceName)
	background := service.NewDispatcher(log)
	browseCache := service.NewBrowseCache(service.BrowseCacheTTL)

	searcher := service.NewSearcher(faqStore, contentStore, log)
	composer := service.NewComposer(searcher, faqStore, background, tracer, log)
	sessionSvc := service.NewSessionService(sessionStore, publisher, background, log)
	chatbotSvc := service.NewChatbotService(composer, completer, faqStore, sessionSvc, browseCache, service.ChatbotConfig{
		Provider:          cfg.LLMProvider,
		CompletionTimeout: cfg.LLMTimeout,
		MaxTokens:         cfg.LLMMaxTokens,
	}, tracer, log)
	knowledgeSvc := service.NewKnowledgeService(faqStore, browseCache, log)

	siteCrawler := crawler.New(crawler.Config{
		UserAgent: cfg.CrawlUserAgent,
		Delay:     cfg.CrawlDelay,
		Timeout:   cfg.CrawlTimeout,
	}, contentStore, log)
	crawlSvc := service.NewCrawlService(siteCrawler, cfg.CrawlMaxPages, log)

	// Scheduled re-crawl
	if cfg.CrawlSchedule != "" && cfg.CrawlBaseURL != "" {
		recrawler, err := jobs.NewRecrawler(cfg.CrawlSchedule, cfg.CrawlBaseURL, cfg.CrawlMaxPages, crawlSvc, log)
		if err != nil {
			return err
		}
		recrawler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			recrawler.Stop(stopCtx)
		}()
	}

	// Initialize handlers
	router := handler.NewRouter(
		handler.RouterConfig{
			JWTSecret:              cfg.JWTSecret,
			AllowedOrigins:         cfg.CORSAllowedOrigins,
			ChatRateLimitRequests:  cfg.ChatRateLimitRequests,
			ChatRateLimitWindow:    cfg.ChatRateLimitWindow,
			AdminRateLimitRequests: cfg.AdminRateLimitRequests,
			AdminRateLimitWindow:   cfg.AdminRateLimitWindow,
		},
		handler.NewHealthHandler(db, log),
		handler.NewChatbotHandler(chatbotSvc, log),
		handler.NewAdminHandler(knowledgeSvc, crawlSvc, sessionSvc, log),
		log,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight session writes and view increments finish
	if err := background.Wait(shutdownCtx); err != nil {
		log.Warn("background tasks still running at shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// newCompleter returns a nil client, not a typed nil, when the provider is
// unconfigured.
func newCompleter(cfg *config.Config) (llm.Client, error) {
	opts, err := llm.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}
