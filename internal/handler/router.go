package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitwisdom/site-assistant/internal/middleware"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// RouterConfig carries the settings the route table needs.
type RouterConfig struct {
	JWTSecret              string
	AllowedOrigins         []string
	ChatRateLimitRequests  int
	ChatRateLimitWindow    time.Duration
	AdminRateLimitRequests int
	AdminRateLimitWindow   time.Duration
}

// NewRouter builds the API route table.
func NewRouter(cfg RouterConfig, health *HealthHandler, chatbot *ChatbotHandler, admin *AdminHandler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/chatbot", func(r chi.Router) {
		r.Get("/health", chatbot.Health)
		r.With(middleware.RateLimit(cfg.ChatRateLimitRequests, cfg.ChatRateLimitWindow)).
			Post("/message", chatbot.SendMessage)
		r.Get("/quick-replies", chatbot.QuickReplies)
		r.Get("/faqs", chatbot.FAQs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RequireRole(middleware.RoleAdmin))
			r.Use(middleware.UserRateLimit(cfg.AdminRateLimitRequests, cfg.AdminRateLimitWindow))

			r.Post("/faqs", admin.CreateFAQ)
			r.Put("/faqs/{id}", admin.UpdateFAQ)
			r.Delete("/faqs/{id}", admin.DeleteFAQ)
			r.Get("/admin/faqs", admin.ListFAQs)
			r.Post("/scrape", admin.Scrape)
			r.Get("/history", admin.History)
		})
	})

	return r
}
