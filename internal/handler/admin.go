package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/middleware"
	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/internal/service"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// Knowledge manages the FAQ knowledge base.
type Knowledge interface {
	CreateFAQ(ctx context.Context, req *model.CreateFAQRequest) (*model.FAQ, error)
	UpdateFAQ(ctx context.Context, id string, req *model.UpdateFAQRequest) (*model.FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error
	ListFAQs(ctx context.Context) ([]model.FAQ, error)
}

// Crawler refreshes the website content store.
type Crawler interface {
	Crawl(ctx context.Context, req *model.CrawlRequest) (*model.CrawlResult, error)
}

// SessionHistory lists recorded chat sessions.
type SessionHistory interface {
	History(ctx context.Context, page, limit int) (*model.SessionPage, error)
}

// AdminHandler handles the authenticated admin endpoints.
type AdminHandler struct {
	knowledge Knowledge
	crawler   Crawler
	history   SessionHistory
	logger    *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(knowledge Knowledge, crawler Crawler, history SessionHistory, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		knowledge: knowledge,
		crawler:   crawler,
		history:   history,
		logger:    log,
	}
}

// CreateFAQ handles POST /api/chatbot/faqs
func (h *AdminHandler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFAQRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	faq, err := h.knowledge.CreateFAQ(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err, "Failed to create FAQ")
		return
	}

	writeData(w, http.StatusCreated, faq, "FAQ created successfully")
}

// UpdateFAQ handles PUT /api/chatbot/faqs/{id}
func (h *AdminHandler) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateObjectID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateFAQRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	faq, err := h.knowledge.UpdateFAQ(r.Context(), id, &req)
	if err != nil {
		h.fail(w, r, err, "Failed to update FAQ")
		return
	}

	writeData(w, http.StatusOK, faq, "FAQ updated successfully")
}

// DeleteFAQ handles DELETE /api/chatbot/faqs/{id}
func (h *AdminHandler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateObjectID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.knowledge.DeleteFAQ(r.Context(), id); err != nil {
		h.fail(w, r, err, "Failed to delete FAQ")
		return
	}

	writeData(w, http.StatusOK, nil, "FAQ deleted successfully")
}

// ListFAQs handles GET /api/chatbot/admin/faqs
func (h *AdminHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.knowledge.ListFAQs(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get FAQs")
		return
	}
	if faqs == nil {
		faqs = []model.FAQ{}
	}
	writeData(w, http.StatusOK, faqs, "")
}

// Scrape handles POST /api/chatbot/scrape
func (h *AdminHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req model.CrawlRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "Base URL is required")
		return
	}

	result, err := h.crawler.Crawl(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err, "Failed to scrape website")
		return
	}

	writeData(w, http.StatusOK, result, fmt.Sprintf("Successfully scraped %d pages", result.TotalScraped))
}

// History handles GET /api/chatbot/history
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", service.DefaultHistoryLimit)

	result, err := h.history.History(r.Context(), page, limit)
	if err != nil {
		h.fail(w, r, err, "Failed to get chat history")
		return
	}

	writeData(w, http.StatusOK, result, "")
}

// fail maps service errors to status codes. Only caller mistakes echo
// their message.
func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "FAQ not found")
	case errors.Is(err, service.ErrCrawlInProgress):
		writeError(w, http.StatusConflict, "A crawl is already running")
	default:
		h.logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("user_id", middleware.GetUserID(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w, message)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
