// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/middleware"
	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/internal/service"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// Chatbot answers visitor messages and serves the browse panel.
type Chatbot interface {
	Respond(ctx context.Context, turn *service.Turn) (*model.ChatReply, error)
	QuickReplies(ctx context.Context) []string
	FAQsByCategory(ctx context.Context) map[string][]model.QuestionAnswer
	Health(ctx context.Context) (*service.Health, error)
}

// ChatbotHandler handles the public chatbot endpoints.
type ChatbotHandler struct {
	chatbot Chatbot
	logger  *logger.Logger
}

// NewChatbotHandler creates a new chatbot handler.
func NewChatbotHandler(chatbot Chatbot, log *logger.Logger) *ChatbotHandler {
	return &ChatbotHandler{
		chatbot: chatbot,
		logger:  log,
	}
}

// SendMessage handles POST /api/chatbot/message
func (h *ChatbotHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := middleware.ValidateSendMessage(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatbot.Respond(r.Context(), &service.Turn{
		Message:   req.Message,
		SessionID: req.SessionID,
		History:   req.ConversationHistory,
		Metadata:  requestMetadata(r),
	})
	if err != nil {
		h.logger.Error("failed to answer message",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, service.ApologyMessage)
		return
	}

	writeData(w, http.StatusOK, reply, "")
}

// QuickReplies handles GET /api/chatbot/quick-replies
func (h *ChatbotHandler) QuickReplies(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.chatbot.QuickReplies(r.Context()), "")
}

// FAQs handles GET /api/chatbot/faqs
func (h *ChatbotHandler) FAQs(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.chatbot.FAQsByCategory(r.Context()), "")
}

// Health handles GET /api/chatbot/health
func (h *ChatbotHandler) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.chatbot.Health(r.Context())
	if err != nil {
		h.logger.Error("chatbot health check failed", zap.Error(err))
		writeInternalError(w, "Service unhealthy")
		return
	}
	writeData(w, http.StatusOK, health, "")
}

func requestMetadata(r *http.Request) model.SessionMetadata {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return model.SessionMetadata{
		UserAgent: r.UserAgent(),
		IPAddress: ip,
		Referrer:  r.Referer(),
	}
}
