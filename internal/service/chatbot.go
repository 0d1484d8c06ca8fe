package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/llm"
	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
	"github.com/bitwisdom/site-assistant/pkg/metrics"
)

// Response modes.
const (
	ModeGenerated = "generated"
	ModeFallback  = "fallback"
	ModeError     = "error"
)

// ApologyMessage is the only text shown when the pipeline itself fails.
const ApologyMessage = "I'm sorry, I'm having trouble processing your request right now. Please try again or contact our support team."

// MaxQuickReplies bounds the quick-reply list.
const MaxQuickReplies = 5

// DefaultQuickReplies are offered when the knowledge store is unreachable.
var DefaultQuickReplies = []string{
	"What services does BitWisdom offer?",
	"How do I get started?",
	"What are your pricing plans?",
	"How can I contact support?",
}

var (
	// ErrPipeline is returned when no reply, not even a fallback, could be
	// produced.
	ErrPipeline = errors.New("chatbot pipeline failed")

	// ErrEmptyCompletion is returned when the provider answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Turn is one user message to answer.
type Turn struct {
	Message   string
	SessionID string
	History   []model.HistoryTurn
	Metadata  model.SessionMetadata
}

// ChatbotConfig tunes the orchestrator.
type ChatbotConfig struct {
	// Provider is the configured provider name, reported by Health even
	// when no client could be built.
	Provider          string
	CompletionTimeout time.Duration
	MaxTokens         int
}

// Health is the chatbot health report.
type Health struct {
	Status        string `json:"status"`
	LLMConfigured bool   `json:"llmConfigured"`
	Provider      string `json:"provider"`
	ActiveFAQs    int64  `json:"activeFAQs"`
}

// ChatbotService orchestrates search, composition, completion and fallback.
type ChatbotService struct {
	composer  *Composer
	completer llm.Client
	faqs      FAQRepository
	sessions  *SessionService
	cache     *BrowseCache
	cfg       ChatbotConfig
	tracer    trace.Tracer
	logger    *logger.Logger
}

// NewChatbotService creates a new chatbot service. A nil completer means
// the provider is unconfigured and every turn uses the fallback responder.
func NewChatbotService(
	composer *Composer,
	completer llm.Client,
	faqs FAQRepository,
	sessions *SessionService,
	browseCache *BrowseCache,
	cfg ChatbotConfig,
	tracer trace.Tracer,
	log *logger.Logger,
) *ChatbotService {
	return &ChatbotService{
		composer:  composer,
		completer: completer,
		faqs:      faqs,
		sessions:  sessions,
		cache:     browseCache,
		cfg:       cfg,
		tracer:    tracer,
		logger:    log.Named("chatbot"),
	}
}

// LLMConfigured reports whether a completion client is available.
func (s *ChatbotService) LLMConfigured() bool {
	return s.completer != nil
}

// Respond answers one turn and dispatches its recording. The only error it
// returns is ErrPipeline, in which case the apology is recorded as the
// assistant message.
func (s *ChatbotService) Respond(ctx context.Context, turn *Turn) (reply *model.ChatReply, err error) {
	ctx, span := s.tracer.Start(ctx, "chatbot.respond")
	defer span.End()

	received := time.Now()
	message := strings.TrimSpace(turn.Message)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("chatbot pipeline failed",
				zap.String("session_id", turn.SessionID),
				zap.Any("panic", r),
			)
			span.SetStatus(codes.Error, "pipeline failure")
			metrics.RecordResponse(ModeError)

			s.sessions.Record(ctx, TurnRecord{
				SessionID:   turn.SessionID,
				UserMessage: message,
				Reply:       ApologyMessage,
				Mode:        ModeError,
				Metadata:    turn.Metadata,
				ReceivedAt:  received,
			})
			reply, err = nil, ErrPipeline
		}
	}()

	reply, mode := s.generate(ctx, message, turn.History)

	span.SetAttributes(
		attribute.String("chatbot.mode", mode),
		attribute.Bool("chatbot.sources.faqs", reply.Sources.FAQs),
		attribute.Bool("chatbot.sources.website", reply.Sources.Website),
	)
	metrics.RecordResponse(mode)

	s.sessions.Record(ctx, TurnRecord{
		SessionID:   turn.SessionID,
		UserMessage: message,
		Reply:       reply.Message,
		Mode:        mode,
		Sources:     reply.Sources,
		Metadata:    turn.Metadata,
		ReceivedAt:  received,
	})

	return reply, nil
}

func (s *ChatbotService) generate(ctx context.Context, message string, history []model.HistoryTurn) (*model.ChatReply, string) {
	kc := s.composer.Build(ctx, message)

	if s.completer != nil {
		text, err := s.complete(ctx, message, history, kc)
		if err == nil {
			return &model.ChatReply{Message: text, Sources: kc.Sources()}, ModeGenerated
		}
		s.logger.Error("completion failed, using fallback",
			zap.String("provider", s.completer.Name()),
			zap.Int("message_len", len(message)),
			zap.Error(err),
		)
	}

	reply, rule := Fallback(message, kc)
	metrics.RecordFallbackRule(rule)
	return reply, ModeFallback
}

func (s *ChatbotService) complete(ctx context.Context, message string, history []model.HistoryTurn, kc *KnowledgeContext) (string, error) {
	ctx, span := s.tracer.Start(ctx, "chatbot.complete")
	defer span.End()

	if s.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CompletionTimeout)
		defer cancel()
	}

	prompt := BuildPrompt(message, kc.Text, history)
	start := time.Now()

	resp, err := s.completer.Complete(ctx, &llm.CompletionRequest{
		Messages:  []llm.ChatMessage{{Role: string(model.RoleUser), Content: prompt}},
		MaxTokens: s.cfg.MaxTokens,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordCompletion(s.completer.Name(), s.completer.Model(), "error", elapsed, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}

	metrics.RecordCompletion(s.completer.Name(), resp.Model, "ok", elapsed, resp.TokensIn, resp.TokensOut)
	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%s: %w", s.completer.Name(), ErrEmptyCompletion)
	}
	return text, nil
}

// QuickReplies returns up to five suggested questions.
func (s *ChatbotService) QuickReplies(ctx context.Context) []string {
	if cached, ok := s.cache.quickReplies(); ok {
		return cached
	}

	faqs, err := s.faqs.TopActive(ctx, MaxQuickReplies)
	if err != nil {
		s.logger.Error("failed to load quick replies", zap.Error(err))
		return append([]string(nil), DefaultQuickReplies...)
	}

	questions := make([]string, 0, len(faqs))
	for _, f := range faqs {
		questions = append(questions, f.Question)
	}
	s.cache.setQuickReplies(questions)
	return questions
}

// FAQsByCategory groups active FAQs by category, priority order within
// each group. It returns an empty map when the store fails.
func (s *ChatbotService) FAQsByCategory(ctx context.Context) map[string][]model.QuestionAnswer {
	if cached, ok := s.cache.faqsByCategory(); ok {
		return cached
	}

	faqs, err := s.faqs.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to load FAQs", zap.Error(err))
		return map[string][]model.QuestionAnswer{}
	}

	grouped := make(map[string][]model.QuestionAnswer)
	for _, f := range faqs {
		category := f.Category
		if category == "" {
			category = model.DefaultCategory
		}
		grouped[category] = append(grouped[category], model.QuestionAnswer{
			Question: f.Question,
			Answer:   f.Answer,
		})
	}
	s.cache.setFAQsByCategory(grouped)
	return grouped
}

// Health reports provider configuration and the active FAQ count.
func (s *ChatbotService) Health(ctx context.Context) (*Health, error) {
	count, err := s.faqs.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	provider := s.cfg.Provider
	if s.completer != nil {
		provider = s.completer.Name()
	}

	return &Health{
		Status:        "ok",
		LLMConfigured: s.LLMConfigured(),
		Provider:      provider,
		ActiveFAQs:    count,
	}, nil
}
