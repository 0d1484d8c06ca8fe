package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// History paging bounds.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// TurnRecord is one answered user message.
type TurnRecord struct {
	SessionID   string
	UserMessage string
	Reply       string
	Mode        string
	Sources     model.Sources
	Metadata    model.SessionMetadata
	ReceivedAt  time.Time
}

// SessionService records chat turns and serves the admin history.
type SessionService struct {
	sessions   SessionRepository
	publisher  TurnPublisher
	background *Dispatcher
	logger     *logger.Logger

	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewSessionService creates a new session service. publisher may be nil.
func NewSessionService(sessions SessionRepository, publisher TurnPublisher, background *Dispatcher, log *logger.Logger) *SessionService {
	return &SessionService{
		sessions:   sessions,
		publisher:  publisher,
		background: background,
		logger:     log.Named("sessions"),
		tails:      make(map[string]chan struct{}),
	}
}

// Record dispatches the session write and the turn event without waiting
// for either. Turns without a session id are not persisted.
func (s *SessionService) Record(ctx context.Context, rec TurnRecord) {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now()
	}
	answeredAt := time.Now()

	if rec.SessionID != "" {
		messages := []model.SessionMessage{
			{Role: model.RoleUser, Content: rec.UserMessage, Timestamp: rec.ReceivedAt},
			{Role: model.RoleAssistant, Content: rec.Reply, Timestamp: answeredAt},
		}
		prev, done := s.enqueue(rec.SessionID)
		s.background.Go(ctx, TaskRecordSession, func(ctx context.Context) error {
			defer done()
			if prev != nil {
				select {
				case <-prev:
				case <-ctx.Done():
					return fmt.Errorf("session %s: waiting for previous turn: %w", rec.SessionID, ctx.Err())
				}
			}
			if err := s.sessions.AppendTurn(ctx, rec.SessionID, messages, rec.Metadata); err != nil {
				return fmt.Errorf("session %s: %w", rec.SessionID, err)
			}
			return nil
		})
	}

	if s.publisher != nil {
		event := &model.TurnEvent{
			ID:         uuid.Must(uuid.NewV7()).String(),
			SessionID:  rec.SessionID,
			UserChars:  len([]rune(rec.UserMessage)),
			ReplyChars: len([]rune(rec.Reply)),
			Mode:       rec.Mode,
			Sources:    rec.Sources,
			CreatedAt:  answeredAt,
		}
		s.background.Go(ctx, TaskPublishTurn, func(ctx context.Context) error {
			return s.publisher.PublishTurn(ctx, event)
		})
	}
}

// enqueue orders writes for one session by call order. The returned channel
// is closed once the previous write has finished, nil when there is none.
func (s *SessionService) enqueue(sessionID string) (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.tails[sessionID]
	mine := make(chan struct{})
	s.tails[sessionID] = mine

	done := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		close(mine)
		if s.tails[sessionID] == mine {
			delete(s.tails, sessionID)
		}
	}
	return prev, done
}

// History returns a page of sessions, newest first.
func (s *SessionService) History(ctx context.Context, page, limit int) (*model.SessionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	chats, total, err := s.sessions.List(ctx, page, limit)
	if err != nil {
		s.logger.Error("failed to list sessions", zap.Int("page", page), zap.Error(err))
		return nil, err
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	return &model.SessionPage{
		Chats: chats,
		Pagination: model.Pagination{
			Total: total,
			Page:  page,
			Pages: pages,
		},
	}, nil
}
