package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/bitwisdom/site-assistant/internal/llm"
	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

// fakeFAQRepo is an in-memory FAQRepository. Text search is a naive
// substring match so tests control which tier answers.
type fakeFAQRepo struct {
	mu   sync.Mutex
	faqs []*model.FAQ

	textErr, keywordErr, viewsErr, listErr error

	textCalls, keywordCalls int
	lastKeywords            []string
	viewed                  []primitive.ObjectID
}

func newFakeFAQRepo(faqs ...*model.FAQ) *fakeFAQRepo {
	r := &fakeFAQRepo{}
	for _, f := range faqs {
		if f.ID.IsZero() {
			f.ID = primitive.NewObjectID()
		}
		r.faqs = append(r.faqs, f)
	}
	return r
}

func (r *fakeFAQRepo) TextSearch(_ context.Context, query string, limit int) ([]model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textCalls++
	if r.textErr != nil {
		return nil, r.textErr
	}
	q := strings.ToLower(query)
	var out []model.FAQ
	for _, f := range r.faqs {
		if f.IsActive && strings.Contains(q, strings.ToLower(f.Question)) {
			out = append(out, *f)
		}
	}
	return limitFAQs(out, limit), nil
}

func (r *fakeFAQRepo) KeywordSearch(_ context.Context, keywords []string, limit int) ([]model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keywordCalls++
	r.lastKeywords = keywords
	if r.keywordErr != nil {
		return nil, r.keywordErr
	}
	var out []model.FAQ
	for _, f := range r.faqs {
		if !f.IsActive {
			continue
		}
		for _, k := range f.Keywords {
			if containsString(keywords, k) {
				out = append(out, *f)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return limitFAQs(out, limit), nil
}

func (r *fakeFAQRepo) IncrementViews(_ context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.viewsErr != nil {
		return r.viewsErr
	}
	r.viewed = append(r.viewed, ids...)
	for _, f := range r.faqs {
		for _, id := range ids {
			if f.ID == id {
				f.Views++
			}
		}
	}
	return nil
}

func (r *fakeFAQRepo) TopActive(_ context.Context, limit int) ([]model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := r.active()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Views > out[j].Views
	})
	return limitFAQs(out, limit), nil
}

func (r *fakeFAQRepo) ListActive(_ context.Context) ([]model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := r.active()
	sortByCategoryPriority(out)
	return out, nil
}

func (r *fakeFAQRepo) ListAll(_ context.Context) ([]model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.FAQ, 0, len(r.faqs))
	for _, f := range r.faqs {
		out = append(out, *f)
	}
	sortByCategoryPriority(out)
	return out, nil
}

func (r *fakeFAQRepo) CountActive(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return 0, r.listErr
	}
	return int64(len(r.active())), nil
}

func (r *fakeFAQRepo) FindByQuestion(_ context.Context, question string) (*model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.faqs {
		if f.Question == question {
			cp := *f
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeFAQRepo) Create(_ context.Context, faq *model.FAQ) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	faq.ID = primitive.NewObjectID()
	cp := *faq
	r.faqs = append(r.faqs, &cp)
	return nil
}

func (r *fakeFAQRepo) Update(_ context.Context, id primitive.ObjectID, req *model.UpdateFAQRequest) (*model.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.faqs {
		if f.ID != id {
			continue
		}
		if req.Question != nil {
			f.Question = *req.Question
		}
		if req.Answer != nil {
			f.Answer = *req.Answer
		}
		if req.Category != nil {
			f.Category = *req.Category
		}
		if req.Keywords != nil {
			f.Keywords = *req.Keywords
		}
		if req.Priority != nil {
			f.Priority = *req.Priority
		}
		if req.IsActive != nil {
			f.IsActive = *req.IsActive
		}
		cp := *f
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (r *fakeFAQRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.faqs {
		if f.ID == id {
			r.faqs = append(r.faqs[:i], r.faqs[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (r *fakeFAQRepo) active() []model.FAQ {
	var out []model.FAQ
	for _, f := range r.faqs {
		if f.IsActive {
			out = append(out, *f)
		}
	}
	return out
}

type fakeContentRepo struct {
	entries  []model.ContentEntry
	err      error
	panicMsg string
}

func (r *fakeContentRepo) TextSearch(_ context.Context, query string, limit int) ([]model.ContentEntry, error) {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(r.entries) > limit {
		return r.entries[:limit], nil
	}
	return r.entries, nil
}

type appendCall struct {
	sessionID string
	messages  []model.SessionMessage
	meta      model.SessionMetadata
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	appended []appendCall
	sessions map[string][]model.SessionMessage
	err      error

	// hold delays the append whose user message matches the key
	hold map[string]chan struct{}

	listed []model.ChatSession
	total  int64
	page   int
	limit  int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string][]model.SessionMessage)}
}

func (r *fakeSessionRepo) AppendTurn(ctx context.Context, sessionID string, messages []model.SessionMessage, meta model.SessionMetadata) error {
	if gate, ok := r.hold[messages[0].Content]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.appended = append(r.appended, appendCall{sessionID: sessionID, messages: messages, meta: meta})
	r.sessions[sessionID] = append(r.sessions[sessionID], messages...)
	return nil
}

func (r *fakeSessionRepo) List(_ context.Context, page, limit int) ([]model.ChatSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.page, r.limit = page, limit
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.listed, r.total, nil
}

func (r *fakeSessionRepo) messages(sessionID string) []model.SessionMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SessionMessage(nil), r.sessions[sessionID]...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*model.TurnEvent
}

func (p *fakePublisher) PublishTurn(_ context.Context, event *model.TurnEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeCompleter struct {
	mu       sync.Mutex
	content  string
	err      error
	panicMsg string
	hang     bool
	prompts  []string
}

func (c *fakeCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range req.Messages {
		c.prompts = append(c.prompts, m.Content)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.content, Model: "fake-model", TokensIn: 10, TokensOut: 5}, nil
}

func (c *fakeCompleter) Name() string  { return "fake" }
func (c *fakeCompleter) Model() string { return "fake-model" }

type fakeCrawler struct {
	mu       sync.Mutex
	block    chan struct{}
	maxPages int
	baseURL  string
	scraped  []string
}

func (c *fakeCrawler) Crawl(ctx context.Context, baseURL string, maxPages int) (*model.CrawlResult, error) {
	c.mu.Lock()
	c.baseURL, c.maxPages = baseURL, maxPages
	block := c.block
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	return &model.CrawlResult{TotalScraped: 1, Results: []model.CrawlPageResult{{URL: baseURL, Success: true}}}, nil
}

func (c *fakeCrawler) ScrapeURLs(_ context.Context, urls []string) (*model.CrawlResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scraped = urls
	return &model.CrawlResult{TotalScraped: len(urls)}, nil
}

// pipeline wires the orchestrator over fakes.
type pipeline struct {
	faqs       *fakeFAQRepo
	content    *fakeContentRepo
	sessions   *fakeSessionRepo
	publisher  *fakePublisher
	background *Dispatcher
	chatbot    *ChatbotService
}

func newPipeline(completer llm.Client, faqs *fakeFAQRepo, content *fakeContentRepo) *pipeline {
	log := logger.NewNop()
	tracer := testTracer()
	background := NewDispatcher(log)
	sessions := newFakeSessionRepo()
	publisher := &fakePublisher{}

	searcher := NewSearcher(faqs, content, log)
	composer := NewComposer(searcher, faqs, background, tracer, log)
	sessionSvc := NewSessionService(sessions, publisher, background, log)

	return &pipeline{
		faqs:       faqs,
		content:    content,
		sessions:   sessions,
		publisher:  publisher,
		background: background,
		chatbot: NewChatbotService(composer, completer, faqs, sessionSvc, NewBrowseCache(BrowseCacheTTL),
			ChatbotConfig{Provider: "gemini"}, tracer, log),
	}
}

func limitFAQs(faqs []model.FAQ, limit int) []model.FAQ {
	if len(faqs) > limit {
		return faqs[:limit]
	}
	return faqs
}

func sortByCategoryPriority(faqs []model.FAQ) {
	sort.SliceStable(faqs, func(i, j int) bool {
		if faqs[i].Category != faqs[j].Category {
			return faqs[i].Category < faqs[j].Category
		}
		return faqs[i].Priority > faqs[j].Priority
	})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
