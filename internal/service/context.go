package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bitwisdom/site-assistant/internal/model"
	"github.com/bitwisdom/site-assistant/pkg/logger"
)

// SnippetLength is how many characters of a page go into the context.
const SnippetLength = 500

// KnowledgeContext is the composed knowledge for one query.
type KnowledgeContext struct {
	FAQs    []model.FAQ
	Content []model.ContentEntry

	// Text is the serialized form used in the completion prompt.
	Text string
}

// HasFAQ reports whether any FAQ matched.
func (k *KnowledgeContext) HasFAQ() bool {
	return len(k.FAQs) > 0
}

// HasWebContent reports whether any page matched.
func (k *KnowledgeContext) HasWebContent() bool {
	return len(k.Content) > 0
}

// Sources returns the provenance flags for a generated answer.
func (k *KnowledgeContext) Sources() model.Sources {
	return model.Sources{FAQs: k.HasFAQ(), Website: k.HasWebContent()}
}

// Composer merges FAQ and content matches into one bounded context.
type Composer struct {
	searcher   *Searcher
	faqs       FAQRepository
	background *Dispatcher
	tracer     trace.Tracer
	logger     *logger.Logger
}

// NewComposer creates a new context composer.
func NewComposer(searcher *Searcher, faqs FAQRepository, background *Dispatcher, tracer trace.Tracer, log *logger.Logger) *Composer {
	return &Composer{
		searcher:   searcher,
		faqs:       faqs,
		background: background,
		tracer:     tracer,
		logger:     log.Named("composer"),
	}
}

// Build runs both searches concurrently and serializes the matches. Views
// of contributing FAQs are bumped in the background.
func (c *Composer) Build(ctx context.Context, query string) *KnowledgeContext {
	ctx, span := c.tracer.Start(ctx, "chatbot.build_context")
	defer span.End()

	var (
		faqs    []model.FAQ
		content []model.ContentEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return searchPanics(func() { faqs = c.searcher.SearchFAQs(gctx, query) })
	})
	g.Go(func() error {
		return searchPanics(func() { content = c.searcher.SearchContent(gctx, query) })
	})
	if err := g.Wait(); err != nil {
		// resurface on the caller so the pipeline's recover sees it
		panic(err)
	}

	kc := &KnowledgeContext{
		FAQs:    faqs,
		Content: content,
		Text:    FormatContext(faqs, content),
	}

	span.SetAttributes(
		attribute.Int("chatbot.faq_matches", len(faqs)),
		attribute.Int("chatbot.content_matches", len(content)),
	)

	if len(faqs) > 0 {
		ids := make([]primitive.ObjectID, 0, len(faqs))
		for _, f := range faqs {
			ids = append(ids, f.ID)
		}
		c.background.Go(ctx, TaskIncrementViews, func(ctx context.Context) error {
			return c.faqs.IncrementViews(ctx, ids)
		})
	}

	return kc
}

// searchPanics runs fn and turns a panic into an error, since a panic in an
// errgroup goroutine cannot be recovered by the caller.
func searchPanics(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// FormatContext serializes matches as numbered Q/A pairs followed by
// numbered page snippets. It returns "" when there is nothing to add.
func FormatContext(faqs []model.FAQ, content []model.ContentEntry) string {
	var b strings.Builder

	if len(faqs) > 0 {
		b.WriteString("Frequently Asked Questions:\n\n")
		for i, f := range faqs {
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, f.Question, i+1, f.Answer)
		}
	}

	if len(content) > 0 {
		b.WriteString("Website Information:\n\n")
		for i, e := range content {
			fmt.Fprintf(&b, "%d. %s\n%s...\n\n", i+1, e.Title, Snippet(e.Content, SnippetLength))
		}
	}

	return b.String()
}

// Snippet returns the first n characters of s.
func Snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
