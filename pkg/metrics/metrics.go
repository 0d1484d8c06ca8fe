// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ResponsesTotal counts chatbot answers by how they were produced.
	ResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_responses_total",
			Help: "Chatbot responses by mode (generated, fallback)",
		},
		[]string{"mode"},
	)

	// FallbackRulesTotal counts which fallback rule produced the answer.
	FallbackRulesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_fallback_rule_total",
			Help: "Fallback responder rule hits",
		},
		[]string{"rule"},
	)

	// CompletionDuration tracks completion provider latency.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_completion_duration_seconds",
			Help:    "Completion provider call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SearchErrorsTotal counts knowledge store search failures that were swallowed.
	SearchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_search_errors_total",
			Help: "Knowledge store search errors treated as empty results",
		},
		[]string{"source"},
	)

	// BackgroundFailuresTotal counts failed best-effort side effects.
	BackgroundFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_background_task_failures_total",
			Help: "Failed fire-and-forget tasks",
		},
		[]string{"task"},
	)

	// CrawlerPagesTotal counts crawled pages by outcome.
	CrawlerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Pages fetched by the content crawler",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordCompletion records metrics for one completion provider call.
func RecordCompletion(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	CompletionDuration.WithLabelValues(provider, status).Observe(duration)
	if status != "success" {
		return
	}
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordResponse records how a chatbot answer was produced.
func RecordResponse(mode string) {
	ResponsesTotal.WithLabelValues(mode).Inc()
}

// RecordFallbackRule records a fallback responder rule hit.
func RecordFallbackRule(rule string) {
	FallbackRulesTotal.WithLabelValues(rule).Inc()
}

// RecordSearchError records a swallowed search failure.
func RecordSearchError(source string) {
	SearchErrorsTotal.WithLabelValues(source).Inc()
}

// RecordBackgroundFailure records a failed best-effort task.
func RecordBackgroundFailure(task string) {
	BackgroundFailuresTotal.WithLabelValues(task).Inc()
}

// RecordCrawledPage records one crawled page.
func RecordCrawledPage(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	CrawlerPagesTotal.WithLabelValues(status).Inc()
}
