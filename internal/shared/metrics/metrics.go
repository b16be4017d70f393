package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported by this process.
var Registry = prometheus.NewRegistry()

var (
	llmCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_calls_total",
		Help: "LLM provider calls by outcome",
	}, []string{"provider", "outcome"})

	llmRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_retries_total",
		Help: "LLM calls retried after a transient failure",
	}, []string{"provider", "kind"})

	llmTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Tokens reported by LLM providers",
	}, []string{"provider", "direction"})

	llmCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_call_duration_ms",
		Help:    "LLM call duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"provider"})

	batchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_batch_runs_total",
		Help: "Regeneration runs by artifact kind and final status",
	}, []string{"kind", "status"})

	batchMemberErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_batch_member_errors_total",
		Help: "Team members that failed during a regeneration run",
	}, []string{"kind"})

	batchGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_generated_total",
		Help: "Records generated by regeneration runs",
	}, []string{"kind"})

	droppedReferencesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "insights_dropped_references_total",
		Help: "LLM selections dropped because they referenced unknown comments",
	}, []string{"kind"})
)

func init() {
	Registry.MustRegister(
		llmCallsTotal,
		llmRetriesTotal,
		llmTokensTotal,
		llmCallDuration,
		batchRunsTotal,
		batchMemberErrorsTotal,
		batchGeneratedTotal,
		droppedReferencesTotal,
	)
}

// ObserveLLMCall records one provider call. outcome is "ok" or an error kind.
func ObserveLLMCall(provider, outcome string, durationMs float64) {
	if durationMs < 0 {
		durationMs = 0
	}
	llmCallsTotal.WithLabelValues(provider, outcome).Inc()
	llmCallDuration.WithLabelValues(provider).Observe(durationMs)
}

// AddLLMTokens records token usage reported by a provider.
func AddLLMTokens(provider string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		llmTokensTotal.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		llmTokensTotal.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	}
}

// IncLLMRetry increments the retry counter.
func IncLLMRetry(provider, kind string) {
	llmRetriesTotal.WithLabelValues(provider, kind).Inc()
}

// ObserveBatchRun records the outcome of one regeneration run.
func ObserveBatchRun(kind, status string, generated, memberErrors int) {
	batchRunsTotal.WithLabelValues(kind, status).Inc()
	if generated > 0 {
		batchGeneratedTotal.WithLabelValues(kind).Add(float64(generated))
	}
	if memberErrors > 0 {
		batchMemberErrorsTotal.WithLabelValues(kind).Add(float64(memberErrors))
	}
}

// IncDroppedReference counts one selection removed by reference filtering.
func IncDroppedReference(kind string) {
	droppedReferencesTotal.WithLabelValues(kind).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// DroppedReferences returns the dropped-reference counter for kind.
func DroppedReferences(kind string) prometheus.Counter {
	return droppedReferencesTotal.WithLabelValues(kind)
}
