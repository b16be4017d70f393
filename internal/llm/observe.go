package llm

import (
	"time"

	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/telemetry"
)

// RecordCall logs and counts one adapter call. Adapters call it once per
// request, after the provider error has been normalized.
func RecordCall(provider, model string, startedAt time.Time, resp Response, err error) {
	durationMs := float64(time.Since(startedAt).Microseconds()) / 1000.0
	fields := map[string]any{
		"provider":    provider,
		"model":       model,
		"duration_ms": durationMs,
	}
	if err != nil {
		kind := string(KindOf(err))
		metrics.ObserveLLMCall(provider, kind, durationMs)
		fields["kind"] = kind
		fields["error"] = SanitizeError(err)
		telemetry.Warn("llm.call", fields)
		return
	}
	metrics.ObserveLLMCall(provider, "ok", durationMs)
	if resp.Usage != nil {
		metrics.AddLLMTokens(provider, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		fields["prompt_tokens"] = resp.Usage.PromptTokens
		fields["completion_tokens"] = resp.Usage.CompletionTokens
	}
	telemetry.Info("llm.call", fields)
}
