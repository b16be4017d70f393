// Package providers selects an llm.Service implementation by provider name.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"review-insights/internal/llm"
	"review-insights/internal/llm/anthropic"
	"review-insights/internal/llm/gemini"
	"review-insights/internal/llm/openai"
)

// ErrUnknownProvider is returned for a provider name with no adapter.
var ErrUnknownProvider = errors.New("unknown llm provider")

// Options carries transport settings shared by every adapter.
type Options struct {
	Timeout time.Duration
	// BaseURL overrides the provider endpoint; used by tests and proxies.
	BaseURL string
}

// SettingsSource yields LLM settings from external storage. Missing values are
// returned as empty strings.
type SettingsSource interface {
	LLMSettings(ctx context.Context) (llm.Config, error)
}

// New constructs the adapter named by cfg.Provider.
func New(cfg llm.Config, opts Options) (llm.Service, error) {
	switch normalizeProvider(cfg.Provider) {
	case llm.ProviderOpenAI:
		return openai.NewClient(cfg.APIKey, cfg.Model, openai.Options{Timeout: opts.Timeout, BaseURL: opts.BaseURL})
	case llm.ProviderAnthropic:
		return anthropic.NewClient(cfg.APIKey, cfg.Model, anthropic.Options{Timeout: opts.Timeout, BaseURL: opts.BaseURL})
	case llm.ProviderGemini:
		return gemini.NewClient(cfg.APIKey, cfg.Model, gemini.Options{Timeout: opts.Timeout, BaseURL: opts.BaseURL})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// NewFromSettings reads provider, model and API key from source. If any of the
// three is absent it returns llm.ErrNotConfigured and never a partial client.
func NewFromSettings(ctx context.Context, source SettingsSource, opts Options) (llm.Service, error) {
	if source == nil {
		return nil, llm.ErrNotConfigured
	}
	cfg, err := source.LLMSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load llm settings: %w", err)
	}
	if !cfg.Complete() {
		return nil, llm.ErrNotConfigured
	}
	return New(cfg, opts)
}

func normalizeProvider(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return llm.ProviderOpenAI
	case "anthropic", "claude":
		return llm.ProviderAnthropic
	case "gemini", "google":
		return llm.ProviderGemini
	default:
		return ""
	}
}
