package llm

import (
	"context"
	"strings"
)

// Provider names accepted by the factory.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Service abstracts a single LLM provider. Classify sends exactly one request
// per call and returns the text content of the reply.
type Service interface {
	Classify(ctx context.Context, prompt string) (Response, error)
	Name() string
}

// Usage holds token counters reported by the provider.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Response is the only value a provider returns on success.
type Response struct {
	Content string `json:"content"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
}

// Complete reports whether all three fields are set.
func (c Config) Complete() bool {
	return strings.TrimSpace(c.Provider) != "" &&
		strings.TrimSpace(c.Model) != "" &&
		strings.TrimSpace(c.APIKey) != ""
}
