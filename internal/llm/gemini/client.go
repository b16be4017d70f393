package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"review-insights/internal/llm"
)

const defaultTimeout = 120 * time.Second

// Options tunes the underlying SDK client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client implements llm.Service using the Gemini generateContent API.
type Client struct {
	sdk   *genai.Client
	model string
}

// NewClient constructs a new Gemini client.
func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required for Gemini")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required for Gemini")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if strings.TrimSpace(opts.BaseURL) != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	sdk, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{sdk: sdk, model: model}, nil
}

func (c *Client) Name() string { return llm.ProviderGemini }

// Classify sends prompt as a single user turn.
func (c *Client) Classify(ctx context.Context, prompt string) (llm.Response, error) {
	startedAt := time.Now()
	resp, err := c.complete(ctx, prompt)
	llm.RecordCall(c.Name(), c.model, startedAt, resp, err)
	return resp, err
}

func (c *Client) complete(ctx context.Context, prompt string) (llm.Response, error) {
	result, err := c.sdk.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return llm.Response{}, mapError(err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return llm.Response{}, llm.NewError(c.Name(), errors.New("gemini response missing candidates"))
	}

	var content strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		content.WriteString(part.Text)
	}
	out := llm.Response{Content: strings.TrimSpace(content.String())}
	if usage := result.UsageMetadata; usage != nil && (usage.PromptTokenCount > 0 || usage.CandidatesTokenCount > 0) {
		out.Usage = &llm.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
		}
	}
	return out, nil
}

// Gemini reports an invalid key as 400 INVALID_ARGUMENT and throttling as
// RESOURCE_EXHAUSTED, so the status text is checked alongside the code.
func mapError(err error) error {
	code, status, message, ok := apiErrorDetails(err)
	if ok {
		switch {
		case code == 401 || code == 403 || status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
			return llm.NewAuthError(llm.ProviderGemini, err)
		case code == 400 && strings.Contains(strings.ToLower(message), "api key not valid"):
			return llm.NewAuthError(llm.ProviderGemini, err)
		case code == 429 || status == "RESOURCE_EXHAUSTED":
			return llm.NewRateLimitError(llm.ProviderGemini, err)
		default:
			return llm.NewError(llm.ProviderGemini, err)
		}
	}
	if llm.IsConnectionError(err) {
		return llm.NewNetworkError(llm.ProviderGemini, err)
	}
	return llm.NewError(llm.ProviderGemini, err)
}

func apiErrorDetails(err error) (int, string, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message, true
	}
	return 0, "", "", false
}

var _ llm.Service = (*Client)(nil)
