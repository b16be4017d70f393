package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"review-insights/internal/llm"
)

const defaultTimeout = 120 * time.Second

// Options tunes the underlying SDK client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client implements llm.Service using OpenAI Chat Completions.
type Client struct {
	sdk   openai.Client
	model string
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required for OpenAI")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(opts.BaseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{
		sdk:   openai.NewClient(reqOpts...),
		model: model,
	}, nil
}

func (c *Client) Name() string { return llm.ProviderOpenAI }

// Classify sends prompt as a single user message.
func (c *Client) Classify(ctx context.Context, prompt string) (llm.Response, error) {
	startedAt := time.Now()
	resp, err := c.complete(ctx, prompt)
	llm.RecordCall(c.Name(), c.model, startedAt, resp, err)
	return resp, err
}

func (c *Client) complete(ctx context.Context, prompt string) (llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if !isGPT5(c.model) {
		params.Temperature = openai.Float(0)
	}

	completion, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, mapError(err)
	}
	if len(completion.Choices) == 0 {
		return llm.Response{}, llm.NewError(c.Name(), errors.New("openai response missing choices"))
	}

	out := llm.Response{Content: strings.TrimSpace(completion.Choices[0].Message.Content)}
	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		out.Usage = &llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
		}
	}
	return out, nil
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llm.FromStatus(llm.ProviderOpenAI, apiErr.StatusCode, err)
	}
	if llm.IsConnectionError(err) {
		return llm.NewNetworkError(llm.ProviderOpenAI, err)
	}
	return llm.NewError(llm.ProviderOpenAI, err)
}

// GPT-5 family models reject an explicit temperature.
func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Service = (*Client)(nil)
