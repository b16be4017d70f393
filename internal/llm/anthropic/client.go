package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"review-insights/internal/llm"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4096
)

// Options tunes the underlying SDK client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxTokens  int
}

// Client implements llm.Service using the Anthropic Messages API.
type Client struct {
	sdk       anthropic.Client
	model     string
	maxTokens int64
}

// NewClient constructs a new Anthropic client.
func NewClient(apiKey, model string, opts Options) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required for Anthropic")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required for Anthropic")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
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
		sdk:       anthropic.NewClient(reqOpts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

func (c *Client) Name() string { return llm.ProviderAnthropic }

// Classify sends prompt as a single user turn and concatenates the text blocks
// of the reply.
func (c *Client) Classify(ctx context.Context, prompt string) (llm.Response, error) {
	startedAt := time.Now()
	resp, err := c.complete(ctx, prompt)
	llm.RecordCall(c.Name(), c.model, startedAt, resp, err)
	return resp, err
}

func (c *Client) complete(ctx context.Context, prompt string) (llm.Response, error) {
	msg, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return llm.Response{}, mapError(err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	out := llm.Response{Content: strings.TrimSpace(content.String())}
	if msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0 {
		out.Usage = &llm.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		}
	}
	return out, nil
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.FromStatus(llm.ProviderAnthropic, apiErr.StatusCode, err)
	}
	if llm.IsConnectionError(err) {
		return llm.NewNetworkError(llm.ProviderAnthropic, err)
	}
	return llm.NewError(llm.ProviderAnthropic, err)
}

var _ llm.Service = (*Client)(nil)
