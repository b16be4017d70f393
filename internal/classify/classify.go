// Package classify assigns a topic category and confidence to a single review
// comment using an LLM.
package classify

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"math"
	"strings"
	"text/template"

	"review-insights/internal/llm"
)

// Input is one comment to classify. Only Body is required.
type Input struct {
	Body        string `json:"body"`
	FilePath    string `json:"filePath,omitempty"`
	PRTitle     string `json:"prTitle,omitempty"`
	DiffSnippet string `json:"diffSnippet,omitempty"`
}

// Result is a validated classification. Confidence is an integer in [0,100].
type Result struct {
	Category   Category `json:"category"`
	Confidence int      `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// ErrEmptyBody is returned when there is nothing to classify.
var ErrEmptyBody = errors.New("comment body is empty")

//go:embed prompts/classify.txt
var promptSource string

var promptTemplate = template.Must(template.New("classify").Parse(promptSource))

type promptCategory struct {
	Name        string
	Description string
}

// BuildPrompt renders the classification prompt for in.
func BuildPrompt(in Input) string {
	cats := make([]promptCategory, 0, len(Categories))
	for _, c := range Categories {
		cats = append(cats, promptCategory{Name: string(c), Description: c.Description()})
	}
	data := struct {
		Categories  []promptCategory
		Body        string
		FilePath    string
		PRTitle     string
		DiffSnippet string
	}{
		Categories:  cats,
		Body:        strings.TrimSpace(in.Body),
		FilePath:    strings.TrimSpace(in.FilePath),
		PRTitle:     strings.TrimSpace(in.PRTitle),
		DiffSnippet: strings.TrimSpace(in.DiffSnippet),
	}
	var buf bytes.Buffer
	// The template only ranges over fields of data; Execute cannot fail.
	_ = promptTemplate.Execute(&buf, data)
	return buf.String()
}

var responseSchema = llm.MustCompileSchema("classification", `{
	"type": "object",
	"required": ["category", "confidence", "reasoning"],
	"properties": {
		"category": {"type": "string", "enum": `+mustJSON(categoryNames())+`},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reasoning": {"type": "string", "pattern": "\\S"}
	}
}`)

type rawResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseResponse validates an LLM reply. Failures are *llm.ParseError values
// carrying the unmodified content.
func ParseResponse(content string) (Result, error) {
	var raw rawResult
	if err := responseSchema.Decode(content, &raw); err != nil {
		return Result{}, err
	}
	reasoning, err := llm.TrimmedText(content, "reasoning", raw.Reasoning)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Category:   Category(strings.TrimSpace(raw.Category)),
		Confidence: int(math.Round(raw.Confidence * 100)),
		Reasoning:  reasoning,
	}, nil
}

// Classifier classifies comments through an llm.Service.
type Classifier struct {
	llm  llm.Service
	opts llm.RetryOptions
}

// NewClassifier returns a Classifier that retries transient failures of svc
// according to opts.
func NewClassifier(svc llm.Service, opts llm.RetryOptions) *Classifier {
	return &Classifier{llm: svc, opts: opts}
}

// Classify sends one prompt for in and returns the parsed result.
func (c *Classifier) Classify(ctx context.Context, in Input) (Result, error) {
	if c == nil || c.llm == nil {
		return Result{}, llm.ErrNotConfigured
	}
	if strings.TrimSpace(in.Body) == "" {
		return Result{}, ErrEmptyBody
	}
	resp, err := llm.WithRetry(ctx, func(ctx context.Context) (llm.Response, error) {
		return c.llm.Classify(ctx, BuildPrompt(in))
	}, c.opts)
	if err != nil {
		return Result{}, err
	}
	return ParseResponse(resp.Content)
}
