package highlights

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"review-insights/internal/llm"
	"review-insights/internal/reviews"
)

const (
	// DefaultMaxCandidates bounds the candidates embedded in one prompt.
	DefaultMaxCandidates = 40
	// DefaultMaxSelections is the number of highlights requested per member.
	DefaultMaxSelections = 3
)

// PromptInput is the data for one member's highlight prompt.
type PromptInput struct {
	Reviewer      string
	Candidates    []reviews.CandidateComment
	MaxSelections int
}

// Selection is one comment the model picked as a highlight.
type Selection struct {
	CommentID   int64               `json:"commentId"`
	CommentType reviews.CommentType `json:"commentType"`
	Reasoning   string              `json:"reasoning"`
}

// Ref returns the comment identity the selection points at.
func (s Selection) Ref() reviews.Ref {
	return reviews.Ref{Type: s.CommentType, ID: s.CommentID}
}

//go:embed prompts/highlights.txt
var promptSource string

var promptTemplate = template.Must(template.New("highlights").Parse(promptSource))

// BuildPrompt renders the highlight-selection prompt. Every candidate's
// commentId and commentType are embedded so selections can be traced back.
func BuildPrompt(in PromptInput) string {
	return renderCandidates(promptTemplate, in.Reviewer, in.Candidates, in.MaxSelections, DefaultMaxSelections)
}

var selectionSchema = llm.MustCompileSchema("highlight_selection", `{
	"type": "object",
	"required": ["selections"],
	"properties": {
		"selections": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["commentId", "commentType", "reasoning"],
				"properties": {
					"commentId": {"type": "integer"},
					"commentType": {"type": "string", "enum": ["review_comment", "pr_comment"]},
					"reasoning": {"type": "string", "pattern": "\\S"}
				}
			}
		}
	}
}`)

type rawSelections struct {
	Selections []struct {
		CommentID   json.Number `json:"commentId"`
		CommentType string      `json:"commentType"`
		Reasoning   string      `json:"reasoning"`
	} `json:"selections"`
}

// ParseResponse validates a highlight-selection reply. An empty selections
// array is valid. Failures are *llm.ParseError values.
func ParseResponse(content string) ([]Selection, error) {
	var raw rawSelections
	if err := selectionSchema.Decode(content, &raw); err != nil {
		return nil, err
	}
	out := make([]Selection, 0, len(raw.Selections))
	for i, s := range raw.Selections {
		id, err := reviews.ParseCommentID(content, fmt.Sprintf("selections.%d.commentId", i), s.CommentID)
		if err != nil {
			return nil, err
		}
		reasoning, err := llm.TrimmedText(content, fmt.Sprintf("selections.%d.reasoning", i), s.Reasoning)
		if err != nil {
			return nil, err
		}
		out = append(out, Selection{
			CommentID:   id,
			CommentType: reviews.CommentType(strings.TrimSpace(s.CommentType)),
			Reasoning:   reasoning,
		})
	}
	return out, nil
}

type promptCandidate struct {
	ID         int64
	Type       reviews.CommentType
	Category   string
	Repository string
	PRNumber   int
	PRTitle    string
	FilePath   string
	Body       string
}

// renderCandidates executes a candidate-list template.
func renderCandidates(tmpl *template.Template, reviewer string, candidates []reviews.CandidateComment, maxSelections, fallback int) string {
	if maxSelections <= 0 {
		maxSelections = fallback
	}
	cands := make([]promptCandidate, 0, len(candidates))
	for _, c := range candidates {
		cands = append(cands, promptCandidate{
			ID:         c.ID,
			Type:       c.Type,
			Category:   c.Category,
			Repository: c.Repository,
			PRNumber:   c.PRNumber,
			PRTitle:    strings.TrimSpace(c.PRTitle),
			FilePath:   c.FilePath,
			Body:       reviews.Excerpt(c.Body, reviews.MaxPromptBodyChars),
		})
	}
	if strings.TrimSpace(reviewer) == "" {
		reviewer = "this reviewer"
	}
	data := struct {
		Reviewer      string
		Candidates    []promptCandidate
		MaxSelections int
	}{Reviewer: reviewer, Candidates: cands, MaxSelections: maxSelections}

	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
