// Package growth finds shallow review comments where a deeper review would
// have helped and stores a coaching suggestion for each.
package growth

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
	// DefaultMaxOpportunities is the number of suggestions requested per member.
	DefaultMaxOpportunities = 3
)

// PromptInput is the data for one member's growth prompt.
type PromptInput struct {
	Reviewer         string
	Candidates       []reviews.CandidateComment
	MaxOpportunities int
}

// Opportunity is one comment the model flagged, with a suggestion.
type Opportunity struct {
	CommentID   int64               `json:"commentId"`
	CommentType reviews.CommentType `json:"commentType"`
	Suggestion  string              `json:"suggestion"`
}

// Ref returns the comment identity the opportunity points at.
func (o Opportunity) Ref() reviews.Ref {
	return reviews.Ref{Type: o.CommentType, ID: o.CommentID}
}

//go:embed prompts/growth.txt
var promptSource string

var promptTemplate = template.Must(template.New("growth").Parse(promptSource))

type promptCandidate struct {
	ID                   int64
	Type                 reviews.CommentType
	Category             string
	Repository           string
	PRNumber             int
	PRTitle              string
	FilePath             string
	Body                 string
	PRHadHighValueIssues bool
}

// BuildPrompt renders the growth-opportunity prompt.
func BuildPrompt(in PromptInput) string {
	limit := in.MaxOpportunities
	if limit <= 0 {
		limit = DefaultMaxOpportunities
	}
	reviewer := strings.TrimSpace(in.Reviewer)
	if reviewer == "" {
		reviewer = "this reviewer"
	}
	cands := make([]promptCandidate, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		cands = append(cands, promptCandidate{
			ID:                   c.ID,
			Type:                 c.Type,
			Category:             c.Category,
			Repository:           c.Repository,
			PRNumber:             c.PRNumber,
			PRTitle:              strings.TrimSpace(c.PRTitle),
			FilePath:             c.FilePath,
			Body:                 reviews.Excerpt(c.Body, reviews.MaxPromptBodyChars),
			PRHadHighValueIssues: c.PRHadHighValueIssues,
		})
	}
	data := struct {
		Reviewer         string
		Candidates       []promptCandidate
		MaxOpportunities int
	}{Reviewer: reviewer, Candidates: cands, MaxOpportunities: limit}

	var buf bytes.Buffer
	_ = promptTemplate.Execute(&buf, data)
	return buf.String()
}

var opportunitySchema = llm.MustCompileSchema("growth_opportunity", `{
	"type": "object",
	"required": ["opportunities"],
	"properties": {
		"opportunities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["commentId", "commentType", "suggestion"],
				"properties": {
					"commentId": {"type": "integer"},
					"commentType": {"type": "string", "enum": ["review_comment", "pr_comment"]},
					"suggestion": {"type": "string", "pattern": "\\S"}
				}
			}
		}
	}
}`)

type rawOpportunities struct {
	Opportunities []struct {
		CommentID   json.Number `json:"commentId"`
		CommentType string      `json:"commentType"`
		Suggestion  string      `json:"suggestion"`
	} `json:"opportunities"`
}

// ParseResponse validates a growth-opportunity reply.
func ParseResponse(content string) ([]Opportunity, error) {
	var raw rawOpportunities
	if err := opportunitySchema.Decode(content, &raw); err != nil {
		return nil, err
	}
	out := make([]Opportunity, 0, len(raw.Opportunities))
	for i, o := range raw.Opportunities {
		id, err := reviews.ParseCommentID(content, fmt.Sprintf("opportunities.%d.commentId", i), o.CommentID)
		if err != nil {
			return nil, err
		}
		suggestion, err := llm.TrimmedText(content, fmt.Sprintf("opportunities.%d.suggestion", i), o.Suggestion)
		if err != nil {
			return nil, err
		}
		out = append(out, Opportunity{
			CommentID:   id,
			CommentType: reviews.CommentType(strings.TrimSpace(o.CommentType)),
			Suggestion:  suggestion,
		})
	}
	return out, nil
}
