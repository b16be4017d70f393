package seniority

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

// Soft skills assessed once per member.
const (
	SkillPedagogy           = "pedagogy"
	SkillCrossTeamAwareness = "cross_team_awareness"
	SkillBoldness           = "boldness"
	SkillThoroughness       = "thoroughness"
)

// SoftSkills lists the assessed skills in output order.
var SoftSkills = []string{SkillPedagogy, SkillCrossTeamAwareness, SkillBoldness, SkillThoroughness}

var skillDescriptions = map[string]string{
	SkillPedagogy:           "explains the reasoning behind feedback so the author learns, links to docs or examples",
	SkillCrossTeamAwareness: "considers other services, teams, consumers and shared contracts affected by the change",
	SkillBoldness:           "raises uncomfortable or high-stakes concerns directly and pushes back when needed",
	SkillThoroughness:       "covers edge cases, error paths and the whole change rather than the first issue found",
}

// DefaultMaxSoftSkillComments bounds the comment bodies in one prompt.
const DefaultMaxSoftSkillComments = 80

// SoftSkillScore is one validated skill assessment.
type SoftSkillScore struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// SoftSkillInput is the data for one member's soft-skill prompt.
type SoftSkillInput struct {
	Reviewer    string
	Comments    []reviews.ClassifiedComment
	MaxComments int
}

//go:embed prompts/softskills.txt
var softSkillSource string

var softSkillTemplate = template.Must(template.New("softskills").Parse(softSkillSource))

type promptSkill struct {
	Name        string
	Description string
}

type promptComment struct {
	PRTitle string
	Body    string
}

// BuildSoftSkillPrompt renders the soft-skill prompt over at most MaxComments
// comment bodies.
func BuildSoftSkillPrompt(in SoftSkillInput) string {
	limit := in.MaxComments
	if limit <= 0 {
		limit = DefaultMaxSoftSkillComments
	}
	skills := make([]promptSkill, 0, len(SoftSkills))
	for _, name := range SoftSkills {
		skills = append(skills, promptSkill{Name: name, Description: skillDescriptions[name]})
	}
	comments := softSkillComments(in.Comments, limit)
	reviewer := strings.TrimSpace(in.Reviewer)
	if reviewer == "" {
		reviewer = "this reviewer"
	}
	data := struct {
		Reviewer string
		Skills   []promptSkill
		Comments []promptComment
	}{Reviewer: reviewer, Skills: skills, Comments: comments}

	var buf bytes.Buffer
	_ = softSkillTemplate.Execute(&buf, data)
	return buf.String()
}

// softSkillComments picks the first limit comments with a non-blank body.
func softSkillComments(in []reviews.ClassifiedComment, limit int) []promptComment {
	var comments []promptComment
	for _, c := range in {
		if len(comments) == limit {
			break
		}
		body := reviews.Excerpt(c.Body, reviews.MaxPromptBodyChars)
		if body == "" {
			continue
		}
		comments = append(comments, promptComment{PRTitle: strings.TrimSpace(c.PRTitle), Body: body})
	}
	return comments
}

var softSkillSchema = llm.MustCompileSchema("soft_skill", `{
	"type": "object",
	"required": ["scores"],
	"properties": {
		"scores": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "score", "reasoning"],
				"properties": {
					"name": {"type": "string", "enum": `+skillEnum()+`},
					"score": {"type": "integer", "minimum": 0, "maximum": 100},
					"reasoning": {"type": "string", "pattern": "\\S"}
				}
			}
		}
	}
}`)

func skillEnum() string {
	b, _ := json.Marshal(SoftSkills)
	return string(b)
}

type rawScores struct {
	Scores []struct {
		Name      string  `json:"name"`
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	} `json:"scores"`
}

// ParseSoftSkillResponse validates a soft-skill reply. Unknown or repeated
// skill names are rejected. Skills the model left out are simply absent.
func ParseSoftSkillResponse(content string) ([]SoftSkillScore, error) {
	var raw rawScores
	if err := softSkillSchema.Decode(content, &raw); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(raw.Scores))
	out := make([]SoftSkillScore, 0, len(raw.Scores))
	for i, s := range raw.Scores {
		name, err := llm.TrimmedText(content, fmt.Sprintf("scores.%d.name", i), s.Name)
		if err != nil {
			return nil, err
		}
		reasoning, err := llm.TrimmedText(content, fmt.Sprintf("scores.%d.reasoning", i), s.Reasoning)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, &llm.ParseError{
				Message:    fmt.Sprintf("scores.%d.name: duplicate skill %q", i, name),
				RawContent: content,
			}
		}
		seen[name] = true
		out = append(out, SoftSkillScore{
			Name:      name,
			Score:     int(s.Score),
			Reasoning: reasoning,
		})
	}
	return out, nil
}
