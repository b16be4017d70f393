// Package reviews reads team members and classified review comments.
package reviews

import "time"

// CommentType distinguishes inline review comments from top-level PR comments.
type CommentType string

const (
	TypeReviewComment CommentType = "review_comment"
	TypePRComment     CommentType = "pr_comment"
)

// Valid reports whether t is a known comment type.
func (t CommentType) Valid() bool {
	return t == TypeReviewComment || t == TypePRComment
}

// TeamMember is a reviewer whose comments are analyzed.
type TeamMember struct {
	ID             int64  `json:"id"`
	GitHubUsername string `json:"githubUsername"`
	DisplayName    string `json:"displayName"`
}

// ClassifiedComment is one classified comment used to build a seniority profile.
type ClassifiedComment struct {
	Reviewer   string `json:"reviewer"`
	FilePath   string `json:"filePath,omitempty"`
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
	Body       string `json:"body"`
	PRTitle    string `json:"prTitle,omitempty"`
}

// ReviewerCategoryCount is one row of a reviewer's category distribution.
type ReviewerCategoryCount struct {
	Reviewer string `json:"reviewer"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CandidateComment is a classified comment offered to the model for
// highlight or growth selection.
type CandidateComment struct {
	ID                   int64       `json:"commentId"`
	Type                 CommentType `json:"commentType"`
	Body                 string      `json:"body"`
	FilePath             string      `json:"filePath,omitempty"`
	PRTitle              string      `json:"prTitle,omitempty"`
	PRNumber             int         `json:"prNumber"`
	Repository           string      `json:"repository"`
	Category             string      `json:"category"`
	Confidence           int         `json:"confidence"`
	PRHadHighValueIssues bool        `json:"prHadHighValueIssues,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// Ref returns the identity of c.
func (c CandidateComment) Ref() Ref {
	return Ref{Type: c.Type, ID: c.ID}
}

// HighlightCategories are the categories eligible for highlight candidates.
var HighlightCategories = []string{"bug_correctness", "security", "architecture_design", "performance"}

// LowDepthCategories are the categories eligible for growth candidates.
var LowDepthCategories = []string{"nitpick_style", "readability_maintainability", "question_clarification"}

// highValueCategories marks a PR as having had substantive issues raised.
var highValueCategories = []string{"bug_correctness", "security", "architecture_design"}
