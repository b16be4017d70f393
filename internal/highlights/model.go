// Package highlights selects exemplary review comments per team member and
// stores them as highlight records.
package highlights

import (
	"context"
	"time"

	"github.com/google/uuid"

	"review-insights/internal/reviews"
)

// Kind is the artifact type of a stored record.
type Kind string

const (
	KindHighlight         Kind = "highlight"
	KindGrowthOpportunity Kind = "growth_opportunity"
)

// Record is one persisted highlight or growth opportunity. Text holds the
// model's reasoning for highlights and its suggestion for growth records.
type Record struct {
	ID           uuid.UUID           `json:"id"`
	TeamMemberID int64               `json:"teamMemberId"`
	Kind         Kind                `json:"kind"`
	CommentType  reviews.CommentType `json:"commentType"`
	CommentID    int64               `json:"commentId"`
	Text         string              `json:"text"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Repo persists highlight records.
type Repo interface {
	Insert(ctx context.Context, rec Record) error
	DeleteAllByType(ctx context.Context, kind Kind) (int64, error)
}

// NewRecord builds a record with a fresh id.
func NewRecord(memberID int64, kind Kind, ref reviews.Ref, text string, now time.Time) Record {
	return Record{
		ID:           uuid.New(),
		TeamMemberID: memberID,
		Kind:         kind,
		CommentType:  ref.Type,
		CommentID:    ref.ID,
		Text:         text,
		CreatedAt:    now.UTC(),
	}
}
