package reviews

import (
	"context"
	"time"
)

// Reader is the read side of the review store consumed by the insight services.
type Reader interface {
	GetAllTeamMembers(ctx context.Context) ([]TeamMember, error)
	// GetClassifiedCommentsForProfile returns comments created in [start, end).
	GetClassifiedCommentsForProfile(ctx context.Context, usernames []string, start, end time.Time) ([]ClassifiedComment, error)
	GetCategoryDistributionByReviewer(ctx context.Context, usernames []string, start, end time.Time) ([]ReviewerCategoryCount, error)
	// GetTopClassifiedCommentsByMember returns high-value comments ordered by
	// confidence, most confident first.
	GetTopClassifiedCommentsByMember(ctx context.Context, memberID int64, minConfidence int) ([]CandidateComment, error)
	GetLowDepthCommentsByMember(ctx context.Context, memberID int64, minConfidence int) ([]CandidateComment, error)
}
