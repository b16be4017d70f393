package reviews

import (
	"context"
	"database/sql"
	"time"
)

// PGRepo implements Reader using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// classifiedComments unions both comment tables with their classification.
const classifiedComments = `
WITH comments AS (
    SELECT 'review_comment' AS comment_type, rc.id, rc.pull_request_id, rc.reviewer, rc.file_path, rc.body, rc.created_at
    FROM review_comments rc
    UNION ALL
    SELECT 'pr_comment' AS comment_type, pc.id, pc.pull_request_id, pc.reviewer, NULL AS file_path, pc.body, pc.created_at
    FROM pr_comments pc
), classified AS (
    SELECT c.comment_type, c.id, c.pull_request_id, c.reviewer, c.file_path, c.body, c.created_at,
           cc.category, cc.confidence
    FROM comments c
    JOIN comment_classifications cc ON cc.comment_type = c.comment_type AND cc.comment_id = c.id
)`

// GetAllTeamMembers returns every team member ordered by id.
func (r *PGRepo) GetAllTeamMembers(ctx context.Context) ([]TeamMember, error) {
	const query = `
SELECT id, github_username, display_name
FROM team_members
ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		var displayName sql.NullString
		if err := rows.Scan(&m.ID, &m.GitHubUsername, &displayName); err != nil {
			return nil, err
		}
		m.DisplayName = displayName.String
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetClassifiedCommentsForProfile returns the classified comments of usernames
// created in [start, end).
func (r *PGRepo) GetClassifiedCommentsForProfile(ctx context.Context, usernames []string, start, end time.Time) ([]ClassifiedComment, error) {
	const query = classifiedComments + `
SELECT c.reviewer, c.file_path, c.category, c.confidence, c.body, pr.title
FROM classified c
JOIN pull_requests pr ON pr.id = c.pull_request_id
WHERE c.reviewer = ANY($1) AND c.created_at >= $2 AND c.created_at < $3
ORDER BY c.created_at, c.comment_type, c.id`
	if len(usernames) == 0 {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx, query, usernames, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClassifiedComment
	for rows.Next() {
		var c ClassifiedComment
		var filePath, title sql.NullString
		if err := rows.Scan(&c.Reviewer, &filePath, &c.Category, &c.Confidence, &c.Body, &title); err != nil {
			return nil, err
		}
		c.FilePath = filePath.String
		c.PRTitle = title.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategoryDistributionByReviewer counts classified comments per reviewer
// and category in [start, end).
func (r *PGRepo) GetCategoryDistributionByReviewer(ctx context.Context, usernames []string, start, end time.Time) ([]ReviewerCategoryCount, error) {
	const query = classifiedComments + `
SELECT c.reviewer, c.category, COUNT(*)
FROM classified c
WHERE c.reviewer = ANY($1) AND c.created_at >= $2 AND c.created_at < $3
GROUP BY c.reviewer, c.category
ORDER BY c.reviewer, c.category`
	if len(usernames) == 0 {
		return nil, nil
	}
	rows, err := r.DB.QueryContext(ctx, query, usernames, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReviewerCategoryCount
	for rows.Next() {
		var row ReviewerCategoryCount
		if err := rows.Scan(&row.Reviewer, &row.Category, &row.Count); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetTopClassifiedCommentsByMember returns the member's high-value comments
// with confidence of at least minConfidence.
func (r *PGRepo) GetTopClassifiedCommentsByMember(ctx context.Context, memberID int64, minConfidence int) ([]CandidateComment, error) {
	const query = classifiedComments + `
SELECT c.comment_type, c.id, c.body, c.file_path, pr.title, pr.number, pr.repository,
       c.category, c.confidence, FALSE, c.created_at
FROM classified c
JOIN team_members tm ON tm.github_username = c.reviewer
JOIN pull_requests pr ON pr.id = c.pull_request_id
WHERE tm.id = $1 AND c.confidence >= $2 AND c.category = ANY($3)
ORDER BY c.confidence DESC, c.created_at DESC, c.comment_type, c.id`
	return r.queryCandidates(ctx, query, memberID, minConfidence, HighlightCategories)
}

// GetLowDepthCommentsByMember returns the member's shallow comments together
// with whether anyone raised a high-value issue on the same PR.
func (r *PGRepo) GetLowDepthCommentsByMember(ctx context.Context, memberID int64, minConfidence int) ([]CandidateComment, error) {
	const query = classifiedComments + `
SELECT c.comment_type, c.id, c.body, c.file_path, pr.title, pr.number, pr.repository,
       c.category, c.confidence,
       EXISTS (
           SELECT 1 FROM classified o
           WHERE o.pull_request_id = c.pull_request_id AND o.category = ANY($4)
       ),
       c.created_at
FROM classified c
JOIN team_members tm ON tm.github_username = c.reviewer
JOIN pull_requests pr ON pr.id = c.pull_request_id
WHERE tm.id = $1 AND c.confidence >= $2 AND c.category = ANY($3)
ORDER BY c.created_at DESC, c.comment_type, c.id`
	return r.queryCandidates(ctx, query, memberID, minConfidence, LowDepthCategories, highValueCategories)
}

func (r *PGRepo) queryCandidates(ctx context.Context, query string, args ...any) ([]CandidateComment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidateComment
	for rows.Next() {
		var c CandidateComment
		var commentType string
		var filePath, title, repository sql.NullString
		if err := rows.Scan(
			&commentType,
			&c.ID,
			&c.Body,
			&filePath,
			&title,
			&c.PRNumber,
			&repository,
			&c.Category,
			&c.Confidence,
			&c.PRHadHighValueIssues,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		c.Type = CommentType(commentType)
		c.FilePath = filePath.String
		c.PRTitle = title.String
		c.Repository = repository.String
		out = append(out, c)
	}
	return out, rows.Err()
}
