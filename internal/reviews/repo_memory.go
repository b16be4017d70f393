package reviews

import (
	"context"
	"sort"
	"sync"
	"time"
)

// PullRequest is the PR a stored comment belongs to.
type PullRequest struct {
	ID         int64
	Repository string
	Number     int
	Title      string
}

// StoredComment is a comment as held by MemoryRepo. An empty Category means
// the comment has not been classified.
type StoredComment struct {
	Type          CommentType
	ID            int64
	PullRequestID int64
	Reviewer      string
	FilePath      string
	Body          string
	CreatedAt     time.Time
	Category      string
	Confidence    int
}

// MemoryRepo is an in-memory implementation of Reader.
type MemoryRepo struct {
	mu       sync.RWMutex
	members  []TeamMember
	prs      map[int64]PullRequest
	comments []StoredComment
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{prs: make(map[int64]PullRequest)}
}

// AddMember stores a team member.
func (r *MemoryRepo) AddMember(m TeamMember) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, m)
}

// AddPullRequest stores or replaces a pull request.
func (r *MemoryRepo) AddPullRequest(pr PullRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prs[pr.ID] = pr
}

// AddComment stores a comment.
func (r *MemoryRepo) AddComment(c StoredComment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, c)
}

// GetAllTeamMembers returns every team member ordered by id.
func (r *MemoryRepo) GetAllTeamMembers(ctx context.Context) ([]TeamMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]TeamMember(nil), r.members...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetClassifiedCommentsForProfile returns classified comments of usernames in [start, end).
func (r *MemoryRepo) GetClassifiedCommentsForProfile(ctx context.Context, usernames []string, start, end time.Time) ([]ClassifiedComment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.inWindow(usernames, start, end)
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if matched[i].Type != matched[j].Type {
			return matched[i].Type < matched[j].Type
		}
		return matched[i].ID < matched[j].ID
	})
	out := make([]ClassifiedComment, 0, len(matched))
	for _, c := range matched {
		filePath := c.FilePath
		if c.Type == TypePRComment {
			filePath = ""
		}
		out = append(out, ClassifiedComment{
			Reviewer:   c.Reviewer,
			FilePath:   filePath,
			Category:   c.Category,
			Confidence: c.Confidence,
			Body:       c.Body,
			PRTitle:    r.prs[c.PullRequestID].Title,
		})
	}
	return out, nil
}

// GetCategoryDistributionByReviewer counts classified comments per reviewer and category.
func (r *MemoryRepo) GetCategoryDistributionByReviewer(ctx context.Context, usernames []string, start, end time.Time) ([]ReviewerCategoryCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct{ reviewer, category string }
	counts := make(map[key]int)
	for _, c := range r.inWindow(usernames, start, end) {
		counts[key{c.Reviewer, c.Category}]++
	}
	out := make([]ReviewerCategoryCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, ReviewerCategoryCount{Reviewer: k.reviewer, Category: k.category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reviewer != out[j].Reviewer {
			return out[i].Reviewer < out[j].Reviewer
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// GetTopClassifiedCommentsByMember returns high-value comments, most confident first.
func (r *MemoryRepo) GetTopClassifiedCommentsByMember(ctx context.Context, memberID int64, minConfidence int) ([]CandidateComment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.candidates(memberID, minConfidence, HighlightCategories)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetLowDepthCommentsByMember returns shallow comments, newest first.
func (r *MemoryRepo) GetLowDepthCommentsByMember(ctx context.Context, memberID int64, minConfidence int) ([]CandidateComment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	flagged := make(map[int64]bool)
	for _, c := range r.comments {
		if contains(highValueCategories, c.Category) {
			flagged[c.PullRequestID] = true
		}
	}
	out := r.candidates(memberID, minConfidence, LowDepthCategories)
	for i := range out {
		out[i].PRHadHighValueIssues = flagged[r.prOf(out[i].Ref())]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) inWindow(usernames []string, start, end time.Time) []StoredComment {
	var out []StoredComment
	for _, c := range r.comments {
		if c.Category == "" || !contains(usernames, c.Reviewer) {
			continue
		}
		if c.CreatedAt.Before(start) || !c.CreatedAt.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *MemoryRepo) candidates(memberID int64, minConfidence int, categories []string) []CandidateComment {
	username := ""
	for _, m := range r.members {
		if m.ID == memberID {
			username = m.GitHubUsername
			break
		}
	}
	if username == "" {
		return nil
	}
	var out []CandidateComment
	for _, c := range r.comments {
		if c.Reviewer != username || c.Confidence < minConfidence || !contains(categories, c.Category) {
			continue
		}
		pr := r.prs[c.PullRequestID]
		out = append(out, CandidateComment{
			ID:         c.ID,
			Type:       c.Type,
			Body:       c.Body,
			FilePath:   c.FilePath,
			PRTitle:    pr.Title,
			PRNumber:   pr.Number,
			Repository: pr.Repository,
			Category:   c.Category,
			Confidence: c.Confidence,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}

func (r *MemoryRepo) prOf(ref Ref) int64 {
	for _, c := range r.comments {
		if c.Type == ref.Type && c.ID == ref.ID {
			return c.PullRequestID
		}
	}
	return 0
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
