package seniority

import (
	"context"
	"fmt"
	"time"

	"review-insights/internal/batch"
	"review-insights/internal/llm"
	"review-insights/internal/reviews"
	"review-insights/internal/scoring"
	"review-insights/internal/shared/telemetry"
)

// DefaultWindowDays is the lookback window for classified comments.
const DefaultWindowDays = 180

// Config tunes a seniority run. Zero values select the defaults.
type Config struct {
	WindowDays  int
	MaxComments int
	Retry       llm.RetryOptions
	Now         func() time.Time
}

// Service regenerates every seniority profile.
type Service struct {
	reader reviews.Reader
	repo   Repo
	llm    llm.Service
	cfg    Config
}

// NewService wires a seniority Service.
func NewService(reader reviews.Reader, repo Repo, svc llm.Service, cfg Config) *Service {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = DefaultMaxSoftSkillComments
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{reader: reader, repo: repo, llm: svc, cfg: cfg}
}

// Generate deletes all profiles and rebuilds them for the current window.
// Members are processed one at a time. The soft-skill call for a member
// completes before any of that member's profiles are written.
func (s *Service) Generate(ctx context.Context) (batch.Result, error) {
	if s.llm == nil {
		return batch.Result{}, llm.ErrNotConfigured
	}
	run := batch.NewRun("seniority")

	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return batch.Result{}, fmt.Errorf("delete seniority profiles: %w", err)
	}

	members, err := s.reader.GetAllTeamMembers(ctx)
	if err != nil {
		return batch.Result{}, fmt.Errorf("list team members: %w", err)
	}
	end := s.cfg.Now().UTC()
	start := end.AddDate(0, 0, -s.cfg.WindowDays)
	telemetry.Info("seniority.window", run.Fields(map[string]any{
		"removed": removed,
		"start":   start.Format(time.RFC3339),
		"end":     end.Format(time.RFC3339),
	}))

	usernames := make([]string, 0, len(members))
	for _, m := range members {
		usernames = append(usernames, m.GitHubUsername)
	}
	comments, err := s.reader.GetClassifiedCommentsForProfile(ctx, usernames, start, end)
	if err != nil {
		return batch.Result{}, fmt.Errorf("load classified comments: %w", err)
	}
	distribution, err := s.reader.GetCategoryDistributionByReviewer(ctx, usernames, start, end)
	if err != nil {
		return batch.Result{}, fmt.Errorf("load category distribution: %w", err)
	}

	commentsByReviewer := make(map[string][]reviews.ClassifiedComment)
	for _, c := range comments {
		commentsByReviewer[c.Reviewer] = append(commentsByReviewer[c.Reviewer], c)
	}
	distByReviewer := make(map[string][]scoring.CategoryCount)
	for _, row := range distribution {
		distByReviewer[row.Reviewer] = append(distByReviewer[row.Reviewer], scoring.CategoryCount{Category: row.Category, Count: row.Count})
	}

	return run.ForEachMember(ctx, members, func(ctx context.Context, m reviews.TeamMember) (batch.Outcome, error) {
		memberComments := commentsByReviewer[m.GitHubUsername]
		if len(memberComments) == 0 {
			return batch.Outcome{Skipped: true}, nil
		}

		reviewer := m.DisplayName
		if reviewer == "" {
			reviewer = m.GitHubUsername
		}
		if included := len(softSkillComments(memberComments, s.cfg.MaxComments)); included < len(memberComments) {
			telemetry.Info("seniority.softskill_comments_capped", run.Fields(map[string]any{
				"member_id": m.ID,
				"comments":  len(memberComments),
				"included":  included,
			}))
		}
		prompt := BuildSoftSkillPrompt(SoftSkillInput{Reviewer: reviewer, Comments: memberComments, MaxComments: s.cfg.MaxComments})
		resp, err := llm.WithRetry(ctx, func(ctx context.Context) (llm.Response, error) {
			return s.llm.Classify(ctx, prompt)
		}, s.cfg.Retry)
		if err != nil {
			return batch.Outcome{}, err
		}
		scores, err := ParseSoftSkillResponse(resp.Content)
		if err != nil {
			return batch.Outcome{}, err
		}

		profiles := Aggregate(MemberInput{
			MemberID:     m.ID,
			Comments:     memberComments,
			Distribution: distByReviewer[m.GitHubUsername],
			SoftSkills:   scores,
			Now:          end,
		})
		var out batch.Outcome
		for _, p := range profiles {
			if err := s.repo.Upsert(ctx, p); err != nil {
				return out, fmt.Errorf("upsert %s profile: %w", p.DimensionName, err)
			}
			out.Generated++
		}
		return out, nil
	})
}
