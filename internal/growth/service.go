package growth

import (
	"context"
	"fmt"
	"time"

	"review-insights/internal/batch"
	"review-insights/internal/highlights"
	"review-insights/internal/llm"
	"review-insights/internal/reviews"
	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/telemetry"
)

// DefaultMinConfidence is the classification confidence a low-depth comment
// needs to be considered.
const DefaultMinConfidence = 70

// Config tunes a growth run. Zero values select the defaults.
type Config struct {
	MinConfidence    int
	MaxCandidates    int
	MaxOpportunities int
	Retry            llm.RetryOptions
	Now              func() time.Time
}

// Service regenerates growth-opportunity records for every team member.
// Records share the highlights store under the growth_opportunity kind.
type Service struct {
	reader reviews.Reader
	repo   highlights.Repo
	llm    llm.Service
	cfg    Config
}

// NewService wires a growth Service.
func NewService(reader reviews.Reader, repo highlights.Repo, svc llm.Service, cfg Config) *Service {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.MaxOpportunities <= 0 {
		cfg.MaxOpportunities = DefaultMaxOpportunities
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{reader: reader, repo: repo, llm: svc, cfg: cfg}
}

// Generate replaces every growth opportunity with a fresh set.
func (s *Service) Generate(ctx context.Context) (batch.Result, error) {
	if s.llm == nil {
		return batch.Result{}, llm.ErrNotConfigured
	}
	kind := highlights.KindGrowthOpportunity
	run := batch.NewRun(string(kind))

	removed, err := s.repo.DeleteAllByType(ctx, kind)
	if err != nil {
		return batch.Result{}, fmt.Errorf("delete growth opportunities: %w", err)
	}
	telemetry.Info("growth.cleared", run.Fields(map[string]any{"removed": removed}))

	members, err := s.reader.GetAllTeamMembers(ctx)
	if err != nil {
		return batch.Result{}, fmt.Errorf("list team members: %w", err)
	}
	return run.ForEachMember(ctx, members, func(ctx context.Context, m reviews.TeamMember) (batch.Outcome, error) {
		candidates, err := s.reader.GetLowDepthCommentsByMember(ctx, m.ID, s.cfg.MinConfidence)
		if err != nil {
			return batch.Outcome{}, fmt.Errorf("load candidates: %w", err)
		}
		if len(candidates) == 0 {
			return batch.Outcome{Skipped: true}, nil
		}
		candidates = reviews.Cap(candidates, s.cfg.MaxCandidates)

		reviewer := m.DisplayName
		if reviewer == "" {
			reviewer = m.GitHubUsername
		}
		prompt := BuildPrompt(PromptInput{Reviewer: reviewer, Candidates: candidates, MaxOpportunities: s.cfg.MaxOpportunities})
		resp, err := llm.WithRetry(ctx, func(ctx context.Context) (llm.Response, error) {
			return s.llm.Classify(ctx, prompt)
		}, s.cfg.Retry)
		if err != nil {
			return batch.Outcome{}, err
		}
		opportunities, err := ParseResponse(resp.Content)
		if err != nil {
			return batch.Outcome{}, err
		}

		kept, dropped := reviews.FilterKnown(opportunities, reviews.NewRefSet(candidates), Opportunity.Ref)
		kept = reviews.UniqueRefs(kept, Opportunity.Ref)
		for _, d := range dropped {
			metrics.IncDroppedReference(string(kind))
			telemetry.Warn("growth.dropped_reference", run.Fields(map[string]any{
				"member_id":    m.ID,
				"comment_type": string(d.CommentType),
				"comment_id":   d.CommentID,
			}))
		}

		var out batch.Outcome
		for _, o := range kept {
			rec := highlights.NewRecord(m.ID, kind, o.Ref(), o.Suggestion, s.cfg.Now())
			if err := s.repo.Insert(ctx, rec); err != nil {
				return out, fmt.Errorf("insert growth opportunity: %w", err)
			}
			out.Generated++
		}
		return out, nil
	})
}
