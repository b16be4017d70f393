package highlights

import (
	"context"
	"fmt"
	"time"

	"review-insights/internal/batch"
	"review-insights/internal/llm"
	"review-insights/internal/reviews"
	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/telemetry"
)

// DefaultMinConfidence is the classification confidence a candidate needs.
const DefaultMinConfidence = 70

// Config tunes a highlight run. Zero values select the defaults.
type Config struct {
	MinConfidence int
	MaxCandidates int
	MaxSelections int
	Retry         llm.RetryOptions
	Now           func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MinConfidence <= 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	if c.MaxSelections <= 0 {
		c.MaxSelections = DefaultMaxSelections
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Service regenerates highlight records for every team member.
type Service struct {
	reader reviews.Reader
	repo   Repo
	llm    llm.Service
	cfg    Config
}

// NewService wires a highlight Service.
func NewService(reader reviews.Reader, repo Repo, svc llm.Service, cfg Config) *Service {
	return &Service{reader: reader, repo: repo, llm: svc, cfg: cfg.withDefaults()}
}

// Generate deletes all highlights and builds them again from the current
// classified comments. Member failures are counted in the result. A returned
// error means the run could not start or was cancelled.
func (s *Service) Generate(ctx context.Context) (batch.Result, error) {
	if s.llm == nil {
		return batch.Result{}, llm.ErrNotConfigured
	}
	run := batch.NewRun(string(KindHighlight))

	removed, err := s.repo.DeleteAllByType(ctx, KindHighlight)
	if err != nil {
		return batch.Result{}, fmt.Errorf("delete highlights: %w", err)
	}
	telemetry.Info("highlights.cleared", run.Fields(map[string]any{"removed": removed}))

	members, err := s.reader.GetAllTeamMembers(ctx)
	if err != nil {
		return batch.Result{}, fmt.Errorf("list team members: %w", err)
	}
	return run.ForEachMember(ctx, members, func(ctx context.Context, m reviews.TeamMember) (batch.Outcome, error) {
		return s.generateForMember(ctx, run, m)
	})
}

func (s *Service) generateForMember(ctx context.Context, run batch.Run, m reviews.TeamMember) (batch.Outcome, error) {
	candidates, err := s.reader.GetTopClassifiedCommentsByMember(ctx, m.ID, s.cfg.MinConfidence)
	if err != nil {
		return batch.Outcome{}, fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return batch.Outcome{Skipped: true}, nil
	}
	candidates = reviews.Cap(candidates, s.cfg.MaxCandidates)

	prompt := BuildPrompt(PromptInput{
		Reviewer:      displayName(m),
		Candidates:    candidates,
		MaxSelections: s.cfg.MaxSelections,
	})
	resp, err := llm.WithRetry(ctx, func(ctx context.Context) (llm.Response, error) {
		return s.llm.Classify(ctx, prompt)
	}, s.cfg.Retry)
	if err != nil {
		return batch.Outcome{}, err
	}
	selections, err := ParseResponse(resp.Content)
	if err != nil {
		return batch.Outcome{}, err
	}

	kept, dropped := reviews.FilterKnown(selections, reviews.NewRefSet(candidates), Selection.Ref)
	kept = reviews.UniqueRefs(kept, Selection.Ref)
	for _, d := range dropped {
		metrics.IncDroppedReference(string(KindHighlight))
		telemetry.Warn("highlights.dropped_reference", run.Fields(map[string]any{
			"member_id":    m.ID,
			"comment_type": string(d.CommentType),
			"comment_id":   d.CommentID,
		}))
	}

	var out batch.Outcome
	for _, sel := range kept {
		rec := NewRecord(m.ID, KindHighlight, sel.Ref(), sel.Reasoning, s.cfg.Now())
		if err := s.repo.Insert(ctx, rec); err != nil {
			return out, fmt.Errorf("insert highlight: %w", err)
		}
		out.Generated++
	}
	return out, nil
}

func displayName(m reviews.TeamMember) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.GitHubUsername
}
