// Package batch drives the sequential per-member loop shared by the insight
// generators.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"review-insights/internal/llm"
	"review-insights/internal/reviews"
	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/telemetry"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result summarizes one regeneration run.
type Result struct {
	Status         string `json:"status"`
	ProcessedCount int    `json:"processedCount"`
	GeneratedCount int    `json:"generatedCount"`
	Errors         int    `json:"errors"`
}

// Outcome is what a member step reports back to the loop. Skipped members had
// no candidate data. Generated counts persisted records, including those
// written before a failure.
type Outcome struct {
	Skipped   bool
	Generated int
}

// Run identifies a single regeneration run in logs.
type Run struct {
	ID   string
	Kind string
}

// NewRun returns a run with a fresh id.
func NewRun(kind string) Run {
	return Run{ID: uuid.NewString(), Kind: kind}
}

// Fields returns the base log fields of the run.
func (r Run) Fields(extra map[string]any) map[string]any {
	fields := map[string]any{"run_id": r.ID, "kind": r.Kind}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// MemberFunc processes one team member.
type MemberFunc func(ctx context.Context, member reviews.TeamMember) (Outcome, error)

// ForEachMember runs step for every member in order. A failing member is
// counted and logged and the loop moves on. The loop stops early only when ctx
// is done, in which case the partial result and ctx's error are returned.
func (r Run) ForEachMember(ctx context.Context, members []reviews.TeamMember, step MemberFunc) (Result, error) {
	started := time.Now()
	telemetry.Info("batch.run.start", r.Fields(map[string]any{"members": len(members)}))

	var res Result
	for _, member := range members {
		if err := ctx.Err(); err != nil {
			res.Status = status(res)
			r.finish(res, started, err)
			return res, err
		}
		out, err := step(ctx, member)
		res.GeneratedCount += out.Generated
		if err != nil {
			res.Errors++
			telemetry.Warn("batch.member_failed", r.Fields(map[string]any{
				"member_id":  member.ID,
				"username":   member.GitHubUsername,
				"error_kind": errorKind(err),
				"error":      llm.SanitizeError(err),
			}))
			continue
		}
		if out.Skipped {
			continue
		}
		res.ProcessedCount++
	}
	res.Status = status(res)
	r.finish(res, started, nil)
	return res, nil
}

func (r Run) finish(res Result, started time.Time, err error) {
	fields := r.Fields(map[string]any{
		"status":      res.Status,
		"processed":   res.ProcessedCount,
		"generated":   res.GeneratedCount,
		"errors":      res.Errors,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	metrics.ObserveBatchRun(r.Kind, res.Status, res.GeneratedCount, res.Errors)
	if err != nil {
		fields["error"] = llm.SanitizeError(err)
		telemetry.Warn("batch.run.aborted", fields)
		return
	}
	telemetry.Info("batch.run.finish", fields)
}

// status is error only when members failed and none succeeded.
func status(res Result) string {
	if res.Errors > 0 && res.ProcessedCount == 0 {
		return StatusError
	}
	return StatusSuccess
}

func errorKind(err error) string {
	if llm.IsParseError(err) {
		return "parse"
	}
	return string(llm.KindOf(err))
}
