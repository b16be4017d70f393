package highlights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"review-insights/internal/batch"
	"review-insights/internal/llm"
	"review-insights/internal/reviews"
	"review-insights/internal/shared/metrics"
	"review-insights/internal/shared/telemetry"
)

func TestParseResponse(t *testing.T) {
	got, err := ParseResponse("```json\n{\"selections\":[{\"commentId\":10,\"commentType\":\"review_comment\",\"reasoning\":\"  caught a race  \"},{\"commentId\":3.0,\"commentType\":\"pr_comment\",\"reasoning\":\"clear\"}]}\n```")
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	want := []Selection{
		{CommentID: 10, CommentType: reviews.TypeReviewComment, Reasoning: "caught a race"},
		{CommentID: 3, CommentType: reviews.TypePRComment, Reasoning: "clear"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selection %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseResponseKeepsLargeIDsExact(t *testing.T) {
	got, err := ParseResponse(`{"selections":[{"commentId":9007199254740993,"commentType":"review_comment","reasoning":"x"}]}`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(got) != 1 || got[0].CommentID != 9007199254740993 {
		t.Fatalf("got %+v", got)
	}
}

func TestGenerateStoresRepeatedSelectionOnce(t *testing.T) {
	observeLogs(t)
	repo := NewMemoryRepo()
	fake := &fakeLLM{byPrompt: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Alice") {
			return `{"selections":[
				{"commentId":10,"commentType":"review_comment","reasoning":"found a data race"},
				{"commentId":10,"commentType":"review_comment","reasoning":"same comment again"}
			]}`, nil
		}
		return `{"selections":[]}`, nil
	}}
	res, err := NewService(seedReader(), repo, fake, Config{}).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.GeneratedCount != 1 {
		t.Fatalf("res = %+v, want one generated record", res)
	}
	recs := repo.Records(KindHighlight)
	if len(recs) != 1 || recs[0].Text != "found a data race" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestParseResponseEmptySelectionsIsValid(t *testing.T) {
	got, err := ParseResponse(`{"selections": []}`)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "not json", content: "here you go", want: "not valid JSON"},
		{name: "top-level array", content: `[]`, want: "not a JSON object"},
		{name: "missing key", content: `{"picks": []}`, want: "selections"},
		{name: "selections not array", content: `{"selections": {}}`, want: "selections"},
		{name: "fractional id", content: `{"selections":[{"commentId":1.5,"commentType":"pr_comment","reasoning":"x"}]}`, want: "selections.0.commentId"},
		{name: "string id", content: `{"selections":[{"commentId":"1","commentType":"pr_comment","reasoning":"x"}]}`, want: "commentId"},
		{name: "bad type", content: `{"selections":[{"commentId":1,"commentType":"issue","reasoning":"x"}]}`, want: "commentType"},
		{name: "empty reasoning", content: `{"selections":[{"commentId":1,"commentType":"pr_comment","reasoning":""}]}`, want: "reasoning"},
		{name: "no-break space reasoning", content: `{"selections":[{"commentId":1,"commentType":"pr_comment","reasoning":"\u00a0"}]}`, want: "selections.0.reasoning: must not be empty"},
		{name: "id out of range", content: `{"selections":[{"commentId":1e30,"commentType":"pr_comment","reasoning":"x"}]}`, want: "selections.0.commentId"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.content)
			var pe *llm.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *llm.ParseError", err)
			}
			if !strings.Contains(pe.Message, tt.want) {
				t.Fatalf("Message = %q, want it to mention %q", pe.Message, tt.want)
			}
			if pe.RawContent != tt.content {
				t.Fatalf("RawContent = %q", pe.RawContent)
			}
		})
	}
}

func TestBuildPromptEmbedsIdentities(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Reviewer: "Alice",
		Candidates: []reviews.CandidateComment{
			{ID: 10, Type: reviews.TypeReviewComment, Body: "race on map", Category: "bug_correctness", Repository: "acme/api", PRNumber: 4, FilePath: "cache.go"},
			{ID: 11, Type: reviews.TypePRComment, Body: strings.Repeat("a", 2000), Category: "security", Repository: "acme/api", PRNumber: 5},
		},
	})
	for _, want := range []string{
		"Alice",
		"commentId: 10", "commentType: review_comment",
		"commentId: 11", "commentType: pr_comment",
		"acme/api#4", "cache.go", "race on map",
		"at most 3",
		"no markdown fences, no extra text",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, strings.Repeat("a", reviews.MaxPromptBodyChars+1)) {
		t.Error("long bodies should be truncated")
	}
}

type fakeLLM struct {
	byPrompt func(prompt string) (string, error)
	calls    int
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Classify(_ context.Context, prompt string) (llm.Response, error) {
	f.calls++
	content, err := f.byPrompt(prompt)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Content: content}, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func seedReader() *reviews.MemoryRepo {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r := reviews.NewMemoryRepo()
	r.AddMember(reviews.TeamMember{ID: 1, GitHubUsername: "alice", DisplayName: "Alice"})
	r.AddMember(reviews.TeamMember{ID: 2, GitHubUsername: "bob", DisplayName: "Bob"})
	r.AddMember(reviews.TeamMember{ID: 3, GitHubUsername: "carol"})
	r.AddPullRequest(reviews.PullRequest{ID: 1, Repository: "acme/api", Number: 9, Title: "Cache layer"})
	r.AddComment(reviews.StoredComment{Type: reviews.TypeReviewComment, ID: 10, PullRequestID: 1, Reviewer: "alice",
		Body: "this map is written from two goroutines", CreatedAt: now, Category: "bug_correctness", Confidence: 92})
	r.AddComment(reviews.StoredComment{Type: reviews.TypeReviewComment, ID: 20, PullRequestID: 1, Reviewer: "bob",
		Body: "token leaks into logs", CreatedAt: now, Category: "security", Confidence: 88})
	r.AddComment(reviews.StoredComment{Type: reviews.TypeReviewComment, ID: 30, PullRequestID: 1, Reviewer: "carol",
		Body: "nit: spacing", CreatedAt: now, Category: "nitpick_style", Confidence: 99})
	return r
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(nil) })
	return logs
}

func TestGenerateDropsHallucinatedReferences(t *testing.T) {
	logs := observeLogs(t)
	repo := NewMemoryRepo()
	fake := &fakeLLM{byPrompt: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Alice") {
			return `{"selections":[
				{"commentId":10,"commentType":"review_comment","reasoning":"found a data race"},
				{"commentId":999,"commentType":"review_comment","reasoning":"invented"}
			]}`, nil
		}
		return `{"selections":[]}`, nil
	}}
	before := testutil.ToFloat64(metrics.DroppedReferences(string(KindHighlight)))

	svc := NewService(seedReader(), repo, fake, Config{Retry: llm.RetryOptions{Sleep: noSleep}})
	res, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := batch.Result{Status: batch.StatusSuccess, ProcessedCount: 2, GeneratedCount: 1, Errors: 0}
	if res != want {
		t.Fatalf("res = %+v, want %+v", res, want)
	}
	if fake.calls != 2 {
		t.Fatalf("llm calls = %d, want 2 (carol has no candidates)", fake.calls)
	}
	recs := repo.Records(KindHighlight)
	if len(recs) != 1 || recs[0].CommentID != 10 || recs[0].TeamMemberID != 1 || recs[0].Text != "found a data race" {
		t.Fatalf("records = %+v", recs)
	}
	if recs[0].ID == uuid.Nil {
		t.Fatal("record id should be set")
	}
	if got := testutil.ToFloat64(metrics.DroppedReferences(string(KindHighlight))) - before; got != 1 {
		t.Fatalf("dropped metric delta = %v, want 1", got)
	}
	if logs.FilterMessage("highlights.dropped_reference").Len() != 1 {
		t.Fatal("expected one dropped_reference log")
	}
}

func TestGenerateReplacesPreviousHighlights(t *testing.T) {
	observeLogs(t)
	repo := NewMemoryRepo()
	stale := NewRecord(1, KindHighlight, reviews.Ref{Type: reviews.TypePRComment, ID: 77}, "old", time.Now())
	growth := NewRecord(1, KindGrowthOpportunity, reviews.Ref{Type: reviews.TypePRComment, ID: 78}, "keep", time.Now())
	_ = repo.Insert(context.Background(), stale)
	_ = repo.Insert(context.Background(), growth)

	fake := &fakeLLM{byPrompt: func(string) (string, error) { return `{"selections":[]}`, nil }}
	if _, err := NewService(seedReader(), repo, fake, Config{}).Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := repo.Records(KindHighlight); len(got) != 0 {
		t.Fatalf("stale highlights survived: %+v", got)
	}
	if got := repo.Records(KindGrowthOpportunity); len(got) != 1 {
		t.Fatalf("growth records should be untouched: %+v", got)
	}
}

func TestGenerateCountsMemberFailures(t *testing.T) {
	observeLogs(t)
	fake := &fakeLLM{byPrompt: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Alice") {
			return "", llm.NewAuthError("fake", errors.New("401"))
		}
		return "not json at all", nil
	}}
	res, err := NewService(seedReader(), NewMemoryRepo(), fake, Config{Retry: llm.RetryOptions{Sleep: noSleep}}).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := batch.Result{Status: batch.StatusError, ProcessedCount: 0, GeneratedCount: 0, Errors: 2}
	if res != want {
		t.Fatalf("res = %+v, want %+v", res, want)
	}
	if fake.calls != 2 {
		t.Fatalf("auth and parse errors must not be retried: calls = %d", fake.calls)
	}
}

func TestGenerateInsertFailureIsMemberError(t *testing.T) {
	observeLogs(t)
	repo := NewMemoryRepo()
	repo.FailInsert = errors.New("disk full")
	fake := &fakeLLM{byPrompt: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Alice") {
			return `{"selections":[{"commentId":10,"commentType":"review_comment","reasoning":"race"}]}`, nil
		}
		return `{"selections":[]}`, nil
	}}
	res, err := NewService(seedReader(), repo, fake, Config{}).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Errors != 1 || res.ProcessedCount != 1 || res.Status != batch.StatusSuccess {
		t.Fatalf("res = %+v", res)
	}
}

func TestGenerateRequiresLLM(t *testing.T) {
	_, err := NewService(seedReader(), NewMemoryRepo(), nil, Config{}).Generate(context.Background())
	if !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestPGRepoInsertAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}

	rec := NewRecord(4, KindGrowthOpportunity, reviews.Ref{Type: reviews.TypeReviewComment, ID: 12}, "explain the impact", time.Now())
	mock.ExpectExec("INSERT INTO highlights").
		WithArgs(rec.ID.String(), int64(4), "growth_opportunity", "review_comment", int64(12), "explain the impact", rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM highlights WHERE kind").
		WithArgs("highlight").
		WillReturnResult(sqlmock.NewResult(0, 5))

	if err := repo.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	n, err := repo.DeleteAllByType(context.Background(), KindHighlight)
	if err != nil || n != 5 {
		t.Fatalf("DeleteAllByType = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
