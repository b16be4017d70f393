package reviews

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"review-insights/internal/llm"
)

func TestFilterKnownDropsUnseenRefs(t *testing.T) {
	known := NewRefSet([]CandidateComment{{ID: 10, Type: TypeReviewComment}})
	items := []Ref{
		{Type: TypeReviewComment, ID: 10},
		{Type: TypeReviewComment, ID: 999},
		{Type: TypePRComment, ID: 10},
	}
	kept, dropped := FilterKnown(items, known, func(r Ref) Ref { return r })
	if diff := cmp.Diff([]Ref{{Type: TypeReviewComment, ID: 10}}, kept); diff != "" {
		t.Fatalf("kept mismatch (-want +got):\n%s", diff)
	}
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v, want 2 items", dropped)
	}
}

func TestFilterKnownEmpty(t *testing.T) {
	kept, dropped := FilterKnown(nil, NewRefSet(nil), func(r Ref) Ref { return r })
	if kept != nil || dropped != nil {
		t.Fatalf("kept=%v dropped=%v", kept, dropped)
	}
}

func TestUniqueRefsKeepsFirst(t *testing.T) {
	items := []Ref{
		{Type: TypeReviewComment, ID: 10},
		{Type: TypePRComment, ID: 10},
		{Type: TypeReviewComment, ID: 10},
	}
	got := UniqueRefs(items, func(r Ref) Ref { return r })
	want := []Ref{{Type: TypeReviewComment, ID: 10}, {Type: TypePRComment, ID: 10}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCommentID(t *testing.T) {
	tests := []struct {
		in     json.Number
		want   int64
		wantOK bool
	}{
		{in: "42", want: 42, wantOK: true},
		{in: "9007199254740993", want: 9007199254740993, wantOK: true},
		{in: "3.0", want: 3, wantOK: true},
		{in: "1e3", want: 1000, wantOK: true},
		{in: "1.5", wantOK: false},
		{in: "1e30", wantOK: false},
		{in: "-1e30", wantOK: false},
		{in: "9223372036854775808", wantOK: false},
	}
	for _, tt := range tests {
		got, err := ParseCommentID("raw", "commentId", tt.in)
		if tt.wantOK {
			if err != nil || got != tt.want {
				t.Errorf("ParseCommentID(%s) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
			continue
		}
		var pe *llm.ParseError
		if !errors.As(err, &pe) || pe.RawContent != "raw" || !strings.Contains(pe.Message, "commentId") {
			t.Errorf("ParseCommentID(%s) err = %v, want *llm.ParseError", tt.in, err)
		}
	}
}

func seededMemoryRepo() *MemoryRepo {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepo()
	repo.AddMember(TeamMember{ID: 2, GitHubUsername: "bob", DisplayName: "Bob"})
	repo.AddMember(TeamMember{ID: 1, GitHubUsername: "alice", DisplayName: "Alice"})
	repo.AddPullRequest(PullRequest{ID: 100, Repository: "acme/api", Number: 7, Title: "Add login"})
	repo.AddPullRequest(PullRequest{ID: 101, Repository: "acme/api", Number: 8, Title: "Tidy logs"})
	repo.AddComment(StoredComment{Type: TypeReviewComment, ID: 1, PullRequestID: 100, Reviewer: "alice", FilePath: "auth.go",
		Body: "token is logged", CreatedAt: now, Category: "security", Confidence: 95})
	repo.AddComment(StoredComment{Type: TypeReviewComment, ID: 2, PullRequestID: 100, Reviewer: "bob", FilePath: "auth.go",
		Body: "rename var", CreatedAt: now.Add(time.Hour), Category: "nitpick_style", Confidence: 90})
	repo.AddComment(StoredComment{Type: TypePRComment, ID: 3, PullRequestID: 101, Reviewer: "bob",
		Body: "why?", CreatedAt: now.Add(2 * time.Hour), Category: "question_clarification", Confidence: 80})
	repo.AddComment(StoredComment{Type: TypeReviewComment, ID: 4, PullRequestID: 100, Reviewer: "alice", FilePath: "auth.go",
		Body: "n+1", CreatedAt: now.Add(-time.Hour), Category: "performance", Confidence: 60})
	repo.AddComment(StoredComment{Type: TypeReviewComment, ID: 5, PullRequestID: 101, Reviewer: "alice",
		Body: "unclassified", CreatedAt: now})
	return repo
}

func TestMemoryRepoMembersOrderedByID(t *testing.T) {
	members, err := seededMemoryRepo().GetAllTeamMembers(context.Background())
	if err != nil {
		t.Fatalf("GetAllTeamMembers: %v", err)
	}
	if len(members) != 2 || members[0].ID != 1 || members[1].ID != 2 {
		t.Fatalf("members = %+v", members)
	}
}

func TestMemoryRepoTopComments(t *testing.T) {
	repo := seededMemoryRepo()
	got, err := repo.GetTopClassifiedCommentsByMember(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("GetTopClassifiedCommentsByMember: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 4 {
		t.Fatalf("got %+v", got)
	}
	if got[0].PRNumber != 7 || got[0].Repository != "acme/api" || got[0].PRTitle != "Add login" {
		t.Fatalf("pr fields = %+v", got[0])
	}

	got, err = repo.GetTopClassifiedCommentsByMember(context.Background(), 1, 70)
	if err != nil {
		t.Fatalf("GetTopClassifiedCommentsByMember: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("min confidence not applied: %+v", got)
	}
}

func TestMemoryRepoLowDepthFlagsHighValuePR(t *testing.T) {
	got, err := seededMemoryRepo().GetLowDepthCommentsByMember(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("GetLowDepthCommentsByMember: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	flags := map[int64]bool{}
	for _, c := range got {
		flags[c.ID] = c.PRHadHighValueIssues
	}
	if !flags[2] || flags[3] {
		t.Fatalf("flags = %v, want PR 100 flagged and PR 101 not", flags)
	}
}

func TestMemoryRepoWindowAndDistribution(t *testing.T) {
	repo := seededMemoryRepo()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC)

	comments, err := repo.GetClassifiedCommentsForProfile(context.Background(), []string{"alice", "bob"}, start, end)
	if err != nil {
		t.Fatalf("GetClassifiedCommentsForProfile: %v", err)
	}
	want := []ClassifiedComment{
		{Reviewer: "alice", FilePath: "auth.go", Category: "performance", Confidence: 60, Body: "n+1", PRTitle: "Add login"},
		{Reviewer: "alice", FilePath: "auth.go", Category: "security", Confidence: 95, Body: "token is logged", PRTitle: "Add login"},
		{Reviewer: "bob", FilePath: "auth.go", Category: "nitpick_style", Confidence: 90, Body: "rename var", PRTitle: "Add login"},
	}
	if diff := cmp.Diff(want, comments); diff != "" {
		t.Fatalf("comments mismatch (-want +got):\n%s", diff)
	}

	dist, err := repo.GetCategoryDistributionByReviewer(context.Background(), []string{"alice"}, start, end)
	if err != nil {
		t.Fatalf("GetCategoryDistributionByReviewer: %v", err)
	}
	wantDist := []ReviewerCategoryCount{
		{Reviewer: "alice", Category: "performance", Count: 1},
		{Reviewer: "alice", Category: "security", Count: 1},
	}
	if diff := cmp.Diff(wantDist, dist); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryRepoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := seededMemoryRepo().GetAllTeamMembers(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

// passthrough lets sqlmock accept []string args the way pgx does.
type passthrough struct{}

func (passthrough) ConvertValue(v any) (driver.Value, error) { return v, nil }

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoGetAllTeamMembers(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("FROM team_members").
		WillReturnRows(sqlmock.NewRows([]string{"id", "github_username", "display_name"}).
			AddRow(int64(1), "alice", "Alice").
			AddRow(int64(2), "bob", nil))

	got, err := repo.GetAllTeamMembers(context.Background())
	if err != nil {
		t.Fatalf("GetAllTeamMembers: %v", err)
	}
	want := []TeamMember{{ID: 1, GitHubUsername: "alice", DisplayName: "Alice"}, {ID: 2, GitHubUsername: "bob"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetClassifiedCommentsForProfile(t *testing.T) {
	repo, mock := newMock(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)
	mock.ExpectQuery("JOIN comment_classifications").
		WithArgs([]string{"alice"}, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"reviewer", "file_path", "category", "confidence", "body", "title"}).
			AddRow("alice", "main.go", "security", 91, "escape this", "Add form").
			AddRow("alice", nil, "question_clarification", 40, "why?", nil))

	got, err := repo.GetClassifiedCommentsForProfile(context.Background(), []string{"alice"}, start, end)
	if err != nil {
		t.Fatalf("GetClassifiedCommentsForProfile: %v", err)
	}
	want := []ClassifiedComment{
		{Reviewer: "alice", FilePath: "main.go", Category: "security", Confidence: 91, Body: "escape this", PRTitle: "Add form"},
		{Reviewer: "alice", Category: "question_clarification", Confidence: 40, Body: "why?"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("comments mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSkipsQueryWithoutUsernames(t *testing.T) {
	repo, mock := newMock(t)
	got, err := repo.GetCategoryDistributionByReviewer(context.Background(), nil, time.Time{}, time.Time{})
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetCategoryDistributionByReviewer(t *testing.T) {
	repo, mock := newMock(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)
	mock.ExpectQuery("GROUP BY c.reviewer, c.category").
		WithArgs([]string{"alice", "bob"}, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"reviewer", "category", "count"}).
			AddRow("alice", "security", 5).
			AddRow("bob", "nitpick_style", 3))

	got, err := repo.GetCategoryDistributionByReviewer(context.Background(), []string{"alice", "bob"}, start, end)
	if err != nil {
		t.Fatalf("GetCategoryDistributionByReviewer: %v", err)
	}
	want := []ReviewerCategoryCount{
		{Reviewer: "alice", Category: "security", Count: 5},
		{Reviewer: "bob", Category: "nitpick_style", Count: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
}

var candidateColumns = []string{
	"comment_type", "id", "body", "file_path", "title", "number", "repository",
	"category", "confidence", "flag", "created_at",
}

func TestPGRepoGetTopClassifiedCommentsByMember(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	mock.ExpectQuery("ORDER BY c.confidence DESC").
		WithArgs(int64(7), 70, HighlightCategories).
		WillReturnRows(sqlmock.NewRows(candidateColumns).
			AddRow("review_comment", int64(10), "race here", "worker.go", "Add pool", 12, "acme/api", "bug_correctness", 93, false, created))

	got, err := repo.GetTopClassifiedCommentsByMember(context.Background(), 7, 70)
	if err != nil {
		t.Fatalf("GetTopClassifiedCommentsByMember: %v", err)
	}
	want := []CandidateComment{{
		ID: 10, Type: TypeReviewComment, Body: "race here", FilePath: "worker.go", PRTitle: "Add pool",
		PRNumber: 12, Repository: "acme/api", Category: "bug_correctness", Confidence: 93, CreatedAt: created,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetLowDepthCommentsByMember(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	mock.ExpectQuery("EXISTS").
		WithArgs(int64(7), 60, LowDepthCategories, highValueCategories).
		WillReturnRows(sqlmock.NewRows(candidateColumns).
			AddRow("pr_comment", int64(3), "nit: spacing", nil, "Add pool", 12, "acme/api", "nitpick_style", 88, true, created))

	got, err := repo.GetLowDepthCommentsByMember(context.Background(), 7, 60)
	if err != nil {
		t.Fatalf("GetLowDepthCommentsByMember: %v", err)
	}
	if len(got) != 1 || got[0].Type != TypePRComment || !got[0].PRHadHighValueIssues || got[0].FilePath != "" {
		t.Fatalf("got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
