package anthropic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"review-insights/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient("test-key", "claude-sonnet-4-20250514", Options{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClassifyConcatenatesTextBlocks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "{\"a\":"}, {"type": "text", "text": "1}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 100, "output_tokens": 10}
		}`)
	})

	resp, err := client.Classify(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if resp.Content != `{"a":1}` {
		t.Fatalf("Content = %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.PromptTokens != 100 || resp.Usage.CompletionTokens != 10 {
		t.Fatalf("Usage = %+v", resp.Usage)
	}
}

func TestClassifyMapsStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   llm.Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: llm.KindAuth},
		{name: "forbidden", status: http.StatusForbidden, want: llm.KindAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, want: llm.KindRateLimit},
		{name: "bad request", status: http.StatusBadRequest, want: llm.KindUnknown},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"nope"}}`)
			})
			_, err := client.Classify(context.Background(), "x")
			if got := llm.KindOf(err); got != tt.want {
				t.Fatalf("KindOf = %q, want %q (err=%v)", got, tt.want, err)
			}
		})
	}
}

func TestClassifyConnectionFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient("test-key", "claude-sonnet-4-20250514", Options{BaseURL: url})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Classify(context.Background(), "x")
	if got := llm.KindOf(err); got != llm.KindNetwork {
		t.Fatalf("KindOf = %q, want network (err=%v)", got, err)
	}
	if !llm.IsRetryable(err) {
		t.Fatal("network errors must be retryable")
	}
}
