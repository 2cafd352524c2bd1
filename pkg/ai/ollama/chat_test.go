package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cinegraph/backend/pkg/ai"
)

func newTestClient(t *testing.T, content string, seen *map[string]any) *GraphOllamaClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		resp := map[string]any{
			"model":             "test-model",
			"message":           map[string]any{"role": "assistant", "content": content},
			"done":              true,
			"prompt_eval_count": 30,
			"eval_count":        10,
			"total_duration":    int64(2_000_000_000),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	client, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		Model:                 "default-model",
		BaseURL:               srv.URL,
		MaxConcurrentRequests: 2,
	})
	if err != nil {
		t.Fatalf("NewGraphOllamaClient() error = %v", err)
	}
	return client
}

func TestGenerateCompletion(t *testing.T) {
	var seen map[string]any
	client := newTestClient(t, "```cypher\nMATCH (n) RETURN n\n```", &seen)

	ctx, rec := ai.WithMetricsRecorder(context.Background())
	got, err := client.GenerateCompletion(ctx, "question", ai.WithModel("query-model"))
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}
	if !strings.Contains(got, "MATCH (n) RETURN n") {
		t.Fatalf("GenerateCompletion() = %q", got)
	}
	if seen["model"] != "query-model" {
		t.Fatalf("request model = %v, want query-model", seen["model"])
	}

	want := ai.ModelMetrics{InputTokens: 30, OutputTokens: 10, TotalTokens: 40, DurationMs: 2000, TokenPerSecond: 20}
	if m := client.GetMetrics(); m != want {
		t.Fatalf("GetMetrics() = %+v, want %+v", m, want)
	}
	if m := rec.Snapshot(); m != want {
		t.Fatalf("request metrics = %+v, want %+v", m, want)
	}
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	client := newTestClient(t, `{"persons": [], "movies": ["Top Gun"]}`, nil)

	var out struct {
		Persons []string `json:"persons"`
		Movies  []string `json:"movies"`
	}
	if err := client.GenerateCompletionWithFormat(context.Background(), "entities", "", "q", &out); err != nil {
		t.Fatalf("GenerateCompletionWithFormat() error = %v", err)
	}
	if len(out.Movies) != 1 || out.Movies[0] != "Top Gun" {
		t.Fatalf("movies = %v, want [Top Gun]", out.Movies)
	}

	var notPointer struct{}
	if err := client.GenerateCompletionWithFormat(context.Background(), "x", "", "q", notPointer); err == nil {
		t.Fatalf("GenerateCompletionWithFormat() expected error for non-pointer out")
	}
}

func TestGenerateCompletion_CanceledWhileWaiting(t *testing.T) {
	client := newTestClient(t, "ok", nil)

	// occupy every slot
	if err := client.reqLock.Acquire(context.Background(), 2); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer client.reqLock.Release(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.GenerateCompletion(ctx, "q"); err == nil {
		t.Fatalf("GenerateCompletion() expected context error while saturated")
	}
}

func TestContextSize(t *testing.T) {
	if n, err := contextSize("short prompt"); err != nil || n != 0 {
		t.Fatalf("contextSize(short) = %d, %v, want 0, nil", n, err)
	}
}
