package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const chatResponse = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "sonar-pro",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Office opens at 9 [1].\n"}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestClient_GenerateSendsRoles(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Key: "secret", Model: "sonar-pro", Temperature: 0.2}, zaptest.NewLogger(t))

	out, err := c.Generate(context.Background(), "use only context", "CONTEXT: ...")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Office opens at 9 [1]." {
		t.Fatalf("expected trimmed content, got %q", out)
	}
	if got.Model != "sonar-pro" || got.Temperature != 0.2 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("expected system and user messages, got %+v", got.Messages)
	}
	if got.Messages[0].Content != "use only context" || got.Messages[1].Content != "CONTEXT: ..." {
		t.Fatalf("unexpected message contents: %+v", got.Messages)
	}
}

func TestClient_ErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Key: "secret", Model: "sonar-pro"}, nil)
	if _, err := c.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatalf("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Key: "secret", Model: "m"}, nil)
	if _, err := c.Generate(context.Background(), "s", "u"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestClient_MissingKey(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1", Model: "m"}, nil)
	if _, err := c.Generate(context.Background(), "s", "u"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
