package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agencykit/onboard/internal/domain"
)

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestExtractSendsHistoryAndMessage(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody(`{"message":"hi","extracted":{},"next_step":""}`)))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key"}, nil)
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}

	history := []domain.Message{
		{Role: "user", Text: "hello"},
		{Role: "assistant", Text: "what's your name?"},
	}
	out, err := client.Extract(context.Background(), "system rules", history, "John")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty output")
	}

	// system + 2 history + inbound message
	if len(gotReq.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "system rules" {
		t.Errorf("unexpected system message: %+v", gotReq.Messages[0])
	}
	if gotReq.Messages[2].Role != "assistant" {
		t.Errorf("history role not preserved: %+v", gotReq.Messages[2])
	}
	if gotReq.Messages[3].Content != "John" {
		t.Errorf("inbound message missing: %+v", gotReq.Messages[3])
	}
}

func TestExtractRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{
		BaseURL:    srv.URL,
		APIKey:     "k",
		MaxRetries: 2,
		Timeout:    5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}

	out, err := client.Extract(context.Background(), "sys", nil, "msg")
	if err != nil {
		t.Fatalf("Extract failed after retry: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output %q", out)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestExtractDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "k", MaxRetries: 3}, nil)
	if err != nil {
		t.Fatalf("NewOpenAIClient failed: %v", err)
	}
	if _, err := client.Extract(context.Background(), "sys", nil, "msg"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("client error must not be retried, got %d calls", calls.Load())
	}
}
