package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/like-mike/relai-chat/shared/config"
)

func newTestProvider(t *testing.T, srv *httptest.Server, timeout time.Duration) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(Options{
		APIKey:  "sk-test",
		Model:   "gpt-test",
		BaseURL: srv.URL + "/v1",
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNewOpenAIProvider_EmptyKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Options{}); err == nil {
		t.Fatalf("expected error for empty API key, got nil")
	}
}

func TestNewOpenAIProvider_DefaultModel(t *testing.T) {
	p, err := NewOpenAIProvider(Options{APIKey: "dummy-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Model() != "gpt-3.5-turbo" {
		t.Errorf("expected default model %q, got %q", "gpt-3.5-turbo", p.Model())
	}
}

func TestNewProviderFromConfig_RequiresKey(t *testing.T) {
	cfg := config.Default()
	if _, err := NewProviderFromConfig(cfg); err == nil {
		t.Fatalf("expected error without API key")
	}
	cfg.APIKey = "sk-test"
	if _, err := NewProviderFromConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetCompletions_SendsFixedParameters(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, time.Second)
	resp, err := p.GetCompletions(context.Background(), &CompletionRequest{
		Messages:    []ChatMessage{{Role: RoleUser, Content: "hi"}},
		MaxTokens:   600,
		Temperature: 0.75,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("expected reply %q, got %q", "hello", resp.Text)
	}
	if resp.PromptTokens != 3 || resp.CompletionTokens != 1 {
		t.Errorf("unexpected usage: %+v", resp)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if got["model"] != "gpt-test" {
		t.Errorf("expected model gpt-test, got %v", got["model"])
	}
	if got["max_tokens"] != float64(600) {
		t.Errorf("expected max_tokens 600, got %v", got["max_tokens"])
	}
	if temp, _ := got["temperature"].(float64); temp < 0.749 || temp > 0.751 {
		t.Errorf("expected temperature 0.75, got %v", got["temperature"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected one message forwarded, got %v", got["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "hi" {
		t.Errorf("message not forwarded verbatim: %v", first)
	}
}

func TestGetCompletions_UpstreamStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, time.Second)
	_, err := p.GetCompletions(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T (%v)", err, err)
	}
	if upErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", upErr.StatusCode)
	}
	if !strings.Contains(upErr.Details, "Incorrect API key") {
		t.Errorf("expected details from upstream body, got %q", upErr.Details)
	}
}

func TestGetCompletions_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream proxy exploded"))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, time.Second)
	_, err := p.GetCompletions(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if upErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", upErr.StatusCode)
	}
	if upErr.Details != "upstream proxy exploded" {
		t.Errorf("expected raw body as details, got %q", upErr.Details)
	}
}

func TestGetCompletions_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := newTestProvider(t, srv, 50*time.Millisecond)
	_, err := p.GetCompletions(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %T (%v)", err, err)
	}
	if !upErr.Timeout {
		t.Errorf("expected timeout classification, got %+v", upErr)
	}
	if upErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", upErr.StatusCode)
	}
	if !strings.Contains(upErr.Details, "timed out") {
		t.Errorf("expected timeout details, got %q", upErr.Details)
	}
}

func TestGetCompletions_NoChoices(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, time.Second)
	_, err := p.GetCompletions(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("expected error when no choices are returned")
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one upstream call, got %d", calls.Load())
	}
}
