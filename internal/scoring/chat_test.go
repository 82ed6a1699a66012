package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bittyscout/bittyscout/internal/model"
)

func TestChatProviderComplete(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"  true\n"}}]}`))
	}))
	defer srv.Close()

	p := NewChatProvider("groq", srv.URL, "test-key", "default-model", srv.Client())
	got, err := p.Complete(context.Background(), "the prompt", "the system", "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "true" {
		t.Errorf("Complete = %q, want trimmed \"true\"", got)
	}
	if gotReq.Model != "default-model" {
		t.Errorf("empty model hint should use default, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected message ordering: %+v", gotReq.Messages)
	}
}

func TestChatProviderModelOverride(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewChatProvider("groq", srv.URL, "k", "default-model", srv.Client())
	if _, err := p.Complete(context.Background(), "p", "s", "special-model"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotModel != "special-model" {
		t.Errorf("model override ignored, got %q", gotModel)
	}
}

func TestChatProviderHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewChatProvider("groq", srv.URL, "k", "m", srv.Client())
	_, err := p.Complete(context.Background(), "p", "s", "")

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
}

func TestChatProviderMissingKey(t *testing.T) {
	p := NewChatProvider("openrouter", "https://unused.example", "", "m", http.DefaultClient)
	_, err := p.Complete(context.Background(), "p", "s", "")
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestChatProviderEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewChatProvider("groq", srv.URL, "k", "m", srv.Client())
	if _, err := p.Complete(context.Background(), "p", "s", ""); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
