package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// messagesServer answers like the messages API and checks the request shape.
func messagesServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}

		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.MaxTokens != defaultMaxTokens {
			t.Errorf("max_tokens = %d, want %d", req.MaxTokens, defaultMaxTokens)
		}
		if req.Temperature != nil {
			t.Errorf("zero temperature should be omitted, got %v", *req.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewProvider_MockKeyDisables(t *testing.T) {
	for _, key := range []string{"", "mock", "  mock "} {
		p, err := NewProvider("anthropic:claude-sonnet-4-5", key)
		if err != nil {
			t.Fatalf("NewProvider(%q): %v", key, err)
		}
		if !IsDisabled(p) {
			t.Errorf("key %q should disable the provider", key)
		}
		if _, err := p.Complete(context.Background(), &Request{}); !errors.Is(err, ErrDisabled) {
			t.Errorf("disabled provider returned %v, want ErrDisabled", err)
		}
	}
}

func TestNewProvider_InvalidFormat(t *testing.T) {
	for _, model := range []string{"anthropic", ":model", "gemini:pro"} {
		if _, err := NewProvider(model, "key"); err == nil {
			t.Errorf("NewProvider(%q) should fail", model)
		}
	}
}

func TestNewProvider_BaseURLOption(t *testing.T) {
	p, err := NewProvider("anthropic:claude-test", "key", WithBaseURL("  "))
	if err != nil {
		t.Fatal(err)
	}
	if got := p.(*anthropic).url; got != anthropicURL {
		t.Errorf("blank base url should keep the default, got %q", got)
	}

	p, _ = NewProvider("openai:gpt-test", "key", WithBaseURL("http://proxy.local/v1/chat"))
	if got := p.(*openai).url; got != "http://proxy.local/v1/chat" {
		t.Errorf("url = %q", got)
	}
}

func TestAnthropicComplete_Success(t *testing.T) {
	srv := messagesServer(t, http.StatusOK,
		`{"id":"msg_1","model":"claude-test","content":[{"type":"text","text":"{\"ok\":"},{"type":"tool_use"},{"type":"text","text":"true}"}]}`)

	p, _ := NewProvider("anthropic:claude-test", "test-key", WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), &Request{UserPrompt: "hola"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Model != "anthropic:claude-test" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestAnthropicComplete_RateLimited(t *testing.T) {
	srv := messagesServer(t, http.StatusTooManyRequests,
		`{"error":{"type":"rate_limit_error","message":"slow down"}}`)

	p, _ := NewProvider("anthropic:claude-test", "test-key", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), &Request{UserPrompt: "hola"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !statusErr.RateLimited() {
		t.Errorf("status %d should count as rate limited", statusErr.StatusCode)
	}
	if statusErr.Message != "rate_limit_error: slow down" {
		t.Errorf("message = %q", statusErr.Message)
	}
}

func TestAnthropicComplete_NonJSONError(t *testing.T) {
	srv := messagesServer(t, http.StatusBadGateway, "<html>upstream down</html>")

	p, _ := NewProvider("anthropic:claude-test", "test-key", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), &Request{UserPrompt: "hola"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.RateLimited() {
		t.Fatalf("expected a plain StatusError, got %v", err)
	}
	if statusErr.Message != "<html>upstream down</html>" {
		t.Errorf("message = %q", statusErr.Message)
	}
}

func TestAnthropicComplete_EmptyContent(t *testing.T) {
	srv := messagesServer(t, http.StatusOK, `{"id":"msg_1","model":"claude-test","content":[]}`)

	p, _ := NewProvider("anthropic:claude-test", "test-key", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), &Request{UserPrompt: "hola"})
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestOpenAIComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}

		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v", req.ResponseFormat)
		}
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer srv.Close()

	p, _ := NewProvider("openai:gpt-test", "test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	resp, err := p.Complete(context.Background(), &Request{SystemPrompt: "sys", UserPrompt: "hola", Model: "gpt-override"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "{}" || resp.Model != "openai:gpt-test" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("áéíóú", 3); got != "áéí..." {
		t.Errorf("snippet = %q", got)
	}
	if got := snippet("abc", 5); got != "abc" {
		t.Errorf("snippet = %q", got)
	}
}
