// Package llm talks to the hosted chat-completion APIs used by the analysis
// engine. Every backend answers with the plain text of the first reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxTokens = 4096
	maxBodyBytes     = 10 << 20
	errorSnippetLen  = 200
)

var (
	ErrDisabled     = errors.New("llm: provider disabled")
	ErrEmptyContent = errors.New("llm: empty content")
)

// StatusError is a non-200 answer from the provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	Model        string // overrides the configured model when set
}

type Response struct {
	Content string
	Model   string // "provider:model" as reported by the API
}

type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Option tweaks the endpoint a provider talks to.
type Option func(*endpoint)

// WithBaseURL points the provider at a proxy or a test server. The value is
// the full completion URL.
func WithBaseURL(url string) Option {
	return func(e *endpoint) {
		if url = strings.TrimSpace(url); url != "" {
			e.url = url
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(e *endpoint) {
		if client != nil {
			e.client = client
		}
	}
}

// NewProvider builds the backend named by a "provider:model" string. An empty
// or "mock" key gives the disabled provider so no request ever leaves.
func NewProvider(providerModel, apiKey string, opts ...Option) (Provider, error) {
	name, model, ok := strings.Cut(providerModel, ":")
	if !ok || name == "" || model == "" {
		return nil, fmt.Errorf("invalid model %q, want provider:model such as anthropic:claude-sonnet-4-5", providerModel)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" || apiKey == "mock" {
		return Disabled(), nil
	}

	switch name {
	case "anthropic":
		return &anthropic{endpoint: newEndpoint(name, anthropicURL, opts), model: model, apiKey: apiKey}, nil
	case "openai":
		return &openai{endpoint: newEndpoint(name, openaiURL, opts), model: model, apiKey: apiKey}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (anthropic, openai)", name)
	}
}

type disabled struct{}

func Disabled() Provider {
	return disabled{}
}

func (disabled) Complete(context.Context, *Request) (*Response, error) {
	return nil, ErrDisabled
}

func IsDisabled(p Provider) bool {
	_, ok := p.(disabled)
	return ok
}

func modelFor(configured string, req *Request) string {
	if req.Model != "" {
		return req.Model
	}
	return configured
}

func temperatureOf(req *Request) *float64 {
	if req.Temperature == 0 {
		return nil
	}
	t := req.Temperature
	return &t
}

// snippet shortens a provider body for error messages.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var defaultHTTPClient = &http.Client{Timeout: 5 * time.Minute}
