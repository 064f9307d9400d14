package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

type anthropic struct {
	*endpoint
	model  string
	apiKey string
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *messagesResponse) errorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Type + ": " + r.Error.Message
}

// text joins the text blocks of the reply, tool and thinking blocks are dropped.
func (r *messagesResponse) text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func (p *anthropic) Complete(ctx context.Context, req *Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	in := &messagesRequest{
		Model:       modelFor(p.model, req),
		MaxTokens:   maxTokens,
		System:      req.SystemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: req.UserPrompt}},
		Temperature: temperatureOf(req),
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var out messagesResponse
	if err := p.post(ctx, headers, in, &out); err != nil {
		return nil, err
	}

	content := out.text()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("anthropic: %d content blocks: %w", len(out.Content), ErrEmptyContent)
	}
	return &Response{Content: content, Model: "anthropic:" + out.Model}, nil
}
