package llm

import (
	"context"
	"fmt"
	"strings"
)

const openaiURL = "https://api.openai.com/v1/chat/completions"

type openai struct {
	*endpoint
	model  string
	apiKey string
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *completionResponse) errorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Type + ": " + r.Error.Message
}

// Complete asks for a JSON object reply, the analysis prompts always expect one.
func (p *openai) Complete(ctx context.Context, req *Request) (*Response, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	in := &completionRequest{
		Model:          modelFor(p.model, req),
		Messages:       messages,
		MaxTokens:      max(req.MaxTokens, 0),
		Temperature:    temperatureOf(req),
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var out completionResponse
	if err := p.post(ctx, headers, in, &out); err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("openai: %d choices: %w", len(out.Choices), ErrEmptyContent)
	}
	return &Response{Content: out.Choices[0].Message.Content, Model: "openai:" + out.Model}, nil
}
