package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// endpoint is the HTTP side shared by the providers: one JSON POST, the body
// read up to maxBodyBytes, non-200 answers turned into a StatusError.
type endpoint struct {
	name   string
	url    string
	client *http.Client
}

func newEndpoint(name, url string, opts []Option) *endpoint {
	e := &endpoint{name: name, url: url, client: defaultHTTPClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// apiError is implemented by the provider response types that carry an error
// object next to the payload.
type apiError interface {
	errorMessage() string
}

func (e *endpoint) post(ctx context.Context, headers map[string]string, in any, out apiError) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", e.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", e.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", e.name, err)
	}
	decodeErr := json.Unmarshal(body, out)

	if resp.StatusCode != http.StatusOK {
		msg := snippet(string(body), errorSnippetLen)
		if decodeErr == nil {
			if m := out.errorMessage(); m != "" {
				msg = m
			}
		}
		return &StatusError{Provider: e.name, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: decoding response %q: %w", e.name, snippet(string(body), errorSnippetLen), decodeErr)
	}
	return nil
}
