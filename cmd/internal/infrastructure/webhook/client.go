package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hseqaudit/cmd/internal/config"
)

type Event string

const (
	EventCriticalNC    Event = "nc.critical"
	EventAuditAnalyzed Event = "audit.analyzed"
	EventNCOverdue     Event = "nc.overdue"
)

// Envelope is the body posted to the automation platform.
type Envelope struct {
	Event     Event  `json:"event"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Client is a fire-and-forget notifier: one POST, no retries, failures are
// logged and reported as false.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Notify posts the event and reports whether the endpoint accepted it.
func (c *Client) Notify(ctx context.Context, event Event, data any) bool {
	log := config.GetLogger()
	if !c.Enabled() {
		log.Warnf("webhook url not configured, skipping %s notification", event)
		return false
	}

	if err := c.post(ctx, event, data); err != nil {
		config.LogError(log, "webhook", "Notify", "failed to deliver notification", event, err)
		return false
	}

	log.WithField("event", event).Info("notification delivered")
	return true
}

func (c *Client) post(ctx context.Context, event Event, data any) error {
	body, err := json.Marshal(&Envelope{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded with status code: %d", resp.StatusCode)
	}
	return nil
}
