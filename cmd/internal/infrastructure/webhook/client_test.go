package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNotify_PostsEnvelope(t *testing.T) {
	got := make(chan Envelope, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var env Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Errorf("decoding envelope: %v", err)
		}
		got <- env
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if ok := c.Notify(context.Background(), EventCriticalNC, map[string]string{"code": "NC-2026-0001"}); !ok {
		t.Fatal("Notify returned false for a 202")
	}

	env := <-got
	if env.Event != EventCriticalNC {
		t.Errorf("event = %s", env.Event)
	}
	if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339", env.Timestamp)
	}
	data, _ := env.Data.(map[string]any)
	if data["code"] != "NC-2026-0001" {
		t.Errorf("data = %v", env.Data)
	}
}

func TestNotify_NoURLSkips(t *testing.T) {
	c := NewClient("", time.Second)
	if c.Enabled() {
		t.Fatal("client without url should be disabled")
	}
	if c.Notify(context.Background(), EventAuditAnalyzed, nil) {
		t.Fatal("Notify without url should return false")
	}
}

func TestNotify_FailureIsSwallowed(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if c.Notify(context.Background(), EventNCOverdue, nil) {
		t.Fatal("Notify should report a 500 as undelivered")
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}
