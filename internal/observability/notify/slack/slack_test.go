package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/routewatch/routewatch/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#alerts",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.JobFailurePayload{
		RunID:      "run-1",
		Job:        "cemaden_rainfall",
		Error:      "feed returned <html>",
		ErrorClass: "data_source",
		Panicked:   true,
		Duration:   1500 * time.Millisecond,
		Metadata:   map[string]string{"host": "batch-1"},
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#alerts" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	want := []string{
		"Batch job failed", "cemaden_rainfall", "(panic)", "run-1", "1.5s",
		"data_source", "feed returned &lt;html&gt;", "host: batch-1",
	}
	for _, w := range want {
		if !strings.Contains(text, w) {
			t.Fatalf("message text missing %q: %s", w, text)
		}
	}
}

func TestFormatMessageDefaults(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.JobFailurePayload{Job: "xml_export"})
	if msg["username"] != "routewatch" {
		t.Fatalf("expected default username, got %v", msg["username"])
	}
	if _, ok := msg["channel"]; ok {
		t.Fatal("expected no channel override")
	}
	text, _ := msg["text"].(string)
	if !strings.Contains(text, "Severity: critical") {
		t.Fatalf("expected default severity: %s", text)
	}
	if strings.Contains(text, "Duration") {
		t.Fatalf("expected empty duration to be omitted: %s", text)
	}
}

func TestSendJobFailureRetries(t *testing.T) {
	var calls atomic.Int32
	bodies := make(chan []byte, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if calls.Add(1) == 1 {
			http.Error(w, "rate_limited", http.StatusTooManyRequests)
			return
		}
		bodies <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.SendJobFailure(context.Background(), notify.JobFailurePayload{Job: "traffic_jams"}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}

	lastBody := <-bodies
	var msg map[string]any
	if err := json.Unmarshal(lastBody, &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(msg["text"].(string), "traffic_jams") {
		t.Fatalf("unexpected body: %s", lastBody)
	}
}

func TestSendJobFailureReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.SendJobFailure(context.Background(), notify.JobFailurePayload{Job: "traffic_jams"})
	if err == nil || !strings.Contains(err.Error(), "invalid_payload") {
		t.Fatalf("expected webhook error, got %v", err)
	}
}
