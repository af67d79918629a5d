package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func completionResponse(text string) map[string]any {
	return map[string]any{
		"id":      "cmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": text,
				},
			},
		},
	}
}

func newTestOracle(t *testing.T, handler http.HandlerFunc, maxRetries int) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:      server.URL,
		APIKey:       "test-key",
		Model:        "test-model",
		Timeout:      5 * time.Second,
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	// No real waiting in tests.
	client.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return client
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Model: "m"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestCompleteReturnsText(t *testing.T) {
	t.Parallel()

	client := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(`{"agent":"info","method":"list_products","params":{}}`))
	}, 2)

	text, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"agent":"info","method":"list_products","params":{}}` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("ok"))
	}, 2)

	text, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "ok" {
		t.Fatalf("unexpected text %q", text)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}, 2)

	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Retryable {
		t.Error("retry budget is spent, the error must not be marked retryable")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3 (initial + 2 retries)", got)
	}
}

func TestCompleteDoesNotRetryMalformedResponses(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("this is not a completion"))
	}, 3)

	_, err := client.Complete(context.Background(), "system", "user")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Retryable {
		t.Error("a malformed response body will not heal on retry")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	}, 3)

	_, err := client.Complete(context.Background(), "system", "user")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Retryable {
		t.Error("client errors must not be retryable")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestCompleteStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	client := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, "system", "user")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if transportErr.Retryable {
		t.Error("cancellation must not be marked retryable")
	}
}
