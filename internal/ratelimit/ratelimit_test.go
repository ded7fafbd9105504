package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tuido/internal/ratelimit"
)

// TestRetryAfter429 verifies a rate-limited request is retried and succeeds
// once the server stops throttling.
func TestRetryAfter429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := ratelimit.NewClient(ratelimit.Config{MaxRetries: 3, BaseDelay: time.Millisecond})
	resp, err := client.Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after retries, got %d", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

// TestRetriesExhausted verifies a persistent 429 surfaces as RateLimitError
// and the stats tracker counts every throttle.
func TestRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	stats := ratelimit.NewStats()
	client := ratelimit.NewClient(ratelimit.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		Stats:      stats,
		Service:    "feishu",
	})

	_, err := client.Do(context.Background(), http.MethodGet, server.URL, nil, nil)
	var rlErr *ratelimit.RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if !strings.Contains(rlErr.Error(), "feishu") {
		t.Errorf("expected service name in error, got %q", rlErr.Error())
	}
	if stats.RateLimitCount() != 3 {
		t.Errorf("expected 3 throttle events (initial + 2 retries), got %d", stats.RateLimitCount())
	}
	if stats.LastRateLimitTime().IsZero() {
		t.Error("expected last throttle time recorded")
	}
}

// TestBodyResentOnRetry verifies the request body arrives intact on every
// attempt.
func TestBodyResentOnRetry(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := ratelimit.NewClient(ratelimit.Config{MaxRetries: 2, BaseDelay: time.Millisecond})
	resp, err := client.Do(context.Background(), http.MethodPost, server.URL, nil, strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	_ = resp.Body.Close()

	if len(bodies) != 2 || bodies[0] != "payload" || bodies[1] != "payload" {
		t.Errorf("expected body on every attempt, got %v", bodies)
	}
}

// TestHeadersForwarded verifies custom headers reach the server.
func TestHeadersForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing authorization header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := ratelimit.NewClient(ratelimit.Config{})
	resp, err := client.Do(context.Background(), http.MethodGet, server.URL,
		http.Header{"Authorization": []string{"Bearer tok"}}, nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	_ = resp.Body.Close()
}

// TestContextCancelDuringBackoff verifies cancellation interrupts the wait.
func TestContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := ratelimit.NewClient(ratelimit.Config{MaxRetries: 5, BaseDelay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Do(ctx, http.MethodGet, server.URL, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation should not wait out the backoff")
	}
}

// TestParseRetryAfter covers the seconds and HTTP-date formats.
func TestParseRetryAfter(t *testing.T) {
	if d := ratelimit.ParseRetryAfter("30"); d == nil || *d != 30*time.Second {
		t.Errorf("expected 30s, got %v", d)
	}
	if d := ratelimit.ParseRetryAfter(""); d != nil {
		t.Errorf("expected nil for empty value, got %v", d)
	}
	if d := ratelimit.ParseRetryAfter("-5"); d != nil {
		t.Errorf("expected nil for negative value, got %v", d)
	}
	if d := ratelimit.ParseRetryAfter("not a time"); d != nil {
		t.Errorf("expected nil for garbage, got %v", d)
	}
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	if d := ratelimit.ParseRetryAfter(future); d == nil || *d <= 0 || *d > 11*time.Second {
		t.Errorf("expected ~10s for HTTP date, got %v", d)
	}
}
