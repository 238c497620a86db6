package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeLimiter returns a canned count/retry-after pair and records invocations.
type fakeLimiter struct {
	count      int
	retryAfter int
	err        error
	calls      int
}

func (f *fakeLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	f.calls++
	return f.count, f.retryAfter, f.err
}

func newRateLimitedHandler(limiter RateLimiter, limit int) (http.Handler, *int) {
	served := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	})
	return RateLimitMiddleware(limiter, "create_customer", limit, time.Minute)(next), &served
}

func TestRateLimitMiddlewareAllowsBelowLimit(t *testing.T) {
	limiter := &fakeLimiter{count: 3, retryAfter: 10}
	handler, served := newRateLimitedHandler(limiter, 5)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/try-new-customer", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 below the limit, got %d", rec.Code)
	}
	if *served != 1 {
		t.Fatalf("expected request to reach the handler, served=%d", *served)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected one limiter consultation, got %d", limiter.calls)
	}
}

func TestRateLimitMiddlewareRejectsPastLimit(t *testing.T) {
	limiter := &fakeLimiter{count: 6, retryAfter: 42}
	handler, served := newRateLimitedHandler(limiter, 5)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/try-new-customer", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 past the limit, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After header 42, got %q", got)
	}
	if *served != 0 {
		t.Fatalf("request past the limit must not reach the handler, served=%d", *served)
	}
}

func TestRateLimitMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis unavailable")}
	handler, served := newRateLimitedHandler(limiter, 5)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/try-new-customer", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter failure to fail open, got status %d", rec.Code)
	}
	if *served != 1 {
		t.Fatalf("expected request to reach the handler, served=%d", *served)
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	tests := []struct {
		name    string
		limiter RateLimiter
		limit   int
	}{
		{name: "nil limiter", limiter: nil, limit: 5},
		{name: "non-positive limit", limiter: &fakeLimiter{count: 100}, limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, served := newRateLimitedHandler(tt.limiter, tt.limit)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/try-new-customer", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected pass-through when disabled, got status %d", rec.Code)
			}
			if *served != 1 {
				t.Fatalf("expected request to reach the handler, served=%d", *served)
			}
		})
	}
}
