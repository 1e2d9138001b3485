package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/reelforge/reelforge-api/internal/middleware"
	"github.com/reelforge/reelforge-api/internal/pkg/database"
)

func setupTestRedis(t *testing.T) *redis.Client {
	rdb, err := database.NewRedis("redis://localhost:6379/0")
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return rdb
}

func limitedHandler(rdb *redis.Client, perMinute int) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return middleware.RateLimit(rdb, perMinute)(next)
}

// Forwarded identities are unique per run so counters left in Redis by
// earlier runs within the same window don't interfere.
func doLimited(handler http.Handler, clientIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/credits/balance", nil)
	req.Header.Set("X-Forwarded-For", clientIP)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	rdb := setupTestRedis(t)
	defer rdb.Close()

	handler := limitedHandler(rdb, 3)
	first := "198.51.100." + uuid.NewString()
	second := "203.0.113." + uuid.NewString()

	for i := 0; i < 3; i++ {
		if rec := doLimited(handler, first); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, rec.Code)
		}
	}

	rec := doLimited(handler, first)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}

	// A different client IP has its own budget
	if rec := doLimited(handler, second); rec.Code != http.StatusOK {
		t.Fatalf("second client: status %d, want 200", rec.Code)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	defer rdb.Close()

	handler := limitedHandler(rdb, 1)
	for i := 0; i < 3; i++ {
		if rec := doLimited(handler, "198.51.100.7"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, rec.Code)
		}
	}
}

func TestRateLimitDisabledWhenZero(t *testing.T) {
	handler := limitedHandler(nil, 0)
	if rec := doLimited(handler, "198.51.100.8"); rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
}
