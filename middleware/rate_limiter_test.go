package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leeforge/captchakit/metrics"
	"github.com/leeforge/captchakit/session"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	collector := metrics.NewCollector()
	rl := NewRateLimiter(RateLimitConfig{Rate: 0.001, Burst: 2}, nil, collector)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/captcha/default", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") == "" {
			t.Error("429 should carry Retry-After")
		}
	}

	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if got := collector.Value("rate_limited_total", map[string]string{"kind": "ip"}); got != 1 {
		t.Errorf("rate_limited_total = %v", got)
	}

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/captcha/default", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("second client code = %d", rr.Code)
	}
}

func TestSessionOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:1234"
	if got := SessionOrIP(req); got != "ip:192.168.1.9" {
		t.Fatalf("SessionOrIP = %q", got)
	}

	// freshly issued sessions share the client's IP bucket
	req = req.WithContext(session.WithID(req.Context(), "abc"))
	if got := SessionOrIP(req); got != "ip:192.168.1.9" {
		t.Fatalf("SessionOrIP = %q", got)
	}

	req = req.WithContext(session.WithReturning(req.Context()))
	if got := SessionOrIP(req); got != "sid:abc" {
		t.Fatalf("SessionOrIP = %q", got)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Burst: 1, IdleTTL: time.Minute}, nil, nil)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(30 * time.Second)
	rl.Allow("b")
	now = now.Add(45 * time.Second)

	if removed := rl.Cleanup(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if rl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", rl.Len())
	}
}

func TestRateLimiter_Update(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(RateLimitConfig{Rate: 0.001, Burst: 1}, nil, nil)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || rl.Allow("a") {
		t.Fatal("burst of 1 should allow exactly one request")
	}

	rl.Update(RateLimitConfig{Rate: 10, Burst: 5})
	now = now.Add(time.Second)

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow("a") {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("allowed after update = %d, want 5", allowed)
	}
	if !rl.Allow("b") {
		t.Fatal("new bucket should use updated config")
	}
}
