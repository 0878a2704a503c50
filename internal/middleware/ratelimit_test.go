package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onnwee/mentorfeed/internal/auth"
)

// fakeClock drives InMemoryRateLimitStore windows without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedStore() (*InMemoryRateLimitStore, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewInMemoryRateLimitStore()
	s.now = clock.now
	return s, clock
}

func TestInMemoryRateLimitStore_Allow(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		requests      int
		wantAllowed   []bool
		wantRemaining []int
	}{
		{"under limit", 5, 3, []bool{true, true, true}, []int{4, 3, 2}},
		{"over limit", 3, 5, []bool{true, true, true, false, false}, []int{2, 1, 0, 0, 0}},
		{"single request", 1, 2, []bool{true, false}, []int{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newClockedStore()
			cfg := RateLimitConfig{RequestsPerWindow: tt.limit, WindowDuration: time.Minute}

			for i := 0; i < tt.requests; i++ {
				allowed, remaining, _ := store.Allow(context.Background(), "k", cfg)
				if allowed != tt.wantAllowed[i] || remaining != tt.wantRemaining[i] {
					t.Errorf("request %d: allowed=%v remaining=%d, want %v/%d",
						i+1, allowed, remaining, tt.wantAllowed[i], tt.wantRemaining[i])
				}
			}
		})
	}
}

func TestInMemoryRateLimitStore_WindowAndRetryAfter(t *testing.T) {
	store, clock := newClockedStore()
	cfg := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	ctx := context.Background()

	store.Allow(ctx, "k", cfg)
	clock.advance(20*time.Second + 500*time.Millisecond)

	allowed, _, retryAfter := store.Allow(ctx, "k", cfg)
	if allowed {
		t.Fatal("second request in window should be blocked")
	}
	if retryAfter != 40 {
		t.Errorf("retryAfter = %d, want 40 (rounded up)", retryAfter)
	}

	if allowed, _, _ := store.Allow(ctx, "other", cfg); !allowed {
		t.Error("keys must be limited independently")
	}

	clock.advance(40 * time.Second)
	if allowed, _, _ := store.Allow(ctx, "k", cfg); !allowed {
		t.Error("request after the window should be allowed")
	}
}

func TestInMemoryRateLimitStore_Cleanup(t *testing.T) {
	store, clock := newClockedStore()
	cfg := RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute}

	store.Allow(context.Background(), "old", cfg)
	clock.advance(2 * time.Minute)
	store.Allow(context.Background(), "new", cfg)
	store.Cleanup()

	if _, ok := store.buckets["old"]; ok {
		t.Error("expired bucket should be removed")
	}
	if _, ok := store.buckets["new"]; !ok {
		t.Error("live bucket should be kept")
	}
}

func TestInMemoryRateLimitStore_Concurrency(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	cfg := RateLimitConfig{RequestsPerWindow: 50, WindowDuration: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := store.Allow(context.Background(), "shared", cfg); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"ipv6 remote addr", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"no port", "192.0.2.9", nil, "192.0.2.9"},
		{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.2"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentityKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := IdentityKeyFunc(req); got != "ip:192.0.2.1" {
		t.Errorf("anonymous key = %q", got)
	}

	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{Role: auth.RoleMentor, ProfileID: 3}))
	if got := IdentityKeyFunc(req); got != "mentor:3" {
		t.Errorf("identity key = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	store, _ := newClockedStore()
	metrics := NewMetrics()
	cfg := RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}

	handler := RateLimiter(store, cfg, IdentityKeyFunc, metrics, "/feed/mentors")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
		req.RemoteAddr = ip + ":5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		rr := do("192.0.2.1")
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rr.Code)
		}
		if rr.Header().Get("X-RateLimit-Remaining") != strconv.Itoa(1-i) {
			t.Errorf("remaining = %s", rr.Header().Get("X-RateLimit-Remaining"))
		}
	}

	rr := do("192.0.2.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("missing X-RateLimit-Reset")
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body.Error.Code != "rate_limited" {
		t.Errorf("body code = %q, err = %v", body.Error.Code, err)
	}

	if rr := do("192.0.2.2"); rr.Code != http.StatusOK {
		t.Errorf("other client status = %d", rr.Code)
	}

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatal(err)
	}
	if got := counterValue(t, reg, MetricRateLimitRequests, map[string]string{"endpoint": "/feed/mentors", "key_type": "ip"}); got != 4 {
		t.Errorf("%s = %v, want 4", MetricRateLimitRequests, got)
	}
	if got := counterValue(t, reg, MetricRateLimitBlocked, map[string]string{"endpoint": "/feed/mentors", "key_type": "ip"}); got != 1 {
		t.Errorf("%s = %v, want 1", MetricRateLimitBlocked, got)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name  string
		store RateLimitStore
		cfg   RateLimitConfig
	}{
		{"nil store", nil, FeedLimit(30)},
		{"zero limit", NewInMemoryRateLimitStore(), FeedLimit(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimiter(tt.store, tt.cfg, IdentityKeyFunc, nil, "/feed/users")(next)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/feed/users", nil))
			if rr.Header().Get("X-RateLimit-Limit") != "" {
				t.Error("disabled limiter should not set headers")
			}
		})
	}
}

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg     RateLimitConfig
		wantErr bool
	}{
		{FeedLimit(30), false},
		{RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute}, true},
		{RateLimitConfig{RequestsPerWindow: 5, WindowDuration: 0}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}
