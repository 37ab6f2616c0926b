package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int, window time.Duration) (http.Handler, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            window,
		KeyPrefix:         "phone_registry",
	}

	handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr, redisClient
}

func send(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/phone/check", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Feature: bot-dashboard, Property 16: Rate limiting blocks excessive requests
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly limit requests pass, the rest get 429", prop.ForAll(
		func(limit int, excess int) bool {
			handler, mr, _ := newRateLimitedHandler(t, limit, time.Minute)
			defer mr.Close()

			passed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				switch send(handler, "192.168.1.100:40000").Code {
				case http.StatusOK:
					passed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}

			if passed != limit || blocked != excess {
				t.Logf("FAIL: limit=%d excess=%d passed=%d blocked=%d", limit, excess, passed, blocked)
				return false
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitIgnoresSourcePort(t *testing.T) {
	handler, _, _ := newRateLimitedHandler(t, 2, time.Minute)

	send(handler, "10.0.0.1:1111")
	send(handler, "10.0.0.1:2222")
	w := send(handler, "10.0.0.1:3333")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 for third request from same host, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	if other := send(handler, "10.0.0.2:1111"); other.Code != http.StatusOK {
		t.Errorf("Other clients should not share the bucket, got %d", other.Code)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	handler, _, _ := newRateLimitedHandler(t, 5, time.Minute)

	w := send(handler, "10.0.0.1")

	if w.Header().Get("X-RateLimit-Limit") != "5" {
		t.Errorf("Expected limit header 5, got %q", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Errorf("Expected remaining header 4, got %q", w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	handler, mr, _ := newRateLimitedHandler(t, 1, time.Minute)

	send(handler, "10.0.0.1")
	if w := send(handler, "10.0.0.1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 inside the window, got %d", w.Code)
	}

	mr.FastForward(time.Minute + time.Second)

	if w := send(handler, "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("Expected 200 after the window expired, got %d", w.Code)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	handler, mr, _ := newRateLimitedHandler(t, 1, time.Minute)
	mr.Close()

	for i := 0; i < 3; i++ {
		if w := send(handler, "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("Expected requests to pass when redis is down, got %d", w.Code)
		}
	}
}
