package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/technosupport/vms-inventory/internal/middleware"
	"github.com/technosupport/vms-inventory/internal/ratelimit"
)

func newLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	return ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "salt")
}

func deadLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()
	return ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: addr}), "salt")
}

func TestRateLimit_GlobalIP(t *testing.T) {
	cfg := middleware.Config{
		GlobalIP: ratelimit.LimitConfig{Rate: 2, Window: time.Second},
	}
	mw := middleware.NewRateLimitMiddleware(newLimiter(t), cfg, nil, nil)
	handler := mw.GlobalLimiter(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	// 1. Allow
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	// 2. Allow
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	// 3. Block
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 429 {
		t.Errorf("Expected 429, got %d", w.Code)
	}

	// Check Headers
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("Expected remaining 0")
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	// Another client is unaffected
	req2 := httptest.NewRequest("GET", "/", nil)
	req2.RemoteAddr = "5.6.7.8:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req2)
	if w.Code != 200 {
		t.Errorf("Expected 200 for second client, got %d", w.Code)
	}
}

func TestRateLimit_RedisDown_FailOpen(t *testing.T) {
	cfg := middleware.Config{GlobalIP: ratelimit.LimitConfig{Rate: 1, Window: time.Second}}
	mw := middleware.NewRateLimitMiddleware(deadLimiter(t), cfg, nil, nil)

	w := httptest.NewRecorder()
	mw.GlobalLimiter(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != 200 {
		t.Errorf("Expected 200 (Fail Open), got %d", w.Code)
	}
}

func TestRateLimit_User(t *testing.T) {
	cfg := middleware.Config{
		User: ratelimit.LimitConfig{Rate: 1, Window: time.Second},
	}
	mw := middleware.NewRateLimitMiddleware(newLimiter(t), cfg, nil, nil)
	handler := mw.UserLimiter(http.HandlerFunc(okHandler))

	ctx := middleware.WithAuthContext(context.Background(), &middleware.AuthContext{UserID: 7})
	req := httptest.NewRequest("POST", "/api/camera", nil).WithContext(ctx)

	// 1. Allow
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	// 2. Block User
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 429 {
		t.Errorf("Expected 429 User Block, got %d", w.Code)
	}

	// Anonymous requests are not user-limited
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/camera/GetAll", nil))
	if w.Code != 200 {
		t.Errorf("Expected 200 for anonymous, got %d", w.Code)
	}
}

func TestRateLimit_Login_KeyedByUsername(t *testing.T) {
	cfg := middleware.Config{Login: ratelimit.LimitConfig{Rate: 1, Window: time.Minute}}
	mw := middleware.NewRateLimitMiddleware(newLimiter(t), cfg, nil, nil)

	var seenBody string
	handler := mw.LoginLimiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		seenBody = buf.String()
		w.WriteHeader(200)
	}))

	login := func(user string) int {
		body := `{"username":"` + user + `","password":"x"}`
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
		req.RemoteAddr = "9.9.9.9:1000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := login("admin"); code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if !strings.Contains(seenBody, `"username":"admin"`) {
		t.Errorf("Body was not restored for the handler: %q", seenBody)
	}
	if code := login("admin"); code != 429 {
		t.Errorf("Expected 429, got %d", code)
	}
	if code := login("operator"); code != 200 {
		t.Errorf("Expected 200 for a different username, got %d", code)
	}
}

func TestRateLimit_RedisDown_Login_FailClosed(t *testing.T) {
	cfg := middleware.Config{Login: ratelimit.LimitConfig{Rate: 5, Window: time.Minute}}
	mw := middleware.NewRateLimitMiddleware(deadLimiter(t), cfg, nil, nil)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"username":"admin"}`))
	w := httptest.NewRecorder()
	mw.LoginLimiter(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 (Fail Closed), got %d", w.Code)
	}
}

func TestRateLimit_SetConfig(t *testing.T) {
	mw := middleware.NewRateLimitMiddleware(newLimiter(t), middleware.Config{}, nil, nil)
	handler := mw.GlobalLimiter(http.HandlerFunc(okHandler))
	req := httptest.NewRequest("GET", "/", nil)

	// Disabled limits never block
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != 200 {
			t.Fatalf("Expected 200 with limits disabled, got %d", w.Code)
		}
	}

	mw.SetConfig(middleware.Config{GlobalIP: ratelimit.LimitConfig{Rate: 1, Window: time.Minute}})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 429 {
		t.Errorf("Expected 429 after reload, got %d", w.Code)
	}
}
