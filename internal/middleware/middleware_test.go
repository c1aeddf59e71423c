package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/technosupport/vms-inventory/internal/audit"
	"github.com/technosupport/vms-inventory/internal/middleware"
	"github.com/technosupport/vms-inventory/internal/tokens"
)

// Mock Token Validator
type MockTokenValidator struct{}

func (m MockTokenValidator) ValidateToken(token string) (*tokens.Claims, error) {
	claims := &tokens.Claims{Role: "Admin", TokenType: tokens.Access}
	claims.Subject = "42"
	switch token {
	case "valid-access":
		claims.ID = "jti-ok"
	case "revoked-access":
		claims.ID = "revoked-jti"
	case "refresh-token":
		claims.ID = "jti-refresh"
		claims.TokenType = tokens.Refresh
	case "broken-blacklist":
		claims.ID = "jti-broken"
	default:
		return nil, tokens.ErrInvalidToken
	}
	return claims, nil
}

// Mock Blacklist
type MockBlacklist struct{}

func (m MockBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	switch jti {
	case "revoked-jti":
		return true, nil
	case "jti-broken":
		return false, errors.New("redis down")
	}
	return false, nil
}

func (m MockBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return nil
}

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestGate_Authenticated(t *testing.T) {
	mw := middleware.NewJWTAuth(MockTokenValidator{}, MockBlacklist{}, nil)

	req := httptest.NewRequest("POST", "/api/camera", nil)
	req.Header.Set("Authorization", "Bearer valid-access")
	w := httptest.NewRecorder()

	mw.Gate(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := middleware.GetAuthContext(r.Context())
		if !ok || ac.UserID != 42 || ac.Role != "Admin" {
			t.Errorf("AuthContext missing or invalid: %+v", ac)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestGate_Rejections(t *testing.T) {
	mw := middleware.NewJWTAuth(MockTokenValidator{}, MockBlacklist{}, nil)
	handler := mw.Gate(false)(http.HandlerFunc(okHandler))

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic dXNlcjpwYXNz",
		"bad token":       "Bearer garbage",
		"revoked":         "Bearer revoked-access",
		"refresh token":   "Bearer refresh-token",
		"blacklist error": "Bearer broken-blacklist",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/api/camera/1", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestGate_PublicPassesThrough(t *testing.T) {
	mw := middleware.NewJWTAuth(MockTokenValidator{}, MockBlacklist{}, nil)
	w := httptest.NewRecorder()
	mw.Gate(true)(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest("GET", "/api/camera/GetAll", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware, middleware.RequestLogger(zap.New(core)))
	r.Get("/api/camera/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, middleware.RequestID(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/camera/7", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/camera/{id}", fields["route"])
	assert.EqualValues(t, 404, fields["status"])
	assert.Equal(t, w.Header().Get("X-Request-ID"), fields["req_id"])
}

func TestRequestID_ReusesIncoming(t *testing.T) {
	h := middleware.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc-123", middleware.RequestID(r.Context()))
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

type chanWriter chan audit.Entry

func (c chanWriter) Write(ctx context.Context, e audit.Entry) { c <- e }

func TestAuditMiddleware_LogsMutations(t *testing.T) {
	entries := make(chanWriter, 1)
	mw := middleware.NewAuditMiddleware(entries)

	r := chi.NewRouter()
	r.With(mw.LogRequest).Put("/api/camera/update-status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest("PUT", "/api/camera/update-status", nil)
	req = req.WithContext(middleware.WithAuthContext(req.Context(), &middleware.AuthContext{UserID: 9}))
	r.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case e := <-entries:
		assert.Equal(t, "camera", e.ModuleName)
		assert.Equal(t, "PUT /api/camera/update-status", e.Action)
		require.NotNil(t, e.UserID)
		assert.Equal(t, int64(9), *e.UserID)
		assert.Equal(t, http.StatusNoContent, e.Data["status"])
	case <-time.After(time.Second):
		t.Fatal("no activity log entry written")
	}
}

func TestAuditMiddleware_IgnoresReads(t *testing.T) {
	entries := make(chanWriter, 1)
	mw := middleware.NewAuditMiddleware(entries)

	mw.LogRequest(http.HandlerFunc(okHandler)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/camera/GetAll", nil))

	select {
	case e := <-entries:
		t.Errorf("read was logged: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditMiddleware_SkipsAnonymous(t *testing.T) {
	entries := make(chanWriter, 1)
	mw := middleware.NewAuditMiddleware(entries)

	mw.LogRequest(http.HandlerFunc(okHandler)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/login", nil))
	require.NoError(t, mw.Wait(context.Background()))

	select {
	case e := <-entries:
		t.Errorf("anonymous call was logged: %+v", e)
	default:
	}
}

// heldWriter blocks each write until release is closed.
type heldWriter struct {
	release chan struct{}
	written chan audit.Entry
}

func (h heldWriter) Write(ctx context.Context, e audit.Entry) {
	<-h.release
	h.written <- e
}

func TestAuditMiddleware_WaitDrainsPendingWrites(t *testing.T) {
	w := heldWriter{release: make(chan struct{}), written: make(chan audit.Entry, 1)}
	mw := middleware.NewAuditMiddleware(w)

	req := httptest.NewRequest("DELETE", "/api/camera/3", nil)
	req = req.WithContext(middleware.WithAuthContext(req.Context(), &middleware.AuthContext{UserID: 4}))
	mw.LogRequest(http.HandlerFunc(okHandler)).ServeHTTP(httptest.NewRecorder(), req)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, mw.Wait(ctx), context.DeadlineExceeded, "write still held")

	close(w.release)
	require.NoError(t, mw.Wait(context.Background()))
	select {
	case e := <-w.written:
		assert.Equal(t, int64(4), *e.UserID)
	default:
		t.Fatal("Wait returned before the write finished")
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS([]string{"https://ops.example.com"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest("OPTIONS", "/api/camera", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://ops.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST"))
}
