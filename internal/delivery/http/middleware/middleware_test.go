package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"momo-storefront/config"
	"momo-storefront/internal/domain"
	"momo-storefront/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureSession(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = SessionID(r.Context())
	})
}

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	var got string
	h := NewSessionMiddleware("sf_session", false)(captureSession(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	_, err := uuid.Parse(got)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sf_session", cookies[0].Name)
	assert.Equal(t, got, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, got, rec.Header().Get(SessionHeader))
}

func TestSessionMiddleware_ReusesCookie(t *testing.T) {
	var got string
	h := NewSessionMiddleware("sf_session", false)(captureSession(&got))
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, id, got)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionMiddleware_HeaderAndInvalidValues(t *testing.T) {
	var got string
	h := NewSessionMiddleware("sf_session", false)(captureSession(&got))
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, id)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, id, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: "../../etc"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "../../etc", got)
}

func TestOptionalAuth(t *testing.T) {
	utils.SetSecret("test-secret")
	token, err := utils.GenerateJWT("u1", "a@b.c", "76123456", time.Hour)
	require.NoError(t, err)

	var userID, forwarded string
	h := OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = ""
		if u := CurrentUser(r.Context()); u != nil {
			userID = u.ID
		}
		forwarded, _ = r.Context().Value(domain.TokenContextKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, token, forwarded)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, userID)
}

func TestRequireAuth(t *testing.T) {
	utils.SetSecret("test-secret")
	token, err := utils.GenerateJWT("u1", "", "", time.Hour)
	require.NoError(t, err)

	h := OptionalAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	cfg := &config.Config{AllowedOrigin: "https://shop.example, https://admin.example"}
	h := NewCORSMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "https://admin.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionHeader)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter_PerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, Limit{Rate: 1, Burst: 2}, Limit{}, time.Minute, time.Minute)
	defer rl.Shutdown()

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_PerSessionBehindSharedIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, Limit{Rate: 1, Burst: 10}, Limit{Rate: 1, Burst: 2}, time.Minute, time.Minute)
	defer rl.Shutdown()

	h := NewSessionMiddleware("sf_session", false)(
		rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})),
	)

	send := func(session string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set("X-Forwarded-For", "41.0.0.1")
		req.Header.Set(SessionHeader, session)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	busy := uuid.NewString()
	assert.Equal(t, http.StatusOK, send(busy).Code)
	assert.Equal(t, http.StatusOK, send(busy).Code)
	rec := send(busy)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another buyer on the same carrier IP is unaffected.
	assert.Equal(t, http.StatusOK, send(uuid.NewString()).Code)
}

func TestRateLimiter_ThrottledSessionSparesIPTokens(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, Limit{Rate: 0.001, Burst: 3}, Limit{Rate: 0.001, Burst: 1}, time.Minute, time.Minute)
	defer rl.Shutdown()

	session := uuid.NewString()
	_, ok := rl.reserve("41.0.0.1", session)
	require.True(t, ok)
	_, ok = rl.reserve("41.0.0.1", session)
	require.False(t, ok)

	// The throttled attempt never reached the IP bucket: two more sessions fit.
	_, ok = rl.reserve("41.0.0.1", uuid.NewString())
	assert.True(t, ok)
	_, ok = rl.reserve("41.0.0.1", uuid.NewString())
	assert.True(t, ok)
}
