package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/midas-vault/midas-vault/internal/domain/user"
)

func TestRateLimiterBurst(t *testing.T) {
	l := newRateLimiter(1, 3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("ip:10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.allow("ip:10.0.0.1"))
	assert.True(t, l.allow("ip:10.0.0.2"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.allow("ip:10.0.0.1"))
}

func TestRateLimiterSweep(t *testing.T) {
	l := newRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("ip:a")
	now = now.Add(visitorIdleTTL / 2)
	l.allow("ip:b")
	now = now.Add(visitorIdleTTL/2 + time.Second)

	assert.Equal(t, 1, l.sweep())
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "ip:b")
}

func TestRateLimitMiddleware(t *testing.T) {
	s := NewServer(Services{}, Options{RateLimitRPS: 0.001, RateLimitBurst: 1, Logger: zerolog.Nop()})
	h := s.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/v1/barters", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send(http.MethodPost).Code)
	rec := send(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodGet).Code, "reads are not throttled")
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.4:1234"
	assert.Equal(t, "ip:198.51.100.4", clientKey(req))

	id := uuid.New()
	req = req.WithContext(withActor(req.Context(), user.Actor{UserID: id, Role: user.RoleUser}))
	assert.Equal(t, "user:"+id.String(), clientKey(req))
}
