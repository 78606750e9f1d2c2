package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/api/ws"
	"github.com/careeyes/fod/internal/auth"
	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/eventsource"
	"github.com/careeyes/fod/internal/models"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	sessions, err := auth.NewSessionManager(config.AuthConfig{JWTSecret: "s", SessionTTL: time.Hour, CookieName: "ce_session"})
	require.NoError(t, err)

	snap := eventsource.NewSnapshot()
	snap.Replace([]models.DetectionEvent{{ID: "1", Date: "2024-06-05", Time: "10:00:00", ItemType: "bird", Location: "R1"}})

	return NewRouter(RouterConfig{
		APIKey:         "detector-key",
		AllowedOrigins: []string{"http://dashboard.local"},
		Hub:            ws.NewHub(),
		Snapshot:       snap,
		Sessions:       sessions,
		Clock:          func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) },
	})
}

func TestRouter_Routes(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/data", http.StatusOK},
		{http.MethodGet, "/api/events?dateRange=TODAY", http.StatusOK},
		{http.MethodGet, "/api/analytics/ratio?key=location", http.StatusOK},
		{http.MethodGet, "/api/analytics/summary", http.StatusOK},
		{http.MethodPost, "/api/ai/detect", http.StatusUnauthorized},
		{http.MethodPost, "/api/member/account/link-kakao", http.StatusUnauthorized},
		{http.MethodGet, "/v1/streams", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.target)
	}
}

func TestRouter_CORS(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/event/1/status", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
