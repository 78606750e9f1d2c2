package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessions(t *testing.T) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(config.AuthConfig{
		JWTSecret:  "test-secret-0123456789",
		SessionTTL: time.Hour,
		CookieName: "ce_session",
	})
	require.NoError(t, err)
	return m
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("runway42!")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "runway42!"))
	assert.False(t, CheckPassword(hash, "runway43!"))
	assert.False(t, CheckPassword("not-a-hash", "runway42!"))
}

func TestSession_IssueValidate(t *testing.T) {
	m := newSessions(t)

	token, err := m.Issue("worker01", "member")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "worker01", claims.MemberID)
	assert.Equal(t, "member", claims.Role)
}

func TestSession_Expired(t *testing.T) {
	m := newSessions(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue("worker01", "member")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestSession_RejectsOtherAlgorithms(t *testing.T) {
	m := newSessions(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{MemberID: "admin01"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestNewSessionManager_RequiresSecret(t *testing.T) {
	_, err := NewSessionManager(config.AuthConfig{})
	assert.Error(t, err)
}

func TestRequireSession(t *testing.T) {
	m := newSessions(t)
	r := gin.New()
	r.GET("/me", m.RequireSession(), func(c *gin.Context) {
		claims, ok := SessionFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.MemberID)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := m.Issue("admin01", "admin")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "ce_session", Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin01", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "ce_session", Value: token + "x"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireDetectorKey(t *testing.T) {
	r := gin.New()
	r.POST("/detect", RequireDetectorKey("k3y"), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"wrong header key", map[string]string{"X-API-Key": "wrong"}, http.StatusForbidden},
		{"header key", map[string]string{"X-API-Key": "k3y"}, http.StatusAccepted},
		{"bearer key", map[string]string{"Authorization": "Bearer k3y"}, http.StatusAccepted},
		{"lowercase bearer", map[string]string{"Authorization": "bearer k3y"}, http.StatusAccepted},
		{"wrong bearer", map[string]string{"Authorization": "Bearer nope"}, http.StatusForbidden},
		{"basic auth is not a key", map[string]string{"Authorization": "Basic azN5Og=="}, http.StatusUnauthorized},
		{"header wins over bearer", map[string]string{"X-API-Key": "wrong", "Authorization": "Bearer k3y"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/detect", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestRequireDetectorKey_EmptyKeyLeavesRouteOpen(t *testing.T) {
	r := gin.New()
	r.POST("/detect", RequireDetectorKey(""), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/detect", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}
