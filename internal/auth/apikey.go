package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	detectorKeyHeader = "X-API-Key"
	bearerPrefix      = "Bearer "
)

// DetectorKey reads the detector's key from X-API-Key, falling back to an
// "Authorization: Bearer" header for clients that only speak bearer auth.
func DetectorKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(detectorKeyHeader)); key != "" {
		return key
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > len(bearerPrefix) && strings.EqualFold(authz[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(authz[len(bearerPrefix):])
	}
	return ""
}

// RequireDetectorKey guards the detector intake routes. An empty key leaves
// them open, which is how local setups without a detector secret run.
func RequireDetectorKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}
		got := DetectorKey(c.Request)
		switch {
		case got == "":
			c.Header("WWW-Authenticate", `Bearer realm="detector"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "detector key required"})
		case subtle.ConstantTimeCompare([]byte(got), want) != 1:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "detector key rejected"})
		default:
			c.Next()
		}
	}
}
