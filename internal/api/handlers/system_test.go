package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestReadyz(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewSystemHandler(map[string]Pinger{"postgres": ok, "nats": ok})
	w := do(t, http.MethodGet, "/readyz", "/readyz", nil, h.Readyz)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode[readyResponse](t, w).Status)

	h = NewSystemHandler(map[string]Pinger{"postgres": ok, "minio": down})
	w = do(t, http.MethodGet, "/readyz", "/readyz", nil, h.Readyz)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[readyResponse](t, w)
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "connection refused", resp.Checks["minio"])
}

func TestHealthzAndData(t *testing.T) {
	h := NewSystemHandler(nil)

	w := do(t, http.MethodGet, "/healthz", "/healthz", nil, h.Healthz)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, http.MethodGet, "/api/data", "/api/data", nil, h.Data)
	assert.Equal(t, http.StatusOK, w.Code)
}
