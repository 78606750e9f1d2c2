package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/ingest"
)

type fakeStreamResolver map[string]string

func (f fakeStreamResolver) Resolve(_ context.Context, videoURL string) (string, error) {
	switch videoURL {
	case "https://youtu.be/offline":
		return "", ingest.ErrNoStream
	case "https://youtu.be/broken":
		return "", errors.New("yt-dlp crashed")
	}
	return f[videoURL], nil
}

func resolveTarget(videoURL string) string {
	return "/api/youtube-m3u8?url=" + url.QueryEscape(videoURL)
}

func TestStreamResolve(t *testing.T) {
	h := NewStreamHandler(fakeStreamResolver{"https://youtu.be/runway": "https://cdn/live.m3u8"}, 0, 0)

	w := do(t, http.MethodGet, "/api/youtube-m3u8", resolveTarget("https://youtu.be/runway"), nil, h.Resolve)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn/live.m3u8", decode[map[string]string](t, w)["m3u8"])

	tests := []struct {
		target string
		want   int
	}{
		{"/api/youtube-m3u8", http.StatusBadRequest},
		{resolveTarget("file:///etc/passwd"), http.StatusBadRequest},
		{resolveTarget("https://youtu.be/offline"), http.StatusNotFound},
		{resolveTarget("https://youtu.be/broken"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := do(t, http.MethodGet, "/api/youtube-m3u8", tt.target, nil, h.Resolve)
		assert.Equal(t, tt.want, w.Code, tt.target)
	}
}

func TestStreamResolve_RateLimited(t *testing.T) {
	h := NewStreamHandler(fakeStreamResolver{"https://youtu.be/runway": "https://cdn/live.m3u8"}, 0.001, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := do(t, http.MethodGet, "/api/youtube-m3u8", resolveTarget("https://youtu.be/runway"), nil, h.Resolve)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
