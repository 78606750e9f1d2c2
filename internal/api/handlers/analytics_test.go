package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/pkg/dto"
)

func analyticsEvents() []models.DetectionEvent {
	return []models.DetectionEvent{
		event("1", "2024-06-05", "01:00:00", "bird", "R1", models.StatusUnhandled),
		event("2", "2024-06-05", "13:45:00", "bird", "R1", models.StatusResolved),
		event("3", "2024-06-05", "14:10:00", "bird", "R2", models.StatusUnhandled),
		event("4", "2024-06-03", "08:00:00", "vehicle", "R1", models.StatusInProgress),
		event("5", "2024-04-01", "08:00:00", "person", "R2", models.StatusUnhandled),
	}
}

func TestAnalyticsRatio(t *testing.T) {
	h := NewAnalyticsHandler(snapshotOf(analyticsEvents()...), fixedClock)

	w := do(t, http.MethodGet, "/api/analytics/ratio", "/api/analytics/ratio?key=itemType&dateRange=THIS_WEEK", nil, h.Ratio)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.RatioResponse](t, w)
	assert.Equal(t, "itemType", resp.Key)
	assert.Equal(t, "THIS_WEEK", resp.DateRange)
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Slices, 2)
	assert.Equal(t, "bird", resp.Slices[0].Key)
	assert.Equal(t, "새", resp.Slices[0].Label)
	assert.InDelta(t, 75.0, resp.Slices[0].Percentage, 0.001)
	assert.Equal(t, "vehicle", resp.Slices[1].Key)
	assert.InDelta(t, 25.0, resp.Slices[1].Percentage, 0.001)

	w = do(t, http.MethodGet, "/api/analytics/ratio", "/api/analytics/ratio?key=location&status=UNHANDLED", nil, h.Ratio)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[dto.RatioResponse](t, w)
	require.Len(t, resp.Slices, 2)
	assert.Equal(t, "R2", resp.Slices[0].Key)

	w = do(t, http.MethodGet, "/api/analytics/ratio", "/api/analytics/ratio?key=color", nil, h.Ratio)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsRatio_EmptySelection(t *testing.T) {
	h := NewAnalyticsHandler(snapshotOf(analyticsEvents()...), fixedClock)

	w := do(t, http.MethodGet, "/api/analytics/ratio", "/api/analytics/ratio?itemType=airplane", nil, h.Ratio)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.RatioResponse](t, w)
	assert.Equal(t, 0, resp.Total)
	assert.Empty(t, resp.Slices)
	assert.Contains(t, w.Body.String(), `"slices":[]`)
}

func TestAnalyticsTrend_Today(t *testing.T) {
	h := NewAnalyticsHandler(snapshotOf(analyticsEvents()...), fixedClock)

	w := do(t, http.MethodGet, "/api/analytics/trend", "/api/analytics/trend?key=itemType&dateRange=TODAY", nil, h.Trend)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.ChartResponse](t, w)
	assert.Equal(t, "TODAY", resp.DateRange)
	assert.Equal(t, []string{"00시", "04시", "08시", "12시", "16시", "20시", "24시"}, resp.Labels)
	require.Len(t, resp.Series, 1)
	assert.Equal(t, "bird", resp.Series[0].Key)
	assert.Equal(t, []int{1, 0, 0, 2, 0, 0, 0}, resp.Series[0].Data)
}

func TestAnalyticsTrend_Week(t *testing.T) {
	h := NewAnalyticsHandler(snapshotOf(analyticsEvents()...), fixedClock)

	w := do(t, http.MethodGet, "/api/analytics/trend", "/api/analytics/trend?key=location&dateRange=THIS_WEEK", nil, h.Trend)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.ChartResponse](t, w)
	require.Len(t, resp.Labels, 7)
	assert.Equal(t, "6/5 수요일", resp.Labels[6])
	assert.Equal(t, "location", resp.Key)
}

func TestAnalyticsFrequency(t *testing.T) {
	h := NewAnalyticsHandler(snapshotOf(analyticsEvents()...), fixedClock)

	w := do(t, http.MethodGet, "/api/analytics/frequency", "/api/analytics/frequency?dateRange=TODAY", nil, h.Frequency)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.ChartResponse](t, w)
	assert.Empty(t, resp.Key)
	var labels []string
	for _, s := range resp.Series {
		labels = append(labels, s.Label)
	}
	assert.ElementsMatch(t, []string{"R1 · 새", "R2 · 새"}, labels)
}

func TestAnalyticsSummary(t *testing.T) {
	h := NewAnalyticsHandler(snapshotOf(analyticsEvents()...), fixedClock)

	w := do(t, http.MethodGet, "/api/analytics/summary", "/api/analytics/summary", nil, h.Summary)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.SummaryResponse](t, w)
	assert.Equal(t, "ALL", resp.DateRange)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 3, resp.Unhandled)
	assert.Equal(t, 1, resp.InProgress)
	assert.Equal(t, 1, resp.Resolved)

	w = do(t, http.MethodGet, "/api/analytics/summary", "/api/analytics/summary?timeRange=NOON", nil, h.Summary)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
