package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/models"
)

func TestRatio_ByItemType(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "vehicle", "R1", models.StatusUnhandled),
		event("2", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("3", "2024-06-05", "09:00", "bird", "R2", models.StatusResolved),
		event("4", "2024-06-05", "09:00", "bird", "R1", models.StatusInProgress),
	}

	got := Ratio(events, ByItemType)

	require.Len(t, got, 2)
	assert.Equal(t, Slice{Key: "bird", Label: "새", Count: 3, Percentage: 75, Display: "75.0%", Color: "#7987FF"}, got[0])
	assert.Equal(t, Slice{Key: "vehicle", Label: "자동차", Count: 1, Percentage: 25, Display: "25.0%", Color: "#E697FF"}, got[1])
}

func TestRatio_ByLocationUsesLocationPalette(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("2", "2024-06-05", "09:00", "bird", "R2", models.StatusUnhandled),
		event("3", "2024-06-05", "09:00", "bird", "R3", models.StatusUnhandled),
	}

	got := Ratio(events, ByLocation)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"R1", "R2", "R3"}, []string{got[0].Key, got[1].Key, got[2].Key}, "ties keep first-seen order")
	assert.Equal(t, "#7987FF", got[0].Color)
	assert.Equal(t, "#FFA5CB", got[1].Color)
	assert.Equal(t, "#7987FF", got[2].Color, "palette wraps")
	assert.Equal(t, "R1", got[0].Label)
}

func TestPalette_ReturnsCopy(t *testing.T) {
	p := Palette(ByItemType)
	p[0] = "#000000"
	assert.Equal(t, "#7987FF", Palette(ByItemType)[0])

	loc := Palette(ByLocation)
	loc[1] = "#000000"
	assert.Equal(t, []string{"#7987FF", "#FFA5CB"}, Palette(ByLocation))
}

func TestRatio_PercentagesSumToHundred(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("2", "2024-06-05", "09:00", "vehicle", "R1", models.StatusUnhandled),
		event("3", "2024-06-05", "09:00", "person", "R1", models.StatusUnhandled),
	}

	got := Ratio(events, ByItemType)

	var sum float64
	for _, s := range got {
		sum += s.Percentage
		assert.Equal(t, "33.3%", s.Display)
	}
	assert.InDelta(t, 100, sum, 1e-9)
}

func TestRatio_Empty(t *testing.T) {
	got := Ratio(nil, ByItemType)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRatio_UnknownItemTypePassesThrough(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "kite", "R1", models.StatusUnhandled),
	}

	got := Ratio(events, ByItemType)

	require.Len(t, got, 1)
	assert.Equal(t, "kite", got[0].Label)
	assert.Equal(t, "100.0%", got[0].Display)
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 66.7, RoundPercent(200.0/3))
	assert.Equal(t, 12.5, RoundPercent(12.5))
}

func TestSummarize(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("2", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("3", "2024-06-05", "09:00", "bird", "R1", models.StatusInProgress),
		event("4", "2024-06-05", "09:00", "bird", "R1", models.StatusResolved),
		event("5", "2024-06-05", "09:00", "bird", "R1", models.StatusFromCode(8)),
	}

	assert.Equal(t, StatusSummary{Total: 5, Unhandled: 2, InProgress: 1, Resolved: 1, Unknown: 1}, Summarize(events))
	assert.Equal(t, StatusSummary{}, Summarize(nil))
}
