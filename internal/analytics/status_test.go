package analytics

import (
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/careeyes/fod/internal/models"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want models.Status
	}{
		{"int zero", 0, models.StatusUnhandled},
		{"int one", 1, models.StatusInProgress},
		{"int two", 2, models.StatusResolved},
		{"float from json", float64(2), models.StatusResolved},
		{"json number", json.Number("1"), models.StatusInProgress},
		{"numeric string", "0", models.StatusUnhandled},
		{"korean unhandled", "미처리", models.StatusUnhandled},
		{"korean in progress", "처리중", models.StatusInProgress},
		{"korean resolved", "처리완료", models.StatusResolved},
		{"canonical name", "IN_PROGRESS", models.StatusInProgress},
		{"lower case name", "resolved", models.StatusResolved},
		{"out of range code", 7, models.StatusUnknown},
		{"negative code", -1, models.StatusUnknown},
		{"fractional", 1.5, models.StatusUnknown},
		{"garbage text", "lost", models.StatusUnknown},
		{"nil", nil, models.StatusUnknown},
		{"status value", models.StatusResolved, models.StatusResolved},
		{"unknown status value", models.Status(9), models.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.raw))
		})
	}
}

// Numeric and text encodings of the same state must agree, so no view can
// disagree with another about what 1 and 2 mean.
func TestClassifyStatus_NumericAndTextAgree(t *testing.T) {
	for code := 0; code <= 2; code++ {
		s := ClassifyStatus(code)
		assert.Equal(t, s, ClassifyStatus(s.Label()), "label of code %d", code)
		assert.Equal(t, s, ClassifyStatus(s.String()), "name of code %d", code)
		assert.Equal(t, code, s.Code())
	}
	assert.Equal(t, "처리중", ClassifyStatus(1).Label())
	assert.Equal(t, "처리완료", ClassifyStatus(2).Label())
}

// Stored manage codes and raw payload values go through the same mapping.
func TestClassifyStatus_MatchesStoredCodes(t *testing.T) {
	for code := -1; code <= 3; code++ {
		assert.Equal(t, models.StatusFromCode(code), ClassifyStatus(code), "code %d", code)
		assert.Equal(t, ClassifyStatus(code), ClassifyStatus(strconv.Itoa(code)), "code %d as text", code)
	}
}

func TestUnknownStatusNeverMatchesStatusFilter(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "10:00", "bird", "R1", models.StatusFromCode(5)),
		event("2", "2024-06-05", "10:00", "bird", "R1", models.StatusUnhandled),
	}
	c := Criteria{Statuses: []models.Status{models.StatusUnhandled, models.StatusInProgress, models.StatusResolved}}
	assert.Equal(t, []string{"2"}, ids(Filter(events, c, today)))

	c = Criteria{Statuses: []models.Status{models.StatusUnknown}}
	assert.Equal(t, []string{"1"}, ids(Filter(events, c, today)))
}
