package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/models"
)

func TestFilter_ByStatus(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-01", "09:00", "bird", "R1", models.StatusFromCode(0)),
		event("2", "2024-06-01", "09:00", "vehicle", "R1", models.StatusFromCode(2)),
	}

	got := Filter(events, Criteria{Statuses: []models.Status{models.StatusUnhandled}}, today)

	require.Len(t, got, 1)
	assert.Equal(t, events[0], got[0])
}

func TestFilter_EmptyCriteriaMatchesAll(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-01", "09:00", "bird", "R1", models.StatusUnhandled),
		event("2", "not-a-date", "??", "vehicle", "R2", models.StatusResolved),
	}

	got := Filter(events, Criteria{}, today)

	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestFilter_ItemTypesAndLocations(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("2", "2024-06-05", "09:00", "vehicle", "R1", models.StatusUnhandled),
		event("3", "2024-06-05", "09:00", "bird", "R2", models.StatusUnhandled),
		event("4", "2024-06-05", "09:00", "kite", "R2", models.StatusUnhandled),
	}

	c := Criteria{ItemTypes: []string{"bird", "kite"}, Locations: []string{"R2"}}

	assert.Equal(t, []string{"3", "4"}, ids(Filter(events, c, today)))
}

func TestFilter_DateRanges(t *testing.T) {
	events := []models.DetectionEvent{
		event("today", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("minus6", "2024-05-30", "09:00", "bird", "R1", models.StatusUnhandled),
		event("minus7", "2024-05-29", "09:00", "bird", "R1", models.StatusUnhandled),
		event("month", "2024-06-01", "09:00", "bird", "R1", models.StatusUnhandled),
		event("future", "2024-06-06", "09:00", "bird", "R1", models.StatusUnhandled),
		event("lastyear", "2023-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
	}

	tests := []struct {
		name string
		r    DateRange
		want []string
	}{
		{"all", DateRange{Kind: DateAll}, []string{"today", "minus6", "minus7", "month", "future", "lastyear"}},
		{"today", DateRange{Kind: DateToday}, []string{"today"}},
		{"rolling week", DateRange{Kind: DateThisWeek}, []string{"today", "minus6", "month"}},
		{"calendar month", DateRange{Kind: DateThisMonth}, []string{"today", "month", "future"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(events, Criteria{DateRange: tt.r}, today)))
		})
	}
}

func TestFilter_CustomRangeIsInclusive(t *testing.T) {
	events := []models.DetectionEvent{
		event("before", "2024-05-31", "23:59", "bird", "R1", models.StatusUnhandled),
		event("start", "2024-06-01", "00:00", "bird", "R1", models.StatusUnhandled),
		event("end", "2024-06-03", "23:59:59", "bird", "R1", models.StatusUnhandled),
		event("after", "2024-06-04", "00:00", "bird", "R1", models.StatusUnhandled),
	}
	r, err := ParseDateRange("CUSTOM", "2024-06-01", "2024-06-03")
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "end"}, ids(Filter(events, Criteria{DateRange: r}, today)))
}

func TestFilter_TimeRange(t *testing.T) {
	events := []models.DetectionEvent{
		event("dawn", "2024-06-05", "05:59", "bird", "R1", models.StatusUnhandled),
		event("morning", "2024-06-05", "06:00", "bird", "R1", models.StatusUnhandled),
		event("noon", "2024-06-05", "12:00:00", "bird", "R1", models.StatusUnhandled),
		event("evening", "2024-06-05", "23:10", "bird", "R1", models.StatusUnhandled),
	}

	assert.Equal(t, []string{"dawn"}, ids(Filter(events, Criteria{TimeRange: TimeDawn}, today)))
	assert.Equal(t, []string{"morning"}, ids(Filter(events, Criteria{TimeRange: TimeMorning}, today)))
	assert.Equal(t, []string{"noon"}, ids(Filter(events, Criteria{TimeRange: TimeAfternoon}, today)))
	assert.Equal(t, []string{"evening"}, ids(Filter(events, Criteria{TimeRange: TimeEvening}, today)))
}

func TestFilter_MalformedFieldsOnlyDropFromFilteredViews(t *testing.T) {
	events := []models.DetectionEvent{
		event("bad-date", "06/05/2024", "09:00", "bird", "R1", models.StatusUnhandled),
		event("bad-time", "2024-06-05", "nine", "bird", "R1", models.StatusUnhandled),
		event("ok", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
	}

	assert.Equal(t, []string{"bad-date", "bad-time", "ok"}, ids(Filter(events, Criteria{}, today)))
	assert.Equal(t, []string{"bad-time", "ok"}, ids(Filter(events, Criteria{DateRange: DateRange{Kind: DateToday}}, today)))
	assert.Equal(t, []string{"bad-date", "ok"}, ids(Filter(events, Criteria{TimeRange: TimeMorning}, today)))
}

func TestFilter_IsIdempotentAndDoesNotMutate(t *testing.T) {
	events := []models.DetectionEvent{
		event("1", "2024-06-05", "09:00", "bird", "R1", models.StatusUnhandled),
		event("2", "2024-06-04", "13:00", "vehicle", "R2", models.StatusResolved),
		event("3", "2024-06-05", "19:00", "bird", "R2", models.StatusInProgress),
	}
	before := append([]models.DetectionEvent(nil), events...)
	c := Criteria{ItemTypes: []string{"bird"}, DateRange: DateRange{Kind: DateThisWeek}}

	once := Filter(events, c, today)
	twice := Filter(events, c, today)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, Filter(once, c, today))
	assert.Equal(t, before, events)
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("이번주", "", "")
	require.NoError(t, err)
	assert.Equal(t, DateThisWeek, r.Kind)

	r, err = ParseDateRange("", "2024-06-01", "2024-06-02")
	require.NoError(t, err)
	assert.Equal(t, DateCustom, r.Kind)

	_, err = ParseDateRange("CUSTOM", "2024-06-03", "2024-06-01")
	assert.Error(t, err)

	_, err = ParseDateRange("YESTERDAY", "", "")
	assert.Error(t, err)
}

func TestParseTimeRange(t *testing.T) {
	r, err := ParseTimeRange("오후(12:00-18:00)")
	require.NoError(t, err)
	assert.Equal(t, TimeAfternoon, r)

	_, err = ParseTimeRange("NIGHT")
	assert.Error(t, err)
}
