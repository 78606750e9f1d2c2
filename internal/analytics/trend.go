package analytics

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/careeyes/fod/internal/models"
)

// Series is one line or bar group of a trend chart, aligned with Chart.Labels.
type Series struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Data  []int  `json:"data"`
	Color string `json:"color"`
}

// Chart is the dataset shape consumed by the chart widgets.
type Chart struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

func emptyChart() Chart {
	return Chart{Labels: []string{}, Series: []Series{}}
}

const hourBucketSpan = 4

// buckets maps an event to its position on the x axis.
type buckets struct {
	labels []string
	index  func(ev models.DetectionEvent) (int, bool)
}

// bucketsFor picks the granularity implied by the date range: 4-hour slots for
// TODAY, days for THIS_WEEK, 4-day spans for THIS_MONTH. Any other range falls
// back to the hourly slots.
func bucketsFor(r DateRangeKind, today time.Time) buckets {
	today = CalendarDay(today)
	switch r {
	case DateThisWeek:
		return weekBuckets(today)
	case DateThisMonth:
		return monthBuckets(today)
	default:
		return hourBuckets()
	}
}

// hourBuckets yields 00시 through 24시. The 24시 slot closes the day and never
// receives events.
func hourBuckets() buckets {
	labels := make([]string, 0, 24/hourBucketSpan+1)
	for h := 0; h <= 24; h += hourBucketSpan {
		labels = append(labels, fmt.Sprintf("%02d시", h))
	}
	return buckets{
		labels: labels,
		index: func(ev models.DetectionEvent) (int, bool) {
			hour, ok := eventHour(ev)
			if !ok {
				return 0, false
			}
			return hour / hourBucketSpan, true
		},
	}
}

func weekBuckets(today time.Time) buckets {
	first := today.AddDate(0, 0, -6)
	labels := make([]string, 7)
	for i := range labels {
		d := first.AddDate(0, 0, i)
		labels[i] = fmt.Sprintf("%d/%d %s", int(d.Month()), d.Day(), weekdayNames[d.Weekday()])
	}
	return buckets{
		labels: labels,
		index: func(ev models.DetectionEvent) (int, bool) {
			d, ok := eventDate(ev)
			if !ok {
				return 0, false
			}
			i := int(d.Sub(first).Hours() / 24)
			if d.Before(first) || i > 6 {
				return 0, false
			}
			return i, true
		},
	}
}

const monthBucketSpan = 4

func monthBuckets(today time.Time) buckets {
	days := daysIn(today.Year(), today.Month())
	n := (days + monthBucketSpan - 1) / monthBucketSpan
	labels := make([]string, n)
	for i := range labels {
		start := i*monthBucketSpan + 1
		end := min((i+1)*monthBucketSpan, days)
		labels[i] = fmt.Sprintf("%d일~%d일", start, end)
	}
	return buckets{
		labels: labels,
		index: func(ev models.DetectionEvent) (int, bool) {
			d, ok := eventDate(ev)
			if !ok || d.Year() != today.Year() || d.Month() != today.Month() {
				return 0, false
			}
			return (d.Day() - 1) / monthBucketSpan, true
		},
	}
}

// Trend counts events per bucket for every distinct value of key. Series
// appear in first-encountered order. Events should already be filtered to the
// same date range.
func Trend(events []models.DetectionEvent, key GroupKey, r DateRangeKind, today time.Time) Chart {
	if len(events) == 0 {
		return emptyChart()
	}
	b := bucketsFor(r, today)
	order, _ := countBy(events, key)

	series := make([]Series, len(order))
	pos := make(map[string]int, len(order))
	for i, value := range order {
		pos[value] = i
		series[i] = Series{
			Key:   value,
			Label: displayLabel(key, value),
			Data:  make([]int, len(b.labels)),
			Color: colorAt(itemTypePalette, i),
		}
	}

	for _, ev := range events {
		idx, ok := b.index(ev)
		if !ok {
			slog.Debug("event outside trend buckets", "event_id", ev.ID, "date", ev.Date, "time", ev.Time)
			continue
		}
		series[pos[groupValue(ev, key)]].Data[idx]++
	}
	return Chart{Labels: b.labels, Series: series}
}

// Frequency is the location x item type variant of Trend. Item types are
// ranked by their total count across all events (most frequent first) and
// that rank fixes series order and color. Within one item type, locations keep
// first-encountered order. Only pairs that occur get a series.
func Frequency(events []models.DetectionEvent, r DateRangeKind, today time.Time) Chart {
	if len(events) == 0 {
		return emptyChart()
	}
	b := bucketsFor(r, today)

	types, typeCounts := countBy(events, ByItemType)
	slices.SortStableFunc(types, func(x, y string) int {
		return typeCounts[y] - typeCounts[x]
	})
	locations, _ := countBy(events, ByLocation)

	type pair struct{ itemType, location string }
	present := make(map[pair]bool)
	for _, ev := range events {
		present[pair{ev.ItemType, ev.Location}] = true
	}

	var series []Series
	pos := make(map[pair]int)
	for rank, t := range types {
		for _, loc := range locations {
			p := pair{t, loc}
			if !present[p] {
				continue
			}
			label := ItemTypeLabel(t)
			if len(locations) > 1 {
				label = loc + " · " + label
			}
			pos[p] = len(series)
			series = append(series, Series{
				Key:   loc + "/" + t,
				Label: label,
				Data:  make([]int, len(b.labels)),
				Color: colorAt(itemTypePalette, rank),
			})
		}
	}

	for _, ev := range events {
		idx, ok := b.index(ev)
		if !ok {
			continue
		}
		series[pos[pair{ev.ItemType, ev.Location}]].Data[idx]++
	}
	return Chart{Labels: b.labels, Series: series}
}
