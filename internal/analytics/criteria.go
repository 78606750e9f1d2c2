package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/careeyes/fod/internal/models"
)

// DateRangeKind selects a relative or explicit calendar window.
type DateRangeKind int

const (
	DateAll DateRangeKind = iota
	DateToday
	DateThisWeek
	DateThisMonth
	DateCustom
)

func (k DateRangeKind) String() string {
	switch k {
	case DateToday:
		return "TODAY"
	case DateThisWeek:
		return "THIS_WEEK"
	case DateThisMonth:
		return "THIS_MONTH"
	case DateCustom:
		return "CUSTOM"
	default:
		return "ALL"
	}
}

// DateRange is a named bucket or an inclusive {Start, End} pair of calendar dates.
type DateRange struct {
	Kind  DateRangeKind
	Start time.Time
	End   time.Time
}

// TimeRange partitions the day into quadrants.
type TimeRange int

const (
	TimeAll TimeRange = iota
	TimeDawn
	TimeMorning
	TimeAfternoon
	TimeEvening
)

func (t TimeRange) String() string {
	switch t {
	case TimeDawn:
		return "DAWN"
	case TimeMorning:
		return "MORNING"
	case TimeAfternoon:
		return "AFTERNOON"
	case TimeEvening:
		return "EVENING"
	default:
		return "ALL"
	}
}

// Hours returns the half-open hour interval [lo, hi) of the quadrant.
func (t TimeRange) Hours() (lo, hi int) {
	switch t {
	case TimeDawn:
		return 0, 6
	case TimeMorning:
		return 6, 12
	case TimeAfternoon:
		return 12, 18
	case TimeEvening:
		return 18, 24
	default:
		return 0, 24
	}
}

// Criteria is an immutable set of user filter selections. Empty sets match everything.
type Criteria struct {
	ItemTypes []string
	Locations []string
	Statuses  []models.Status
	DateRange DateRange
	TimeRange TimeRange
}

// ParseDateRange accepts the canonical names and the Korean dropdown labels.
// CUSTOM requires both start and end as YYYY-MM-DD.
func ParseDateRange(name, start, end string) (DateRange, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "ALL", "전체":
		if start != "" || end != "" {
			return parseCustomRange(start, end)
		}
		return DateRange{Kind: DateAll}, nil
	case "TODAY", "오늘":
		return DateRange{Kind: DateToday}, nil
	case "THIS_WEEK", "WEEK", "이번주":
		return DateRange{Kind: DateThisWeek}, nil
	case "THIS_MONTH", "MONTH", "한달", "이번달":
		return DateRange{Kind: DateThisMonth}, nil
	case "CUSTOM", "사용자 지정":
		return parseCustomRange(start, end)
	default:
		return DateRange{}, fmt.Errorf("unknown date range %q", name)
	}
}

func parseCustomRange(start, end string) (DateRange, error) {
	s, ok := parseDate(start)
	if !ok {
		return DateRange{}, fmt.Errorf("invalid start date %q", start)
	}
	e, ok := parseDate(end)
	if !ok {
		return DateRange{}, fmt.Errorf("invalid end date %q", end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return DateRange{Kind: DateCustom, Start: s, End: e}, nil
}

// ParseTimeRange accepts the canonical names and the Korean dropdown labels.
func ParseTimeRange(name string) (TimeRange, error) {
	n := strings.TrimSpace(name)
	switch strings.ToUpper(n) {
	case "", "ALL", "전체":
		return TimeAll, nil
	case "DAWN", "새벽", "새벽(00:00-06:00)":
		return TimeDawn, nil
	case "MORNING", "오전", "오전(06:00-12:00)":
		return TimeMorning, nil
	case "AFTERNOON", "오후", "오후(12:00-18:00)":
		return TimeAfternoon, nil
	case "EVENING", "저녁", "저녁(18:00-24:00)":
		return TimeEvening, nil
	default:
		return TimeAll, fmt.Errorf("unknown time range %q", name)
	}
}
