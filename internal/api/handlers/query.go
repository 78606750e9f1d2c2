package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careeyes/fod/internal/analytics"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/pkg/dto"
)

// Clock returns the current time in the dashboard's timezone.
type Clock func() time.Time

// ClockIn returns a Clock reading wall time in loc.
func ClockIn(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// splitValues flattens repeated and comma separated query values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func parseStatuses(values []string) ([]models.Status, error) {
	var out []models.Status
	for _, v := range splitValues(values) {
		s := analytics.ClassifyStatus(v)
		if s == models.StatusUnknown && !strings.EqualFold(v, models.StatusUnknown.String()) {
			return nil, fmt.Errorf("unknown status %q", v)
		}
		out = append(out, s)
	}
	return out, nil
}

// bindQuery reads the dashboard filter selections from the query string.
func bindQuery(c *gin.Context) (dto.EventQuery, analytics.Criteria, error) {
	var q dto.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, analytics.Criteria{}, err
	}

	dateRange, err := analytics.ParseDateRange(q.DateRange, q.Start, q.End)
	if err != nil {
		return q, analytics.Criteria{}, err
	}
	timeRange, err := analytics.ParseTimeRange(q.TimeRange)
	if err != nil {
		return q, analytics.Criteria{}, err
	}
	statuses, err := parseStatuses(q.Status)
	if err != nil {
		return q, analytics.Criteria{}, err
	}

	return q, analytics.Criteria{
		ItemTypes: splitValues(q.ItemType),
		Locations: splitValues(q.Location),
		Statuses:  statuses,
		DateRange: dateRange,
		TimeRange: timeRange,
	}, nil
}
