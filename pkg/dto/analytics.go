package dto

import "github.com/careeyes/fod/internal/analytics"

type RatioResponse struct {
	Key       string            `json:"key"`
	DateRange string            `json:"dateRange"`
	Total     int               `json:"total"`
	Slices    []analytics.Slice `json:"slices"`
}

type ChartResponse struct {
	Key       string `json:"key,omitempty"`
	DateRange string `json:"dateRange"`
	analytics.Chart
}

type SummaryResponse struct {
	DateRange string `json:"dateRange"`
	analytics.StatusSummary
}
