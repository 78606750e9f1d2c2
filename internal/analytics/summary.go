package analytics

import "github.com/careeyes/fod/internal/models"

// StatusSummary counts events per triage state.
type StatusSummary struct {
	Total      int `json:"total"`
	Unhandled  int `json:"unhandled"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Unknown    int `json:"unknown"`
}

func Summarize(events []models.DetectionEvent) StatusSummary {
	var s StatusSummary
	for _, ev := range events {
		s.Total++
		switch ClassifyStatus(ev.Status) {
		case models.StatusUnhandled:
			s.Unhandled++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusResolved:
			s.Resolved++
		default:
			s.Unknown++
		}
	}
	return s
}
