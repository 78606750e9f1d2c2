package analytics

import (
	"fmt"
	"math"
	"slices"

	"github.com/careeyes/fod/internal/models"
)

// Slice is one wedge of a ratio chart.
type Slice struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Count      int     `json:"rawCount"`
	Percentage float64 `json:"percentage"`
	Display    string  `json:"display"`
	Color      string  `json:"color"`
}

// Ratio groups events by key and returns each group's share of the total,
// largest first. Ties keep first-encountered order. An empty input yields an
// empty result.
func Ratio(events []models.DetectionEvent, key GroupKey) []Slice {
	if len(events) == 0 {
		return []Slice{}
	}

	order, counts := countBy(events, key)
	total := float64(len(events))

	out := make([]Slice, 0, len(order))
	for _, value := range order {
		pct := 100 * float64(counts[value]) / total
		out = append(out, Slice{
			Key:        value,
			Label:      displayLabel(key, value),
			Count:      counts[value],
			Percentage: pct,
			Display:    fmt.Sprintf("%.1f%%", RoundPercent(pct)),
		})
	}
	sortByPercentage(out)

	palette := Palette(key)
	for i := range out {
		out[i].Color = colorAt(palette, i)
	}
	return out
}

// RoundPercent rounds to one decimal place for display.
func RoundPercent(p float64) float64 {
	return math.Round(p*10) / 10
}

func sortByPercentage(s []Slice) {
	slices.SortStableFunc(s, func(a, b Slice) int {
		switch {
		case a.Percentage > b.Percentage:
			return -1
		case a.Percentage < b.Percentage:
			return 1
		default:
			return 0
		}
	})
}

// countBy returns the distinct values of key in first-encountered order and their counts.
func countBy(events []models.DetectionEvent, key GroupKey) ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, ev := range events {
		v := groupValue(ev, key)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	return order, counts
}

func groupValue(ev models.DetectionEvent, key GroupKey) string {
	if key == ByLocation {
		return ev.Location
	}
	return ev.ItemType
}
