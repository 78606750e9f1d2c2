package analytics

import (
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/careeyes/fod/internal/models"
)

// ClassifyStatus maps a raw status value, as decoded from any upstream
// payload, to one of the canonical triage states. Numbers use the
// 0 unhandled / 1 in progress / 2 resolved encoding; text may be the
// canonical name, the Korean label or a numeric string. Anything else is
// StatusUnknown.
func ClassifyStatus(raw any) models.Status {
	switch v := raw.(type) {
	case nil:
		return models.StatusUnknown
	case models.Status:
		if v.Valid() {
			return v
		}
		return models.StatusUnknown
	case int:
		return models.StatusFromCode(v)
	case int32:
		return models.StatusFromCode(int(v))
	case int64:
		return models.StatusFromCode(int(v))
	case float64:
		if v != math.Trunc(v) {
			return models.StatusUnknown
		}
		return models.StatusFromCode(int(v))
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return models.StatusUnknown
		}
		return models.StatusFromCode(n)
	case string:
		return models.ParseStatus(v)
	default:
		return models.StatusUnknown
	}
}

// severity orders statuses for the triage list; unknown sorts last.
func severity(s models.Status) int {
	if !s.Valid() {
		return 3
	}
	return int(s)
}
