package analytics

import (
	"fmt"
	"slices"
)

// GroupKey selects the event field a chart groups by.
type GroupKey string

const (
	ByItemType GroupKey = "itemType"
	ByLocation GroupKey = "location"
)

// ParseGroupKey accepts the field names and a few aliases used by the UI.
func ParseGroupKey(s string) (GroupKey, error) {
	switch s {
	case "", "itemType", "item_type", "type":
		return ByItemType, nil
	case "location", "cctv":
		return ByLocation, nil
	default:
		return "", fmt.Errorf("unknown group key %q", s)
	}
}

var (
	itemTypePalette = []string{"#7987FF", "#E697FF", "#FFA5CB", "#FF6B6B", "#4ECDC4"}
	locationPalette = []string{"#7987FF", "#FFA5CB"}
)

// Palette returns the ordered chart colors for a ratio chart grouped by key.
func Palette(key GroupKey) []string {
	if key == ByLocation {
		return slices.Clone(locationPalette)
	}
	return slices.Clone(itemTypePalette)
}

func colorAt(palette []string, i int) string {
	return palette[i%len(palette)]
}

var itemTypeNames = map[string]string{
	"airplane": "비행기",
	"vehicle":  "자동차",
	"bird":     "새",
	"mammal":   "포유류",
	"person":   "사람",
}

// ItemTypeLabel translates a detector class to its display name; unknown
// classes pass through unchanged.
func ItemTypeLabel(itemType string) string {
	if name, ok := itemTypeNames[itemType]; ok {
		return name
	}
	return itemType
}

func displayLabel(key GroupKey, value string) string {
	if key == ByItemType {
		return ItemTypeLabel(value)
	}
	return value
}

var weekdayNames = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}
