package eventsource

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/careeyes/fod/internal/analytics"
	"github.com/careeyes/fod/internal/models"
)

// Field name variants seen across backend versions, in lookup order.
var (
	idKeys       = []string{"eventId", "EVENT_ID", "event_id", "id"}
	dateKeys     = []string{"eventDate", "EVENT_DATE", "event_date", "date"}
	timeKeys     = []string{"eventTime", "EVENT_TIME", "event_time", "time"}
	cctvKeys     = []string{"cctvId", "CCTV_ID", "cctv_id"}
	locationKeys = []string{"location", "LOCATION"}
	itemTypeKeys = []string{"itemType", "ITEM_TYPE", "item_type"}
	countKeys    = []string{"itemCount", "ITEM_COUNT", "item_count"}
	imageKeys    = []string{"imgPath", "IMG_PATH", "img_path", "imagePath"}
	statusKeys   = []string{"manage", "MANAGE", "status", "STATUS"}
	itemsKeys    = []string{"ITEMS", "items"}
)

// Normalize decodes an event list payload, either a bare JSON array or an
// object wrapping it in "data", into canonical events. Records without an id
// are dropped with a warning.
func Normalize(payload []byte) ([]models.DetectionEvent, error) {
	records, err := decodeRecords(payload)
	if err != nil {
		return nil, err
	}

	events := make([]models.DetectionEvent, 0, len(records))
	for i, rec := range records {
		ev, ok := normalizeRecord(rec)
		if !ok {
			slog.Warn("event record dropped: missing id", "index", i)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func decodeRecords(payload []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode events: empty payload")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var records []map[string]any
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		return records, nil
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("decode events: object payload without data array")
	}
	return envelope.Data, nil
}

func normalizeRecord(rec map[string]any) (models.DetectionEvent, bool) {
	id := stringField(rec, idKeys)
	if id == "" {
		return models.DetectionEvent{}, false
	}

	ev := models.DetectionEvent{
		ID:        id,
		Date:      stringField(rec, dateKeys),
		Time:      stringField(rec, timeKeys),
		CCTVID:    stringField(rec, cctvKeys),
		Location:  stringField(rec, locationKeys),
		ItemType:  stringField(rec, itemTypeKeys),
		ItemCount: intField(rec, countKeys),
		ImagePath: stringField(rec, imageKeys),
		Status:    models.StatusUnhandled,
		Objects:   objectsField(rec),
	}

	if raw, ok := lookup(rec, statusKeys); ok {
		ev.Status = analytics.ClassifyStatus(raw)
	}

	// Without a flat item type, the primary item is the most numerous object.
	if ev.ItemType == "" && len(ev.Objects) > 0 {
		ev.ItemType, ev.ItemCount = primaryItem(ev.Objects)
	}
	if ev.Objects == nil && ev.ItemType != "" {
		ev.Objects = map[string]int{ev.ItemType: ev.ItemCount}
	}
	return ev, true
}

func lookup(rec map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(rec map[string]any, keys []string) string {
	v, ok := lookup(rec, keys)
	if !ok {
		return ""
	}
	return toString(v)
}

func intField(rec map[string]any, keys []string) int {
	v, ok := lookup(rec, keys)
	if !ok {
		return 0
	}
	n, _ := toInt(v)
	return n
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// objectsField reads either an "objects" map or an ITEMS list of
// {ITEM_TYPE, ITEM_COUNT} records.
func objectsField(rec map[string]any) map[string]int {
	if raw, ok := rec["objects"].(map[string]any); ok {
		objects := make(map[string]int, len(raw))
		for k, v := range raw {
			if n, ok := toInt(v); ok {
				objects[k] = n
			}
		}
		return objects
	}

	v, ok := lookup(rec, itemsKeys)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	objects := make(map[string]int, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		t := stringField(m, itemTypeKeys)
		if t == "" {
			continue
		}
		objects[t] += intField(m, countKeys)
	}
	if len(objects) == 0 {
		return nil
	}
	return objects
}

// primaryItem picks the highest count, breaking ties by name for determinism.
func primaryItem(objects map[string]int) (string, int) {
	var (
		best  string
		count = -1
	)
	for t, n := range objects {
		if n > count || (n == count && t < best) {
			best, count = t, n
		}
	}
	return best, count
}
