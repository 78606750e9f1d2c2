package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the operator triage state of a detection event.
type Status int

const (
	StatusUnknown    Status = -1
	StatusUnhandled  Status = 0
	StatusInProgress Status = 1
	StatusResolved   Status = 2
)

var statusNames = map[Status]string{
	StatusUnhandled:  "UNHANDLED",
	StatusInProgress: "IN_PROGRESS",
	StatusResolved:   "RESOLVED",
	StatusUnknown:    "UNKNOWN",
}

var statusLabels = map[Status]string{
	StatusUnhandled:  "미처리",
	StatusInProgress: "처리중",
	StatusResolved:   "처리완료",
	StatusUnknown:    "알수없음",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// Label returns the operator-facing display name.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusUnknown]
}

// Valid reports whether s is one of the three triage states.
func (s Status) Valid() bool {
	return s == StatusUnhandled || s == StatusInProgress || s == StatusResolved
}

// Code is the small-integer wire encoding. UNKNOWN has no code and returns -1.
func (s Status) Code() int {
	if !s.Valid() {
		return -1
	}
	return int(s)
}

// StatusFromCode maps the numeric encoding: 0 unhandled, 1 in progress, 2 resolved.
func StatusFromCode(code int) Status {
	switch code {
	case 0:
		return StatusUnhandled
	case 1:
		return StatusInProgress
	case 2:
		return StatusResolved
	default:
		return StatusUnknown
	}
}

// ParseStatus maps every known text representation (canonical name, Korean
// label, numeric string) to a Status.
func ParseStatus(text string) Status {
	t := strings.TrimSpace(text)
	if n, err := strconv.Atoi(t); err == nil {
		return StatusFromCode(n)
	}
	upper := strings.ToUpper(strings.ReplaceAll(t, "-", "_"))
	for s, name := range statusNames {
		if upper == name && s.Valid() {
			return s
		}
	}
	for s, label := range statusLabels {
		if t == label && s.Valid() {
			return s
		}
	}
	switch upper {
	case "PENDING", "NEW", "OPEN":
		return StatusUnhandled
	case "INPROGRESS", "PROCESSING":
		return StatusInProgress
	case "DONE", "CLOSED", "COMPLETE", "COMPLETED":
		return StatusResolved
	}
	return StatusUnknown
}

// DetectionEvent is one detected anomaly as seen by the dashboard.
// Date and Time are kept as received; parsing happens where they are read.
type DetectionEvent struct {
	ID        string         `json:"eventId"`
	Date      string         `json:"eventDate"`
	Time      string         `json:"eventTime"`
	CCTVID    string         `json:"cctvId"`
	Location  string         `json:"location"`
	ItemType  string         `json:"itemType"`
	ItemCount int            `json:"itemCount"`
	ImagePath string         `json:"imgPath"`
	Status    Status         `json:"-"`
	Objects   map[string]int `json:"objects,omitempty"`
}

// WithStatus returns a copy of the event carrying the given status.
func (e DetectionEvent) WithStatus(s Status) DetectionEvent {
	e.Status = s
	if e.Objects != nil {
		objects := make(map[string]int, len(e.Objects))
		for k, v := range e.Objects {
			objects[k] = v
		}
		e.Objects = objects
	}
	return e
}

// Detection is what the detector reports for one analysed frame.
type Detection struct {
	CCTVID   string         `json:"cctvId"`
	Date     string         `json:"eventDate"`
	Time     string         `json:"eventTime"`
	ImgPath  string         `json:"imgPath"`
	Location string         `json:"location,omitempty"`
	Objects  map[string]int `json:"objects"`
}

// DetectItem is one item class with its count inside a stored event.
type DetectItem struct {
	ItemID    int64  `json:"itemId" db:"item_id"`
	EventID   int64  `json:"eventId" db:"event_id"`
	ItemType  string `json:"itemType" db:"item_type"`
	ItemCount int    `json:"itemCount" db:"item_count"`
}

// FrameTask is the message published to NATS for the detector.
type FrameTask struct {
	CCTVID    string    `json:"cctv_id"`
	FrameID   uuid.UUID `json:"frame_id"`
	Timestamp time.Time `json:"timestamp"`
	FrameRef  string    `json:"frame_ref"` // MinIO object key
	Width     int       `json:"width"`
}
