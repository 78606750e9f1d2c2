package dto

import (
	"fmt"
	"strconv"

	"github.com/careeyes/fod/internal/models"
)

type CCTVResponse struct {
	ID          string `json:"id"`
	Location    string `json:"location"`
	Activate    bool   `json:"activate"`
	StreamURL   string `json:"streamUrl"`
	StreamType  string `json:"streamType"`
	SnapshotURL string `json:"snapshotUrl"`
}

func NewCCTVResponse(c models.CCTV) CCTVResponse {
	return CCTVResponse{
		ID:          c.ID,
		Location:    c.Location,
		Activate:    c.Activate,
		StreamURL:   c.StreamURL,
		StreamType:  string(c.StreamType),
		SnapshotURL: "/api/cctv/" + c.ID + "/snapshot",
	}
}

// DetectRequest is the detector's report for one analysed frame. The
// detector sends cctvId as a number; strings are accepted as well.
type DetectRequest struct {
	CCTVID    any            `json:"cctvId"`
	EventDate string         `json:"eventDate"`
	EventTime string         `json:"eventTime"`
	ImgPath   string         `json:"imgPath"`
	Location  string         `json:"location"`
	Objects   map[string]int `json:"objects"`
}

// CCTV returns the camera id as a string.
func (r DetectRequest) CCTV() string {
	switch v := r.CCTVID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
