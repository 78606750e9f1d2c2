package models

type StreamType string

const (
	StreamTypeYouTube StreamType = "youtube"
	StreamTypeRTSP    StreamType = "rtsp"
	StreamTypeHTTP    StreamType = "http"
)

type CCTV struct {
	ID         string     `json:"id" db:"cctv_id"`
	Location   string     `json:"location" db:"location"`
	Activate   bool       `json:"activate" db:"activate"`
	StreamURL  string     `json:"streamUrl" db:"stream_url"`
	StreamType StreamType `json:"streamType" db:"stream_type"`
}
