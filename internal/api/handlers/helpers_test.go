package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/careeyes/fod/internal/eventsource"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/storage"
	"github.com/careeyes/fod/pkg/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var today = time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

func event(id, date, clock, itemType, location string, status models.Status) models.DetectionEvent {
	return models.DetectionEvent{
		ID:        id,
		Date:      date,
		Time:      clock,
		CCTVID:    "1",
		Location:  location,
		ItemType:  itemType,
		ItemCount: 1,
		ImagePath: "detections/" + id + ".jpg",
		Status:    status,
	}
}

func snapshotOf(events ...models.DetectionEvent) *eventsource.Snapshot {
	s := eventsource.NewSnapshot()
	s.Replace(events)
	return s
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// do runs one request through a fresh engine with a single route.
func do(t *testing.T, method, route, target string, body any, h gin.HandlerFunc, mw ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Handle(method, route, append(mw, h)...)
	return serve(r, jsonRequest(t, method, target, body))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type fakeEventStore struct {
	mu      sync.Mutex
	events  []models.DetectionEvent
	filter  storage.EventFilter
	updated map[int64]models.Status
	err     error
}

func (f *fakeEventStore) ListEvents(context.Context) ([]models.DetectionEvent, error) {
	return f.events, f.err
}

func (f *fakeEventStore) FilterEvents(_ context.Context, filter storage.EventFilter) ([]models.DetectionEvent, error) {
	f.filter = filter
	return f.events, f.err
}

func (f *fakeEventStore) GetEvent(_ context.Context, id int64) (*models.DetectionEvent, error) {
	for _, ev := range f.events {
		if ev.ID == itoa(id) {
			ev := ev
			if s, ok := f.updated[id]; ok {
				ev.Status = s
			}
			return &ev, nil
		}
	}
	return nil, f.err
}

func (f *fakeEventStore) UpdateEventStatus(_ context.Context, id int64, status models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, ev := range f.events {
		if ev.ID == itoa(id) {
			if f.updated == nil {
				f.updated = map[int64]models.Status{}
			}
			f.updated[id] = status
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeObjects map[string][]byte

func (f fakeObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

type fakeHub struct {
	events []dto.WSEvent
}

func (f *fakeHub) BroadcastEvent(event *dto.WSEvent) {
	f.events = append(f.events, *event)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
