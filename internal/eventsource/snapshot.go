package eventsource

import (
	"sync/atomic"
	"time"

	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/observability"
)

type snapshotState struct {
	events    []models.DetectionEvent
	updatedAt time.Time
}

// Snapshot is the dashboard's current working set of events. Readers never
// lock; every change publishes a fresh slice so a slice handed out earlier is
// never modified.
type Snapshot struct {
	state atomic.Pointer[snapshotState]
	now   func() time.Time
}

func NewSnapshot() *Snapshot {
	s := &Snapshot{now: time.Now}
	s.state.Store(&snapshotState{events: []models.DetectionEvent{}})
	return s
}

// Events returns the current events. The slice is shared and must be treated
// as read-only.
func (s *Snapshot) Events() []models.DetectionEvent {
	ev := s.state.Load().events
	return ev[:len(ev):len(ev)]
}

// UpdatedAt is the time of the last Replace or UpdateStatus.
func (s *Snapshot) UpdatedAt() time.Time {
	return s.state.Load().updatedAt
}

// Replace swaps in a new working set wholesale.
func (s *Snapshot) Replace(events []models.DetectionEvent) {
	cp := make([]models.DetectionEvent, len(events))
	copy(cp, events)
	s.state.Store(&snapshotState{events: cp, updatedAt: s.now()})
	observability.SnapshotSize.Set(float64(len(cp)))
}

// Get looks up an event by id.
func (s *Snapshot) Get(id string) (models.DetectionEvent, bool) {
	for _, ev := range s.state.Load().events {
		if ev.ID == id {
			return ev, true
		}
	}
	return models.DetectionEvent{}, false
}

// UpdateStatus publishes a copy of the working set with one event's status
// changed. It reports false when the id is not in the snapshot.
func (s *Snapshot) UpdateStatus(id string, status models.Status) (models.DetectionEvent, bool) {
	return s.setStatus(id, status, func(models.Status) bool { return true })
}

// RevertStatus restores prev on an event whose status is still failed. A
// status written since then is left alone.
func (s *Snapshot) RevertStatus(id string, failed, prev models.Status) bool {
	_, ok := s.setStatus(id, prev, func(cur models.Status) bool { return cur == failed })
	return ok
}

func (s *Snapshot) setStatus(id string, status models.Status, when func(models.Status) bool) (models.DetectionEvent, bool) {
	for {
		cur := s.state.Load()
		idx := -1
		for i, ev := range cur.events {
			if ev.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 || !when(cur.events[idx].Status) {
			return models.DetectionEvent{}, false
		}

		next := make([]models.DetectionEvent, len(cur.events))
		copy(next, cur.events)
		next[idx] = next[idx].WithStatus(status)

		if s.state.CompareAndSwap(cur, &snapshotState{events: next, updatedAt: s.now()}) {
			return next[idx], true
		}
	}
}

// Add prepends a newly stored event unless one with the same id is present.
func (s *Snapshot) Add(ev models.DetectionEvent) {
	for {
		cur := s.state.Load()
		for _, e := range cur.events {
			if e.ID == ev.ID {
				return
			}
		}
		next := make([]models.DetectionEvent, 0, len(cur.events)+1)
		next = append(next, ev)
		next = append(next, cur.events...)
		if s.state.CompareAndSwap(cur, &snapshotState{events: next, updatedAt: s.now()}) {
			observability.SnapshotSize.Set(float64(len(next)))
			return
		}
	}
}
