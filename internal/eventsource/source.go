// Package eventsource loads detection events from their system of record
// into the dashboard snapshot.
package eventsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/storage"
)

// ErrEventNotFound is returned by StatusUpdater when the system of record has
// no event with the given id.
var ErrEventNotFound = errors.New("event not found")

// Source fetches the complete current event list.
type Source interface {
	Fetch(ctx context.Context) ([]models.DetectionEvent, error)
}

// StatusUpdater sends an operator's triage decision to the system of record.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status models.Status) error
}

// EventGetter loads a single event from the system of record.
type EventGetter interface {
	GetEvent(ctx context.Context, id string) (*models.DetectionEvent, error)
}

const maxPayloadBytes = 32 << 20

// HTTPSource polls a remote event list endpoint. Consecutive failures open a
// circuit breaker so a dead backend is not hammered every poll.
type HTTPSource struct {
	url       string
	statusURL string
	client    *http.Client
	breaker *gobreaker.CircuitBreaker[[]models.DetectionEvent]
}

func NewHTTPSource(cfg config.EventSourceConfig) *HTTPSource {
	failures := cfg.BreakerFailures
	settings := gobreaker.Settings{
		Name:        "event-source",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("event source circuit state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	statusURL := cfg.StatusURL
	if statusURL == "" {
		statusURL = defaultStatusURL(cfg.URL)
	}
	return &HTTPSource{
		url:       cfg.URL,
		statusURL: statusURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker:   gobreaker.NewCircuitBreaker[[]models.DetectionEvent](settings),
	}
}

// defaultStatusURL points at the status route on the same host as the event
// list.
func defaultStatusURL(listURL string) string {
	u, err := url.Parse(listURL)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Path = "/api/event/{id}/status"
	u.RawQuery = ""
	return u.String()
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.DetectionEvent, error) {
	events, err := s.breaker.Execute(func() ([]models.DetectionEvent, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch events from %s: %w", s.url, err)
	}
	return events, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]models.DetectionEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return Normalize(body)
}

// UpdateStatus PATCHes the new status code to the upstream event service.
func (s *HTTPSource) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if s.statusURL == "" {
		return fmt.Errorf("update status of event %s: no status url configured", id)
	}
	body, err := json.Marshal(map[string]int{"status": status.Code()})
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	target := strings.ReplaceAll(s.statusURL, "{id}", url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("update status of event %s: %w", id, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrEventNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("update status of event %s: unexpected status %d", id, resp.StatusCode)
	}
	return nil
}

// State exposes the breaker state for readiness reporting.
func (s *HTTPSource) State() string {
	return s.breaker.State().String()
}

// EventStore is the storage capability StoreSource needs.
type EventStore interface {
	ListEvents(ctx context.Context) ([]models.DetectionEvent, error)
	GetEvent(ctx context.Context, id int64) (*models.DetectionEvent, error)
	UpdateEventStatus(ctx context.Context, id int64, status models.Status) error
}

// StoreSource reads events straight from the database.
type StoreSource struct {
	store   EventStore
	timeout time.Duration
}

func NewStoreSource(store EventStore, timeout time.Duration) *StoreSource {
	return &StoreSource{store: store, timeout: timeout}
}

func (s *StoreSource) Fetch(ctx context.Context) ([]models.DetectionEvent, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.store.ListEvents(ctx)
}

// UpdateStatus writes the status to the events table. Ids the table cannot
// hold are reported as not found.
func (s *StoreSource) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrEventNotFound
	}
	if err := s.store.UpdateEventStatus(ctx, n, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

func (s *StoreSource) GetEvent(ctx context.Context, id string) (*models.DetectionEvent, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, nil
	}
	return s.store.GetEvent(ctx, n)
}
