package eventsource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/careeyes/fod/internal/observability"
)

// Poller refreshes a Snapshot from a Source on a fixed schedule. A failed
// poll keeps the previous snapshot.
type Poller struct {
	source   Source
	snapshot *Snapshot
	interval time.Duration

	cron    *cron.Cron
	trigger chan struct{}
	mu      sync.Mutex // serializes polls
	done    chan struct{}
}

func NewPoller(source Source, snapshot *Snapshot, interval time.Duration) *Poller {
	return &Poller{
		source:   source,
		snapshot: snapshot,
		interval: interval,
		cron:     cron.New(),
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start runs one poll immediately, then schedules the rest. It returns once
// the first poll has finished, whatever its outcome.
func (p *Poller) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc("@every "+p.interval.String(), func() {
		_ = p.Poll(ctx)
	}); err != nil {
		return fmt.Errorf("schedule event poll: %w", err)
	}

	_ = p.Poll(ctx)
	p.cron.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.done:
				return
			case <-p.trigger:
				_ = p.Poll(ctx)
			}
		}
	}()

	slog.Info("event poller started", "interval", p.interval.String())
	return nil
}

// Poll fetches once and swaps the snapshot on success.
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	events, err := p.source.Fetch(ctx)
	if err != nil {
		observability.EventPolls.WithLabelValues("error").Inc()
		slog.Warn("event poll failed, keeping previous snapshot", "error", err)
		return err
	}
	p.snapshot.Replace(events)
	observability.EventPolls.WithLabelValues("ok").Inc()
	slog.Debug("event snapshot refreshed", "events", len(events))
	return nil
}

// Trigger requests an immediate refresh. Requests made while one is pending
// coalesce.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the schedule and waits for a running poll to finish.
func (p *Poller) Stop() {
	close(p.done)
	<-p.cron.Stop().Done()
}
