package tasks

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/h1feed/hacktivity-relay/app/cursor"
	"github.com/h1feed/hacktivity-relay/app/feed"
	"github.com/h1feed/hacktivity-relay/app/notify"
	"github.com/h1feed/hacktivity-relay/app/source"
)

type State string

const (
	StateStarting   State = "starting"
	StateRunning    State = "running"
	StateSleeping   State = "sleeping"
	StateTerminated State = "terminated"
)

// Snapshot is a point in time view of the poll loop, served by the API.
type Snapshot struct {
	State     State      `json:"state"`
	Source    string     `json:"source"`
	Cycles    int        `json:"cycles"`
	Delivered int        `json:"delivered"`
	Cursor    string     `json:"cursor,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// Scheduler drives poll cycles strictly one after another: a cycle runs
// to completion, the loop sleeps for the configured interval, and only
// then does the next cycle start. Cancellation is honored before a
// cycle and during the sleep, never in the middle of a delivery batch.
type Scheduler struct {
	src          source.Source
	detector     *feed.Detector
	notifier     notify.Notifier
	store        cursor.Store
	preview      *feed.PreviewExtractor
	httpClient   *http.Client
	userAgent    string
	fetchTimeout time.Duration
	interval     time.Duration
	once         bool

	mu        sync.Mutex
	state     State
	force     bool
	cycles    int
	delivered int
	cursorNow string
	lastError string
	lastRunAt *time.Time
	nextRunAt *time.Time
}

func NewScheduler(src source.Source, detector *feed.Detector, notifier notify.Notifier, store cursor.Store, preview *feed.PreviewExtractor, httpClient *http.Client, userAgent string, fetchTimeout time.Duration, interval time.Duration, once bool, force bool) *Scheduler {
	return &Scheduler{
		src:          src,
		detector:     detector,
		notifier:     notifier,
		store:        store,
		preview:      preview,
		httpClient:   httpClient,
		userAgent:    userAgent,
		fetchTimeout: fetchTimeout,
		interval:     interval,
		once:         once,
		state:        StateStarting,
		force:        force,
	}
}

// Run blocks until the context is cancelled or, in single run mode,
// until the first cycle completes.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("Scheduler started",
		"source", s.src.Name(),
		"interval", s.interval,
		"once", s.once)

	for {
		select {
		case <-ctx.Done():
			s.terminate()
			return
		default:
		}

		s.runCycle(ctx)

		if s.once {
			s.terminate()
			return
		}

		if !s.sleep(ctx) {
			s.terminate()
			return
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.mu.Lock()
	s.state = StateRunning
	s.nextRunAt = nil
	force := s.force
	// Force resend applies to a single cycle, subsequent ones go back to
	// regular change detection
	s.force = false
	s.mu.Unlock()

	task := NewPollTask(s.src, s.detector, s.notifier, s.store, s.preview, s.httpClient, s.userAgent, s.fetchTimeout, force)
	task.Start()

	err := task.Execute(ctx)

	now := time.Now().UTC()
	s.mu.Lock()
	s.cycles++
	s.delivered += task.Delivered()
	s.cursorNow = task.Cursor()
	s.lastRunAt = &now
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Poll cycle failed", "id", task.GetID(), "source", task.GetSource(), "error", err)
	}
}

// sleep waits out the poll interval. Returns false when the context is
// cancelled before the interval elapses.
func (s *Scheduler) sleep(ctx context.Context) bool {
	next := time.Now().UTC().Add(s.interval)
	s.mu.Lock()
	s.state = StateSleeping
	s.nextRunAt = &next
	s.mu.Unlock()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) terminate() {
	s.mu.Lock()
	s.state = StateTerminated
	s.nextRunAt = nil
	s.mu.Unlock()

	slog.Info("Scheduler stopped", "source", s.src.Name())
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:     s.state,
		Source:    s.src.Name(),
		Cycles:    s.cycles,
		Delivered: s.delivered,
		Cursor:    s.cursorNow,
		LastError: s.lastError,
		LastRunAt: s.lastRunAt,
		NextRunAt: s.nextRunAt,
	}
}
