package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/h1feed/hacktivity-relay/app/feed"
)

func newTestScheduler(src *mockSource, notifier *mockNotifier, store *mockStore, interval time.Duration, once bool, force bool) *Scheduler {
	return NewScheduler(src, feed.NewDetector(), notifier, store, nil, &http.Client{}, "test-agent", 5*time.Second, interval, once, force)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Expected condition to be met before timeout")
}

func TestSchedulerInitialSnapshot(t *testing.T) {
	sched := newTestScheduler(&mockSource{}, &mockNotifier{}, &mockStore{}, time.Hour, false, false)

	snap := sched.Snapshot()
	if snap.State != StateStarting {
		t.Errorf("Expected state '%s', got '%s'", StateStarting, snap.State)
	}
	if snap.Cycles != 0 {
		t.Errorf("Expected 0 cycles, got %d", snap.Cycles)
	}
	if snap.Source != "mock" {
		t.Errorf("Expected source 'mock', got '%s'", snap.Source)
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	src := &mockSource{items: reportWindow("105", "104")}
	notifier := &mockNotifier{}
	store := &mockStore{value: "104"}

	sched := newTestScheduler(src, notifier, store, time.Hour, true, false)
	sched.Run(context.Background())

	if src.calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", src.calls)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifier.sent))
	}

	snap := sched.Snapshot()
	if snap.State != StateTerminated {
		t.Errorf("Expected state '%s', got '%s'", StateTerminated, snap.State)
	}
	if snap.Cycles != 1 {
		t.Errorf("Expected 1 cycle, got %d", snap.Cycles)
	}
	if snap.Delivered != 1 {
		t.Errorf("Expected 1 delivered, got %d", snap.Delivered)
	}
	if snap.Cursor != "105" {
		t.Errorf("Expected cursor '105', got '%s'", snap.Cursor)
	}
}

func TestSchedulerCancelledDuringSleepStopsPromptly(t *testing.T) {
	src := &mockSource{items: reportWindow("105")}
	store := &mockStore{value: "105"}

	sched := newTestScheduler(src, &mockNotifier{}, store, time.Hour, false, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return sched.Snapshot().State == StateSleeping
	})

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Run to return promptly after cancellation")
	}

	snap := sched.Snapshot()
	if snap.State != StateTerminated {
		t.Errorf("Expected state '%s', got '%s'", StateTerminated, snap.State)
	}
	if snap.Cycles != 1 {
		t.Errorf("Expected 1 cycle, got %d", snap.Cycles)
	}
}

func TestSchedulerSleepingSnapshotReportsNextRun(t *testing.T) {
	src := &mockSource{items: reportWindow("105")}
	store := &mockStore{value: "105"}

	sched := newTestScheduler(src, &mockNotifier{}, store, time.Hour, false, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return sched.Snapshot().State == StateSleeping
	})

	snap := sched.Snapshot()
	if snap.NextRunAt == nil {
		t.Fatal("Expected next run time while sleeping")
	}
	if !snap.NextRunAt.After(time.Now().UTC().Add(30 * time.Minute)) {
		t.Errorf("Expected next run about an hour away, got %v", snap.NextRunAt)
	}
	if snap.LastRunAt == nil {
		t.Error("Expected last run time after a completed cycle")
	}

	cancel()
	<-done
}

func TestSchedulerForceConsumedOnce(t *testing.T) {
	src := &mockSource{items: reportWindow("105", "104")}
	notifier := &mockNotifier{}
	store := &mockStore{value: "105"}

	sched := newTestScheduler(src, notifier, store, 10*time.Millisecond, false, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return sched.Snapshot().Cycles >= 3
	})

	cancel()
	<-done

	// The first cycle replays both items, later cycles see no change
	if len(notifier.sent) != 2 {
		t.Errorf("Expected 2 notifications from the forced cycle only, got %d", len(notifier.sent))
	}
}

func TestSchedulerKeepsRunningAfterCycleError(t *testing.T) {
	src := &mockSource{err: errors.New("connection refused")}

	sched := newTestScheduler(src, &mockNotifier{}, &mockStore{}, 10*time.Millisecond, false, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return sched.Snapshot().Cycles >= 2
	})

	cancel()
	<-done

	snap := sched.Snapshot()
	if snap.LastError == "" {
		t.Error("Expected last error to be recorded")
	}
	if !strings.Contains(snap.LastError, "failed to fetch disclosures") {
		t.Errorf("Expected fetch error in snapshot, got '%s'", snap.LastError)
	}
}
