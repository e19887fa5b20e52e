package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/h1feed/hacktivity-relay/app/cursor"
	"github.com/h1feed/hacktivity-relay/app/feed"
	"github.com/h1feed/hacktivity-relay/app/notify"
	"github.com/h1feed/hacktivity-relay/app/source"
)

var _ TaskInterface = (*PollTask)(nil)

// PollTask runs one fetch, detect, notify, persist cycle against a
// disclosure source. The cursor is written only after notifications go
// out, so a crash between the two produces duplicates rather than gaps.
type PollTask struct {
	Task
	src          source.Source
	detector     *feed.Detector
	notifier     notify.Notifier
	store        cursor.Store
	preview      *feed.PreviewExtractor
	httpClient   *http.Client
	userAgent    string
	fetchTimeout time.Duration
	force        bool

	delivered int
	cursorNow string
}

func NewPollTask(src source.Source, detector *feed.Detector, notifier notify.Notifier, store cursor.Store, preview *feed.PreviewExtractor, httpClient *http.Client, userAgent string, fetchTimeout time.Duration, force bool) *PollTask {
	return &PollTask{
		Task:         NewTask(TaskTypePoll, src.Name()),
		src:          src,
		detector:     detector,
		notifier:     notifier,
		store:        store,
		preview:      preview,
		httpClient:   httpClient,
		userAgent:    userAgent,
		fetchTimeout: fetchTimeout,
		force:        force,
	}
}

// Delivered reports how many notifications went out during Execute.
func (t *PollTask) Delivered() int {
	return t.delivered
}

// Cursor reports the identifier persisted by Execute, or the one loaded
// at the start of the cycle when nothing was saved.
func (t *PollTask) Cursor() string {
	return t.cursorNow
}

func (t *PollTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	window, err := t.src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch disclosures: %w", err)
	}

	cur, err := t.store.Load()
	if err != nil {
		// An unreadable cursor degrades to a first run, which at worst
		// renotifies the current window
		slog.Warn("Cursor unreadable, treating as absent", "error", err)
		cur = ""
	}
	t.cursorNow = cur

	var fresh []feed.Item
	var next string
	if t.force {
		fresh, next = t.detector.Replay(window, cur)
		slog.Info("Force resend requested, replaying window", "items", len(fresh))
	} else {
		fresh, next = t.detector.Run(window, cur)
	}

	if cur == "" && !t.force {
		// First run: adopt the newest identifier without notifying, so a
		// fresh deployment does not flood the webhook with old reports
		if next != "" {
			if err := t.store.Save(next); err != nil {
				return fmt.Errorf("failed to initialize cursor: %w", err)
			}
			t.cursorNow = next
			slog.Info("First run detected, cursor initialized", "id", next)
		}

		slog.Info("Task completed",
			"type", t.GetType(),
			"source", t.Source,
			"duration", t.GetDuration(),
			"total", len(window),
			"new", 0)
		return nil
	}

	if len(fresh) == 0 {
		slog.Debug("No new disclosures", "source", t.Source, "cursor", cur)
		slog.Info("Task completed",
			"type", t.GetType(),
			"source", t.Source,
			"duration", t.GetDuration(),
			"total", len(window),
			"new", 0)
		return nil
	}

	// Once delivery starts the batch runs to completion, including the
	// cursor write. Shutdown is honored between cycles, not mid batch.
	batchCtx := context.WithoutCancel(ctx)

	sentCount := 0
	errorCount := 0
	prefixID := ""
	prefixIntact := true

	for _, item := range fresh {
		if t.preview != nil {
			item.PreviewText = t.fetchPreview(batchCtx, item)
		}

		if err := t.notifier.Send(batchCtx, item); err != nil {
			slog.Error("Failed to deliver notification", "id", item.ID, "title", item.Title, "error", err)
			errorCount++
			prefixIntact = false
			continue
		}

		slog.Info("Notification delivered", "id", item.ID, "title", item.Title)
		sentCount++
		if prefixIntact {
			prefixID = item.ID
		}
	}
	t.delivered = sentCount

	// Advance only past the unbroken prefix of delivered items; anything
	// at or behind the first failure is retried next cycle. A forced
	// replay revisits items the stored cursor already covers, so its
	// prefix is never written back: the cursor must not regress to a
	// replayed id.
	saveID := ""
	switch {
	case errorCount == 0:
		saveID = next
	case prefixID == "":
		slog.Warn("Nothing delivered, cursor not advanced", "cursor", cur)
	case t.force && cur != "":
		slog.Warn("Replay partially failed, cursor unchanged", "cursor", cur)
	default:
		saveID = prefixID
	}

	if saveID != "" {
		if err := t.store.Save(saveID); err != nil {
			slog.Error("Failed to save cursor, expect duplicate notifications", "id", saveID, "error", err)
		} else {
			t.cursorNow = saveID
			slog.Info("Cursor updated", "id", saveID)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.Source,
		"duration", t.GetDuration(),
		"total", len(window),
		"new", len(fresh),
		"delivered", sentCount,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("delivered %d of %d notifications", sentCount, len(fresh))
	}

	return nil
}

// fetchPreview pulls the report page and extracts a short text summary.
// Preview failures are logged and never block delivery.
func (t *PollTask) fetchPreview(ctx context.Context, item feed.Item) string {
	if item.URL == "" {
		return ""
	}

	data, err := t.fetchPage(ctx, item.URL)
	if err != nil {
		slog.Debug("Skipping preview", "id", item.ID, "url", item.URL, "error", err)
		return ""
	}

	text, err := t.preview.Run(data)
	if err != nil {
		slog.Debug("Skipping preview", "id", item.ID, "url", item.URL, "error", err)
		return ""
	}

	return text
}

func (t *PollTask) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
