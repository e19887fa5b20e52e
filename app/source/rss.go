package source

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/h1feed/hacktivity-relay/app/feed"
)

var _ Source = (*RSS)(nil)

// RSS adapts any RSS or Atom disclosure feed to the poll loop. Entries
// are keyed by GUID, falling back to the entry link when a feed omits
// GUIDs, and the feed title stands in for the program handle.
type RSS struct {
	httpClient *http.Client
	url        string
	windowSize int
	timeout    time.Duration
	userAgent  string
	parser     *gofeed.Parser
}

func NewRSS(httpClient *http.Client, url string, windowSize int, timeout time.Duration, userAgent string) *RSS {
	return &RSS{
		httpClient: httpClient,
		url:        url,
		windowSize: windowSize,
		timeout:    timeout,
		userAgent:  userAgent,
		parser:     gofeed.NewParser(),
	}
}

func (r *RSS) Name() string {
	return "rss"
}

func (r *RSS) Fetch(ctx context.Context) ([]feed.Item, error) {
	data, err := r.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := r.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := parsed.Items

	// Most feeds are already newest first, only reorder when every entry
	// carries a publication time
	if datesComplete(entries) {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].PublishedParsed.After(*entries[j].PublishedParsed)
		})
	}

	if len(entries) > r.windowSize {
		entries = entries[:r.windowSize]
	}

	items := make([]feed.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, feed.Item{
			ID:      cmp.Or(entry.GUID, entry.Link),
			Title:   cmp.Or(entry.Title, "Untitled"),
			URL:     entry.Link,
			Program: parsed.Title,
		})
	}

	return items, nil
}

func (r *RSS) fetchFeed(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func datesComplete(entries []*gofeed.Item) bool {
	if len(entries) == 0 {
		return false
	}
	for _, entry := range entries {
		if entry.PublishedParsed == nil {
			return false
		}
	}
	return true
}
