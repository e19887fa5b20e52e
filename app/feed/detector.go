package feed

import (
	"log/slog"
	"slices"
)

// Detector compares a newest-first feed window against the last seen item
// id and extracts the items that appeared since.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Run scans the window (newest first) until it hits the cursor id and
// returns the items in front of it, reordered oldest first so delivery
// follows publication order. The second return value is the cursor the
// caller should persist once the returned items have been delivered.
//
// An empty cursor marks the first run: nothing is returned and the newest
// id is adopted as the new cursor. A cursor that no longer appears in the
// window means more items arrived than the window holds, so the whole
// window is treated as new.
func (d *Detector) Run(window []Item, cursor string) ([]Item, string) {
	if len(window) == 0 {
		return nil, cursor
	}

	next := nextCursor(window, cursor)

	if cursor == "" {
		return nil, next
	}

	var fresh []Item
	for _, item := range window {
		if item.ID == "" {
			slog.Warn("Skipping feed item without id", "title", item.Title)
			continue
		}
		if item.ID == cursor {
			break
		}
		fresh = append(fresh, item)
	}

	slices.Reverse(fresh)

	return fresh, next
}

// Replay returns every well-formed item in the window oldest first,
// ignoring the cursor position. Used for one-off resends.
func (d *Detector) Replay(window []Item, cursor string) ([]Item, string) {
	var all []Item
	for _, item := range window {
		if item.ID == "" {
			slog.Warn("Skipping feed item without id", "title", item.Title)
			continue
		}
		all = append(all, item)
	}

	slices.Reverse(all)

	return all, nextCursor(window, cursor)
}

// nextCursor picks the newest id present in the window, falling back to
// the current cursor when no item carries one.
func nextCursor(window []Item, cursor string) string {
	for _, item := range window {
		if item.ID != "" {
			return item.ID
		}
	}
	return cursor
}
