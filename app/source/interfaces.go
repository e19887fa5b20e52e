package source

import (
	"context"

	"github.com/h1feed/hacktivity-relay/app/feed"
)

// Source fetches the current disclosure feed window, newest first.
// Implementations apply their own request timeout on top of the passed
// context and cap the result at the configured window size.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]feed.Item, error)
}
