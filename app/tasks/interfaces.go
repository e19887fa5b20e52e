package tasks

import (
	"context"
	"time"
)

// TaskInterface defines a single unit of scheduled work.
type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSource() string
	Start()
	GetDuration() time.Duration
}
