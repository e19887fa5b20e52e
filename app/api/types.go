package api

import (
	"time"

	"github.com/h1feed/hacktivity-relay/app/tasks"
)

type SchedulerInterface interface {
	Snapshot() tasks.Snapshot
}

var _ SchedulerInterface = (*tasks.Scheduler)(nil)

type Handler struct {
	scheduler SchedulerInterface
	version   string
	startedAt time.Time
}
