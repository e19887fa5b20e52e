package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/h1feed/hacktivity-relay/app/cfg"
)

func NewHandler(scheduler SchedulerInterface) *Handler {
	return &Handler{
		scheduler: scheduler,
		version:   cfg.Get().Version,
		startedAt: time.Now().UTC(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"scheduler": h.scheduler.Snapshot().State,
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Snapshot())
}
