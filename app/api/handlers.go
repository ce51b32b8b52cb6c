package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pulsewire/pulsewire/app/cfg"
	"github.com/pulsewire/pulsewire/app/database"
	"github.com/pulsewire/pulsewire/app/metrics"
	"github.com/pulsewire/pulsewire/app/scheduler"
)

type Handler struct {
	scheduler *scheduler.Scheduler
	repo      database.RecordRepository
	metrics   *metrics.Metrics
}

func NewHandler(sched *scheduler.Scheduler, repo database.RecordRepository, m *metrics.Metrics) *Handler {
	return &Handler{
		scheduler: sched,
		repo:      repo,
		metrics:   m,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": cfg.Get().Version,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	counts, err := h.repo.CountBySource(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_by_source", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	entries := h.scheduler.Snapshot()
	sources := make([]SourceStats, 0, len(entries))
	for _, entry := range entries {
		sources = append(sources, SourceStats{
			EntryStatus: entry,
			RecordCount: counts[entry.Source],
		})
	}

	c.JSON(http.StatusOK, StatsResponse{Sources: sources})
}

func (h *Handler) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.scheduler.Snapshot()})
}

func (h *Handler) GetRecentRecords(c *gin.Context) {
	name := c.Param("name")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = parsed
	}

	records, err := h.repo.RecentRecords(c.Request.Context(), name, limit)
	if err != nil {
		slog.Error("Database error", "operation", "recent_records", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": name, "records": records})
}

// RunNow triggers an immediate collection for one source, bypassing the
// next-tick wait. The no-overlap rule still applies.
func (h *Handler) RunNow(c *gin.Context) {
	name := c.Param("name")

	started, err := h.scheduler.RunNow(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if !started {
		c.JSON(http.StatusConflict, gin.H{
			"source":  name,
			"message": "run not started: source is disabled or already running",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"source": name, "message": "run started"})
}

func (h *Handler) EnableSource(c *gin.Context) {
	h.setEnabled(c, true)
}

func (h *Handler) DisableSource(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *Handler) setEnabled(c *gin.Context, enabled bool) {
	name := c.Param("name")

	if err := h.scheduler.SetEnabled(name, enabled); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": name, "enabled": enabled})
}
