package webapi

import (
	"time"

	"food-analyzer-go/internal/domain/eventbus"
	domainimage "food-analyzer-go/internal/domain/image"
	"food-analyzer-go/internal/domain/journal"
	"food-analyzer-go/internal/platform/observability"
)

type ListResponse struct {
	Analyses []*journal.Entry `json:"analyses"`
	Count    int              `json:"count"`
}

type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Threads    int32   `json:"threads"`
}

type StatusResponse struct {
	Status        string                                 `json:"status"`
	Provider      string                                 `json:"provider"`
	Model         string                                 `json:"model"`
	Normalizer    string                                 `json:"normalizer"`
	StartedAt     time.Time                              `json:"started_at"`
	UptimeSeconds int64                                  `json:"uptime_seconds"`
	Image         domainimage.Metrics                    `json:"image"`
	Process       *ProcessStats                          `json:"process,omitempty"`
	Events        *eventbus.Stats                        `json:"events,omitempty"`
	Journal       *journal.Stats                         `json:"journal,omitempty"`
	Recorder      *journal.RecorderStats                 `json:"recorder,omitempty"`
	Metrics       map[string]observability.MetricSummary `json:"metrics,omitempty"`
}
