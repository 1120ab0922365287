package health

import (
	"context"
	"time"
)

type Status string

const (
	StatusOk       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusError    Status = "error"
)

// Component is one probed subsystem in the health report.
type Component struct {
	Status  Status   `json:"status"`
	Message string   `json:"message,omitempty"`
	Models  []string `json:"models,omitempty"`
}

// Report is the aggregate answer of GET /api/health: ok only when every
// probed component is ok, degraded otherwise.
type Report struct {
	Status     Status               `json:"status"`
	Version    string               `json:"version"`
	Components map[string]Component `json:"components"`
	CheckedAt  time.Time            `json:"checked_at"`
}

type IHealthUsecase interface {
	Check(ctx context.Context) Report
}
