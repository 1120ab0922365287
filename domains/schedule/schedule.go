package schedule

import (
	"context"
	"time"

	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
)

type IScheduleUsecase interface {
	Create(ctx context.Context, request CreateScheduleRequest) (scheduleDomain.Item, error)
	List(ctx context.Context, request ListSchedulesRequest) ([]scheduleDomain.Item, error)
	Get(ctx context.Context, scheduleID string) (scheduleDomain.Item, error)
	Cancel(ctx context.Context, scheduleID string) (scheduleDomain.Item, error)
	Retry(ctx context.Context, scheduleID string) (scheduleDomain.Item, error)
	Delete(ctx context.Context, scheduleID string) error

	// DueItems exposes the due-item selector to external drivers.
	DueItems(ctx context.Context) ([]scheduleDomain.Item, error)

	// RunDue claims and executes every currently due item. The REST
	// layer uses it for manual ticks; the background runner drives the
	// same path on its own cron.
	RunDue(ctx context.Context) (RunReport, error)
}

type CreateScheduleRequest struct {
	BlogPostID    string `json:"blog_post_id,omitempty"`
	SocialPostID  string `json:"social_post_id,omitempty"`
	ScheduledTime string `json:"scheduled_time"` // RFC 3339
	Frequency     string `json:"frequency,omitempty"`
	MaxExecutions *int   `json:"max_executions,omitempty"`
	MaxRetries    int    `json:"max_retries,omitempty"`
}

type ListSchedulesRequest struct {
	Status string `query:"status"`
	Kind   string `query:"kind"`
}

// RunReport summarizes one due-item sweep.
type RunReport struct {
	Due       int       `json:"due"`
	Executed  int       `json:"executed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	StartedAt time.Time `json:"started_at"`
}
