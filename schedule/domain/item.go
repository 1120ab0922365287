package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
)

// Frequency is how often a schedule repeats.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency converts an external string (API payload, DB column)
// into a Frequency. Core logic never calls this; it works with the typed
// values only.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return Frequency(s), nil
	default:
		return "", pkgError.ValidationError(fmt.Sprintf("unsupported frequency: %s", s))
	}
}

// Status is the lifecycle state of a scheduled item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus converts an external string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(s), nil
	default:
		return "", pkgError.ValidationError(fmt.Sprintf("invalid status: %s", s))
	}
}

// ErrorEntry is one line of an item's append-only failure log.
type ErrorEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ErrTargetNotFound is the lookup signal a Resolver returns when the
// referenced post no longer exists. Execute routes it into the failure
// path instead of propagating it.
var ErrTargetNotFound = errors.New("schedule target not found")

// Publishable is the one capability the scheduler needs from a post:
// mark it as live. Publishing must be safe to call at most once per
// successful execution.
type Publishable interface {
	Publish(ctx context.Context) error
}

// Resolver looks up the publishable behind a target reference.
type Resolver interface {
	Resolve(ctx context.Context, target Target) (Publishable, error)
}

// Item is one schedule for exactly one blog or social post, together
// with its execution history. All lifecycle transitions go through the
// methods below; callers persist the mutated item afterwards, which
// keeps transaction boundaries out of the state machine.
type Item struct {
	ID             string       `json:"id"`
	Target         Target       `json:"target"`
	ScheduledTime  time.Time    `json:"scheduled_time"`
	Frequency      Frequency    `json:"frequency"`
	Status         Status       `json:"status"`
	NextExecution  *time.Time   `json:"next_execution,omitempty"`
	LastExecutedAt *time.Time   `json:"last_executed_at,omitempty"`
	ExecutionCount int          `json:"execution_count"`
	MaxExecutions  *int         `json:"max_executions,omitempty"`
	RetryCount     int          `json:"retry_count"`
	MaxRetries     int          `json:"max_retries"`
	LastError      *string      `json:"last_error,omitempty"`
	ErrorLog       []ErrorEntry `json:"error_log,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Options carries the optional knobs accepted at creation time.
type Options struct {
	ID            string
	Frequency     Frequency
	MaxExecutions *int
	MaxRetries    int
}

const defaultMaxRetries = 3

// NewItem validates and builds a pending schedule anchored at
// scheduledAt. The anchor must be strictly in the future relative to the
// injected now; the check is not repeated on later mutations.
func NewItem(target Target, scheduledAt time.Time, now time.Time, opts Options) (*Item, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !scheduledAt.After(now) {
		return nil, pkgError.ValidationError("scheduled time must be in the future")
	}

	frequency := opts.Frequency
	if frequency == "" {
		frequency = FrequencyOnce
	} else if _, err := ParseFrequency(string(frequency)); err != nil {
		return nil, err
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	next := scheduledAt
	return &Item{
		ID:            id,
		Target:        target,
		ScheduledTime: scheduledAt,
		Frequency:     frequency,
		Status:        StatusPending,
		NextExecution: &next,
		MaxExecutions: opts.MaxExecutions,
		MaxRetries:    maxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (i *Item) IsRecurring() bool {
	return i.Frequency != FrequencyOnce
}

// CanRetry reports whether an explicit retry is still allowed: the item
// is not terminal-by-choice and has retry budget left. Note the budget
// is a lifetime one; successful executions do not reset RetryCount.
func (i *Item) CanRetry() bool {
	return i.Status != StatusCompleted &&
		i.Status != StatusCancelled &&
		i.RetryCount < i.MaxRetries
}

// Cancel moves a pending item to its terminal cancelled state.
func (i *Item) Cancel() error {
	if i.Status != StatusPending {
		return pkgError.ConflictError(fmt.Sprintf("cannot cancel a %s schedule", i.Status))
	}
	i.Status = StatusCancelled
	i.NextExecution = nil
	return nil
}

// MarkCompleted records a successful execution. Recurring items with
// budget left stay pending and get their next occurrence from the
// recurrence calculator; everything else terminates as completed.
// RetryCount deliberately survives success (lifetime failure budget).
func (i *Item) MarkCompleted(now time.Time) {
	executedAt := now
	i.LastExecutedAt = &executedAt
	i.ExecutionCount++

	if i.IsRecurring() && (i.MaxExecutions == nil || i.ExecutionCount < *i.MaxExecutions) {
		next, err := NextOccurrence(i.ScheduledTime, i.Frequency, i.ExecutionCount, now)
		if err != nil {
			// Recurrence math failed; close the schedule out rather
			// than leaving a pending item with no next run.
			i.Status = StatusCompleted
			i.NextExecution = nil
			return
		}
		i.Status = StatusPending
		i.NextExecution = &next
		return
	}

	i.Status = StatusCompleted
	i.NextExecution = nil
}

// MarkFailed records a failed execution attempt. While retry budget
// remains the item stays pending with an exponentially backed-off next
// run; the budget running out makes the failure terminal.
func (i *Item) MarkFailed(now time.Time, message string) {
	if message == "" {
		message = "Execution failed"
	}

	executedAt := now
	i.LastExecutedAt = &executedAt
	i.RetryCount++
	i.LastError = &message
	i.ErrorLog = append(i.ErrorLog, ErrorEntry{Time: now, Message: message})

	if i.RetryCount < i.MaxRetries {
		next := now.Add(FailureBackoff(i.RetryCount))
		i.Status = StatusPending
		i.NextExecution = &next
		return
	}

	i.Status = StatusFailed
	i.NextExecution = nil
}

// Retry re-arms an item after failures by operator request. Unlike the
// automatic failure path it does not consume retry budget; it only
// pushes the next run out by the retry backoff.
func (i *Item) Retry(now time.Time) error {
	if !i.CanRetry() {
		return pkgError.ValidationError("this scheduled item cannot be retried")
	}
	next := now.Add(RetryBackoff(i.RetryCount))
	i.Status = StatusPending
	i.NextExecution = &next
	return nil
}

// DueTime is the effective time the item becomes eligible to run.
func (i *Item) DueTime() time.Time {
	if i.NextExecution != nil {
		return *i.NextExecution
	}
	return i.ScheduledTime
}

// IsDue reports whether a pending item is eligible to execute at now.
func (i *Item) IsDue(now time.Time) bool {
	return i.Status == StatusPending && !now.Before(i.DueTime())
}

// Execute performs at most one publish attempt. Items that are not
// pending or not yet due are left untouched and report false. Lookup
// and publish failures are swallowed into the failure path; they never
// reach the caller. Returns true iff the completion path ran.
//
// Callers must not run Execute concurrently for the same item; the
// storage layer's claim guard provides that exclusion.
func (i *Item) Execute(ctx context.Context, resolver Resolver, now time.Time) bool {
	if !i.IsDue(now) {
		return false
	}

	publishable, err := resolver.Resolve(ctx, i.Target)
	if err != nil {
		if errors.Is(err, ErrTargetNotFound) {
			i.MarkFailed(now, fmt.Sprintf("%s post with ID %s not found", i.Target.Kind, i.Target.RefID))
		} else {
			i.MarkFailed(now, err.Error())
		}
		return false
	}

	if err := publishable.Publish(ctx); err != nil {
		i.MarkFailed(now, err.Error())
		return false
	}

	i.MarkCompleted(now)
	return true
}
