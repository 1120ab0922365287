package repository

import (
	"context"
	"errors"
	"time"

	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
)

// ErrClaimLost is returned when persisting an execution whose claim was
// taken over by another runner in the meantime. The caller must discard
// its in-memory state; the winning runner owns the item now.
var ErrClaimLost = errors.New("schedule claim lost to another runner")

// ListFilter narrows List results. Nil fields match everything.
type ListFilter struct {
	Status *scheduleDomain.Status
	Kind   *scheduleDomain.TargetKind
}

// IScheduleRepository persists scheduled items and provides the due-scan
// and claim primitives the runner builds its mutual-exclusion contract
// on. The state machine itself lives in schedule/domain; this layer only
// stores outcomes.
type IScheduleRepository interface {
	InitSchema(ctx context.Context) error

	Create(ctx context.Context, item *scheduleDomain.Item) error
	GetByID(ctx context.Context, id string) (*scheduleDomain.Item, error)
	List(ctx context.Context, filter ListFilter) ([]scheduleDomain.Item, error)
	ByBlogPost(ctx context.Context, blogPostID string) ([]scheduleDomain.Item, error)
	BySocialPost(ctx context.Context, socialPostID string) ([]scheduleDomain.Item, error)
	Update(ctx context.Context, item *scheduleDomain.Item) error
	Delete(ctx context.Context, id string) error

	// DeleteByTarget removes every schedule referencing a post. Called
	// by the content layer when a post is deleted (cascade contract).
	DeleteByTarget(ctx context.Context, target scheduleDomain.Target) error

	// DueItems returns all pending items whose effective due time has
	// passed. No ordering guarantee; the runner decides execution order.
	DueItems(ctx context.Context, now time.Time) ([]scheduleDomain.Item, error)

	// Claim marks an item as owned by runnerID until now+ttl. It only
	// succeeds while the item is still pending and unclaimed (or the
	// previous claim expired), which is what prevents double-publishing
	// across concurrent runners.
	Claim(ctx context.Context, id, runnerID string, ttl time.Duration, now time.Time) (bool, error)

	// ReleaseClaim drops a claim without recording an execution, used
	// when a claimed item turns out not to be executable after all.
	ReleaseClaim(ctx context.Context, id, runnerID string) error

	// PersistExecution writes the post-execution state of a claimed
	// item and releases the claim in the same statement. Returns
	// ErrClaimLost if runnerID no longer holds the claim.
	PersistExecution(ctx context.Context, item *scheduleDomain.Item, runnerID string) error

	// NotifyChanged wakes sleeping runners after a schedule mutation.
	// A no-op on databases without LISTEN/NOTIFY.
	NotifyChanged(ctx context.Context) error
}
