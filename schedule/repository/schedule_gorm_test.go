package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *ScheduleGormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schedule.db")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path)), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewScheduleGormRepository(db, sqlDB, "sqlite")
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return repo
}

func newStoredItem(t *testing.T, repo *ScheduleGormRepository, target scheduleDomain.Target, scheduledAt time.Time, opts scheduleDomain.Options) *scheduleDomain.Item {
	t.Helper()
	item, err := scheduleDomain.NewItem(target, scheduledAt, scheduledAt.Add(-time.Hour), opts)
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return item
}

func TestRoundTripPreservesAllAttributes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	scheduledAt := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)
	maxExecutions := 5
	item := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-1"), scheduledAt, scheduleDomain.Options{
		Frequency:     scheduleDomain.FrequencyMonthly,
		MaxExecutions: &maxExecutions,
		MaxRetries:    4,
	})

	// Accumulate history so the round trip covers every field,
	// including error-log ordering.
	failAt := scheduledAt.Add(time.Minute)
	item.MarkFailed(failAt, "first failure")
	item.MarkFailed(failAt.Add(10*time.Minute), "second failure")
	item.MarkCompleted(failAt.Add(time.Hour))
	if err := repo.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.Target != item.Target {
		t.Errorf("target = %+v, want %+v", got.Target, item.Target)
	}
	if !got.ScheduledTime.Equal(item.ScheduledTime) {
		t.Errorf("scheduled_time = %v, want %v", got.ScheduledTime, item.ScheduledTime)
	}
	if got.Frequency != item.Frequency || got.Status != item.Status {
		t.Errorf("frequency/status = %s/%s, want %s/%s", got.Frequency, got.Status, item.Frequency, item.Status)
	}
	if (got.NextExecution == nil) != (item.NextExecution == nil) {
		t.Fatalf("next_execution = %v, want %v", got.NextExecution, item.NextExecution)
	}
	if got.NextExecution != nil && !got.NextExecution.Equal(*item.NextExecution) {
		t.Errorf("next_execution = %v, want %v", got.NextExecution, item.NextExecution)
	}
	if got.LastExecutedAt == nil || !got.LastExecutedAt.Equal(*item.LastExecutedAt) {
		t.Errorf("last_executed_at = %v, want %v", got.LastExecutedAt, item.LastExecutedAt)
	}
	if got.ExecutionCount != 1 || got.RetryCount != 2 || got.MaxRetries != 4 {
		t.Errorf("counters = %d/%d/%d, want 1/2/4", got.ExecutionCount, got.RetryCount, got.MaxRetries)
	}
	if got.MaxExecutions == nil || *got.MaxExecutions != maxExecutions {
		t.Errorf("max_executions = %v, want %d", got.MaxExecutions, maxExecutions)
	}
	if got.LastError == nil || *got.LastError != "second failure" {
		t.Errorf("last_error = %v, want second failure", got.LastError)
	}
	if len(got.ErrorLog) != 2 {
		t.Fatalf("error_log entries = %d, want 2", len(got.ErrorLog))
	}
	if got.ErrorLog[0].Message != "first failure" || got.ErrorLog[1].Message != "second failure" {
		t.Errorf("error_log order = %q, %q; want first, second", got.ErrorLog[0].Message, got.ErrorLog[1].Message)
	}
	if !got.ErrorLog[0].Time.Equal(failAt) {
		t.Errorf("error_log[0].time = %v, want %v", got.ErrorLog[0].Time, failAt)
	}
	if !got.CreatedAt.Equal(item.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, item.CreatedAt)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetByID(context.Background(), "missing"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestDueItemsSelection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Due one minute ago.
	due := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-due"), now.Add(time.Hour), scheduleDomain.Options{})
	past := now.Add(-time.Minute)
	due.NextExecution = &past
	if err := repo.Update(ctx, due); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Due one minute from now: must not be selected.
	notYet := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-later"), now.Add(time.Hour), scheduleDomain.Options{})
	future := now.Add(time.Minute)
	notYet.NextExecution = &future
	if err := repo.Update(ctx, notYet); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Cancelled with a past scheduled time: never selected.
	cancelled := newStoredItem(t, repo, scheduleDomain.SocialTarget("social-1"), now.Add(time.Hour), scheduleDomain.Options{})
	if err := cancelled.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	cancelled.ScheduledTime = now.Add(-time.Hour)
	if err := repo.Update(ctx, cancelled); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Defensive null branch: pending with no next_execution and a past
	// scheduled time still counts as due.
	nullNext := newStoredItem(t, repo, scheduleDomain.SocialTarget("social-null"), now.Add(time.Hour), scheduleDomain.Options{})
	nullNext.NextExecution = nil
	nullNext.ScheduledTime = now.Add(-time.Minute)
	if err := repo.Update(ctx, nullNext); err != nil {
		t.Fatalf("Update: %v", err)
	}

	items, err := repo.DueItems(ctx, now)
	if err != nil {
		t.Fatalf("DueItems: %v", err)
	}

	ids := map[string]bool{}
	for _, item := range items {
		ids[item.ID] = true
	}
	if len(items) != 2 {
		t.Errorf("due items = %d (%v), want 2", len(items), ids)
	}
	if !ids[due.ID] {
		t.Error("item due in the past must be selected")
	}
	if !ids[nullNext.ID] {
		t.Error("pending item with null next_execution and past scheduled_time must be selected")
	}
	if ids[notYet.ID] {
		t.Error("item due in the future must not be selected")
	}
	if ids[cancelled.ID] {
		t.Error("cancelled item must never be selected")
	}
}

func TestClaimMutualExclusion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	item := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-1"), now.Add(time.Hour), scheduleDomain.Options{})

	claimed, err := repo.Claim(ctx, item.ID, "runner-a", time.Minute, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim must succeed")
	}

	// A second runner cannot steal a live claim.
	claimed, err = repo.Claim(ctx, item.ID, "runner-b", time.Minute, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed {
		t.Error("second runner must not claim a locked item")
	}

	// Re-claim by the same runner extends the lock.
	claimed, err = repo.Claim(ctx, item.ID, "runner-a", time.Minute, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Error("claim holder must be able to extend its own claim")
	}

	// An expired claim is up for grabs.
	claimed, err = repo.Claim(ctx, item.ID, "runner-b", time.Minute, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Error("expired claim must be claimable by another runner")
	}
}

func TestClaimRequiresPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	item := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-1"), now.Add(time.Hour), scheduleDomain.Options{})
	if err := item.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := repo.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	claimed, err := repo.Claim(ctx, item.ID, "runner-a", time.Minute, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed {
		t.Error("non-pending items must not be claimable")
	}
}

func TestPersistExecutionGuardsClaim(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	item := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-1"), now.Add(time.Hour), scheduleDomain.Options{})
	if _, err := repo.Claim(ctx, item.ID, "runner-a", time.Minute, now); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	item.MarkCompleted(now)

	// A runner that lost its claim must not persist anything.
	if err := repo.PersistExecution(ctx, item, "runner-b"); err != ErrClaimLost {
		t.Fatalf("PersistExecution with foreign runner: err = %v, want ErrClaimLost", err)
	}

	if err := repo.PersistExecution(ctx, item, "runner-a"); err != nil {
		t.Fatalf("PersistExecution: %v", err)
	}

	got, err := repo.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != scheduleDomain.StatusCompleted || got.ExecutionCount != 1 {
		t.Errorf("persisted status=%s count=%d, want completed/1", got.Status, got.ExecutionCount)
	}
	if got.NextExecution != nil {
		t.Errorf("persisted next_execution = %v, want nil", got.NextExecution)
	}

	// Claim released with the persist, so a fresh claim succeeds even
	// though the item is now terminal... it must not: status != pending.
	claimed, err := repo.Claim(ctx, item.ID, "runner-b", time.Minute, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed {
		t.Error("completed items must not be claimable")
	}
}

func TestReleaseClaim(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	item := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-1"), now.Add(time.Hour), scheduleDomain.Options{})
	if _, err := repo.Claim(ctx, item.ID, "runner-a", time.Minute, now); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := repo.ReleaseClaim(ctx, item.ID, "runner-a"); err != nil {
		t.Fatalf("ReleaseClaim: %v", err)
	}

	claimed, err := repo.Claim(ctx, item.ID, "runner-b", time.Minute, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Error("released item must be claimable again")
	}
}

func TestListFiltersAndDeleteByTarget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	blogItem := newStoredItem(t, repo, scheduleDomain.BlogTarget("blog-1"), now.Add(time.Hour), scheduleDomain.Options{})
	newStoredItem(t, repo, scheduleDomain.SocialTarget("social-1"), now.Add(time.Hour), scheduleDomain.Options{})
	cancelled := newStoredItem(t, repo, scheduleDomain.SocialTarget("social-2"), now.Add(time.Hour), scheduleDomain.Options{})
	if err := cancelled.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := repo.Update(ctx, cancelled); err != nil {
		t.Fatalf("Update: %v", err)
	}

	pending := scheduleDomain.StatusPending
	items, err := repo.List(ctx, ListFilter{Status: &pending})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("pending items = %d, want 2", len(items))
	}

	social := scheduleDomain.TargetSocial
	items, err = repo.List(ctx, ListFilter{Kind: &social})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("social items = %d, want 2", len(items))
	}

	// Deleting a post cascades to its schedules.
	if err := repo.DeleteByTarget(ctx, scheduleDomain.BlogTarget("blog-1")); err != nil {
		t.Fatalf("DeleteByTarget: %v", err)
	}
	if _, err := repo.GetByID(ctx, blogItem.ID); err == nil {
		t.Error("schedules of a deleted blog post must be gone")
	}
}
