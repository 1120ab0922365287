package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainSchedule "github.com/inkwell-cms/inkwell/domains/schedule"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	"github.com/inkwell-cms/inkwell/schedule/repository"
)

type recordingPublishable struct {
	calls *int
	err   error
}

func (p recordingPublishable) Publish(ctx context.Context) error {
	*p.calls += 1
	return p.err
}

// stubResolver resolves a fixed set of targets; anything else is
// reported as missing.
type stubResolver struct {
	known map[scheduleDomain.Target]recordingPublishable
}

func (r stubResolver) Resolve(ctx context.Context, target scheduleDomain.Target) (scheduleDomain.Publishable, error) {
	p, ok := r.known[target]
	if !ok {
		return nil, scheduleDomain.ErrTargetNotFound
	}
	return p, nil
}

func newTestService(t *testing.T, resolver scheduleDomain.Resolver) (*scheduleService, repository.IScheduleRepository) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schedule.db")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_journal_mode=WAL", path)), &gorm.Config{
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

	repo := repository.NewScheduleGormRepository(db, sqlDB, "sqlite")
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	svc := NewScheduleService(repo, resolver, "runner-test").(*scheduleService)
	return svc, repo
}

func TestCreateRejectsMissingTarget(t *testing.T) {
	svc, _ := newTestService(t, stubResolver{known: map[scheduleDomain.Target]recordingPublishable{}})

	_, err := svc.Create(context.Background(), domainSchedule.CreateScheduleRequest{
		BlogPostID:    "ghost",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err == nil {
		t.Fatal("expected error for unknown blog post")
	}
}

func TestCreateRejectsPastAndAmbiguousRequests(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.BlogTarget("blog-1"): {calls: &calls},
	}}
	svc, _ := newTestService(t, resolver)
	ctx := context.Background()

	cases := []domainSchedule.CreateScheduleRequest{
		{BlogPostID: "blog-1", ScheduledTime: time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)},
		{BlogPostID: "blog-1", SocialPostID: "social-1", ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339)},
		{ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339)},
		{BlogPostID: "blog-1", ScheduledTime: "tomorrow at noon"},
		{BlogPostID: "blog-1", ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339), Frequency: "hourly"},
	}
	for i, req := range cases {
		if _, err := svc.Create(ctx, req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreateThenGetAndList(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.BlogTarget("blog-1"): {calls: &calls},
	}}
	svc, _ := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		BlogPostID:    "blog-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
		Frequency:     "daily",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Frequency != scheduleDomain.FrequencyDaily {
		t.Fatalf("frequency = %s, want daily", created.Frequency)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Target != scheduleDomain.BlogTarget("blog-1") {
		t.Fatalf("target = %+v", got.Target)
	}

	listed, err := svc.List(ctx, domainSchedule.ListSchedulesRequest{Status: "pending", Kind: "blog"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("len(listed) = %d, want 1", len(listed))
	}

	if _, err := svc.List(ctx, domainSchedule.ListSchedulesRequest{Status: "sleeping"}); err == nil {
		t.Fatal("expected error for invalid status filter")
	}
}

func TestCancelIsTerminal(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.SocialTarget("social-1"): {calls: &calls},
	}}
	svc, _ := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		SocialPostID:  "social-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != scheduleDomain.StatusCancelled || cancelled.NextExecution != nil {
		t.Fatalf("cancelled state: status=%s next=%v", cancelled.Status, cancelled.NextExecution)
	}

	if _, err := svc.Cancel(ctx, created.ID); err == nil {
		t.Fatal("expected conflict cancelling twice")
	}
}

func TestRunDueExecutesAndCompletes(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.BlogTarget("blog-1"): {calls: &calls},
	}}
	svc, _ := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		BlogPostID:    "blog-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Nothing is due yet.
	report, err := svc.RunDue(ctx)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Due != 0 || calls != 0 {
		t.Fatalf("premature execution: %+v calls=%d", report, calls)
	}

	// Move the clock past the anchor and sweep again.
	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	report, err = svc.RunDue(ctx)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Due != 1 || report.Executed != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if calls != 1 {
		t.Fatalf("publish calls = %d, want 1", calls)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != scheduleDomain.StatusCompleted || got.NextExecution != nil || got.ExecutionCount != 1 {
		t.Fatalf("post-run state: %+v", got)
	}

	// A second sweep finds nothing; the item is terminal.
	report, err = svc.RunDue(ctx)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Due != 0 || calls != 1 {
		t.Fatalf("terminal item re-ran: %+v calls=%d", report, calls)
	}
}

func TestRunDueRecordsFailuresWithBackoff(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.SocialTarget("social-1"): {calls: &calls, err: errors.New("platform rejected the post")},
	}}
	svc, _ := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		SocialPostID:  "social-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	frozen := time.Now().UTC().Add(2 * time.Hour)
	svc.now = func() time.Time { return frozen }

	report, err := svc.RunDue(ctx)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Failed != 1 || report.Executed != 0 {
		t.Fatalf("report = %+v", report)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != scheduleDomain.StatusPending || got.RetryCount != 1 {
		t.Fatalf("post-failure state: status=%s retries=%d", got.Status, got.RetryCount)
	}
	if got.NextExecution == nil {
		t.Fatal("expected backed-off next execution")
	}
	wantNext := frozen.Add(5 * time.Minute)
	if !got.NextExecution.Equal(wantNext) {
		t.Fatalf("next execution = %s, want %s", got.NextExecution, wantNext)
	}
	if got.LastError == nil || *got.LastError != "platform rejected the post" {
		t.Fatalf("last error = %v", got.LastError)
	}
}

func TestRetryReArmsFailedItem(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.BlogTarget("blog-1"): {calls: &calls},
	}}
	svc, repo := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		BlogPostID:    "blog-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Exhaust the failure budget directly through the state machine.
	item, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	now := time.Now().UTC()
	for i := 0; i < item.MaxRetries; i++ {
		item.MarkFailed(now, "boom")
	}
	if item.Status != scheduleDomain.StatusFailed {
		t.Fatalf("status = %s, want failed", item.Status)
	}
	if err := repo.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Budget is spent, so the operator retry is refused too.
	if _, err := svc.Retry(ctx, created.ID); err == nil {
		t.Fatal("expected retry refusal with exhausted budget")
	}

	// With budget left the retry re-arms without consuming it.
	item.RetryCount = 1
	item.Status = scheduleDomain.StatusFailed
	if err := repo.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rearmed, err := svc.Retry(ctx, created.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if rearmed.Status != scheduleDomain.StatusPending || rearmed.RetryCount != 1 {
		t.Fatalf("re-armed state: status=%s retries=%d", rearmed.Status, rearmed.RetryCount)
	}
	if rearmed.NextExecution == nil {
		t.Fatal("expected next execution after retry")
	}
}

func TestRunDueSkipsItemsClaimedByOtherRunners(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.BlogTarget("blog-1"): {calls: &calls},
	}}
	svc, repo := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		BlogPostID:    "blog-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	frozen := time.Now().UTC().Add(2 * time.Hour)
	svc.now = func() time.Time { return frozen }

	claimed, err := repo.Claim(ctx, created.ID, "other-runner", 10*time.Minute, frozen)
	if err != nil || !claimed {
		t.Fatalf("foreign claim: ok=%v err=%v", claimed, err)
	}

	report, err := svc.RunDue(ctx)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Due != 1 || report.Skipped != 1 || report.Executed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if calls != 0 {
		t.Fatalf("publish calls = %d, want 0", calls)
	}
}

func TestDeleteRemovesSchedule(t *testing.T) {
	calls := 0
	resolver := stubResolver{known: map[scheduleDomain.Target]recordingPublishable{
		scheduleDomain.BlogTarget("blog-1"): {calls: &calls},
	}}
	svc, _ := newTestService(t, resolver)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainSchedule.CreateScheduleRequest{
		BlogPostID:    "blog-1",
		ScheduledTime: time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}
