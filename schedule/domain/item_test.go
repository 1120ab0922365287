package domain

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakePublishable struct {
	published bool
	err       error
}

func (f *fakePublishable) Publish(_ context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.published = true
	return nil
}

type fakeResolver struct {
	posts map[Target]*fakePublishable
}

func (r fakeResolver) Resolve(_ context.Context, target Target) (Publishable, error) {
	post, ok := r.posts[target]
	if !ok {
		return nil, ErrTargetNotFound
	}
	return post, nil
}

func pendingItem(t *testing.T, now time.Time, opts Options) *Item {
	t.Helper()
	item, err := NewItem(BlogTarget("blog-1"), now.Add(time.Hour), now, opts)
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	return item
}

// checkTerminalInvariant asserts next_execution is nil exactly for
// terminal statuses.
func checkTerminalInvariant(t *testing.T, item *Item) {
	t.Helper()
	terminal := item.Status == StatusCompleted || item.Status == StatusFailed || item.Status == StatusCancelled
	if terminal && item.NextExecution != nil {
		t.Errorf("status %s must clear next_execution, got %v", item.Status, item.NextExecution)
	}
	if !terminal && item.NextExecution == nil {
		t.Errorf("status %s must keep next_execution set", item.Status)
	}
}

func TestNewItemValidation(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)

	if _, err := NewTarget("", ""); err == nil {
		t.Error("expected error when no target reference is provided")
	}
	if _, err := NewTarget("blog-1", "social-1"); err == nil {
		t.Error("expected error when both target references are provided")
	}

	if _, err := NewItem(Target{}, future, now, Options{}); err == nil {
		t.Error("expected error for empty target")
	}
	if _, err := NewItem(BlogTarget("blog-1"), now.Add(-time.Minute), now, Options{}); err == nil {
		t.Error("expected error for scheduled time in the past")
	}
	if _, err := NewItem(BlogTarget("blog-1"), now, now, Options{}); err == nil {
		t.Error("expected error for scheduled time equal to now")
	}
	if _, err := NewItem(BlogTarget("blog-1"), future, now, Options{Frequency: "hourly"}); err == nil {
		t.Error("expected error for unsupported frequency")
	}

	item, err := NewItem(SocialTarget("social-1"), future, now, Options{})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if item.Status != StatusPending {
		t.Errorf("new item status = %s, want pending", item.Status)
	}
	if item.Frequency != FrequencyOnce {
		t.Errorf("default frequency = %s, want once", item.Frequency)
	}
	if item.MaxRetries != 3 {
		t.Errorf("default max retries = %d, want 3", item.MaxRetries)
	}
	if item.NextExecution == nil || !item.NextExecution.Equal(future) {
		t.Errorf("next_execution = %v, want scheduled time %v", item.NextExecution, future)
	}
	checkTerminalInvariant(t, item)
}

func TestCancel(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})

	if err := item.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if item.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", item.Status)
	}
	checkTerminalInvariant(t, item)

	// Terminal states admit no further transitions.
	if err := item.Cancel(); err == nil {
		t.Error("expected error cancelling a cancelled item")
	}
	if err := item.Retry(now); err == nil {
		t.Error("expected error retrying a cancelled item")
	}
}

func TestMarkCompletedOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})

	executedAt := now.Add(2 * time.Hour)
	item.MarkCompleted(executedAt)

	if item.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", item.Status)
	}
	if item.ExecutionCount != 1 {
		t.Errorf("execution_count = %d, want 1", item.ExecutionCount)
	}
	if item.LastExecutedAt == nil || !item.LastExecutedAt.Equal(executedAt) {
		t.Errorf("last_executed_at = %v, want %v", item.LastExecutedAt, executedAt)
	}
	checkTerminalInvariant(t, item)
}

func TestMarkCompletedRecurringUntilLimit(t *testing.T) {
	now := time.Date(2025, time.January, 31, 11, 0, 0, 0, time.UTC)
	anchor := time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)
	maxExecutions := 5
	item, err := NewItem(BlogTarget("blog-1"), anchor, now, Options{
		Frequency:     FrequencyMonthly,
		MaxExecutions: &maxExecutions,
	})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	// The concrete sequence from the month-end clamp: Jan 31 anchor
	// walks 28 Feb, 31 Mar, 30 Apr, 31 May, then completes.
	wantNext := []time.Time{
		time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 30, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.May, 31, 12, 0, 0, 0, time.UTC),
	}

	executedAt := anchor.Add(time.Minute)
	for i, want := range wantNext {
		item.MarkCompleted(executedAt)
		if item.Status != StatusPending {
			t.Fatalf("after completion %d status = %s, want pending", i+1, item.Status)
		}
		if item.NextExecution == nil || !item.NextExecution.Equal(want) {
			t.Fatalf("after completion %d next_execution = %v, want %v", i+1, item.NextExecution, want)
		}
		if item.ExecutionCount != i+1 {
			t.Fatalf("execution_count = %d, want %d", item.ExecutionCount, i+1)
		}
		executedAt = want.Add(time.Minute)
	}

	item.MarkCompleted(executedAt)
	if item.Status != StatusCompleted {
		t.Errorf("after final completion status = %s, want completed", item.Status)
	}
	if item.ExecutionCount != 5 {
		t.Errorf("execution_count = %d, want 5", item.ExecutionCount)
	}
	checkTerminalInvariant(t, item)
}

func TestMarkFailedBackoffThenTerminal(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{MaxRetries: 3})

	failAt := now.Add(2 * time.Hour)
	item.MarkFailed(failAt, "llm server unreachable")
	if item.Status != StatusPending || item.RetryCount != 1 {
		t.Fatalf("after 1st failure status=%s retry_count=%d, want pending/1", item.Status, item.RetryCount)
	}
	if want := failAt.Add(5 * time.Minute); item.NextExecution == nil || !item.NextExecution.Equal(want) {
		t.Errorf("after 1st failure next_execution = %v, want %v", item.NextExecution, want)
	}

	item.MarkFailed(failAt, "llm server unreachable")
	if item.Status != StatusPending || item.RetryCount != 2 {
		t.Fatalf("after 2nd failure status=%s retry_count=%d, want pending/2", item.Status, item.RetryCount)
	}
	if want := failAt.Add(15 * time.Minute); item.NextExecution == nil || !item.NextExecution.Equal(want) {
		t.Errorf("after 2nd failure next_execution = %v, want %v", item.NextExecution, want)
	}

	item.MarkFailed(failAt, "llm server unreachable")
	if item.Status != StatusFailed || item.RetryCount != 3 {
		t.Fatalf("after 3rd failure status=%s retry_count=%d, want failed/3", item.Status, item.RetryCount)
	}
	checkTerminalInvariant(t, item)

	if len(item.ErrorLog) != 3 {
		t.Errorf("error_log entries = %d, want 3", len(item.ErrorLog))
	}
	if item.LastError == nil || *item.LastError != "llm server unreachable" {
		t.Errorf("last_error = %v, want the failure message", item.LastError)
	}

	// Retries exhausted, so even an explicit retry is rejected.
	if err := item.Retry(failAt); err == nil {
		t.Error("expected error retrying an item with exhausted retries")
	}
}

func TestMarkFailedDefaultMessage(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})

	item.MarkFailed(now.Add(2*time.Hour), "")
	if item.LastError == nil || *item.LastError != "Execution failed" {
		t.Errorf("last_error = %v, want default message", item.LastError)
	}
}

func TestRetryUsesCurrentCountWithoutConsumingIt(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{MaxRetries: 5})

	failAt := now.Add(2 * time.Hour)
	item.MarkFailed(failAt, "boom")
	item.MarkFailed(failAt, "boom")

	retryAt := failAt.Add(time.Hour)
	if err := item.Retry(retryAt); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if item.Status != StatusPending {
		t.Errorf("status = %s, want pending", item.Status)
	}
	if item.RetryCount != 2 {
		t.Errorf("retry_count = %d, want unchanged 2", item.RetryCount)
	}
	// Explicit retry backoff: 5 * 2^2 = 20 minutes.
	if want := retryAt.Add(20 * time.Minute); item.NextExecution == nil || !item.NextExecution.Equal(want) {
		t.Errorf("next_execution = %v, want %v", item.NextExecution, want)
	}
}

func TestRetryCountSurvivesSuccess(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	anchor := now.Add(time.Hour)
	item, err := NewItem(BlogTarget("blog-1"), anchor, now, Options{
		Frequency:  FrequencyDaily,
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	failAt := anchor.Add(time.Minute)
	item.MarkFailed(failAt, "boom")
	item.MarkFailed(failAt, "boom")
	item.MarkCompleted(failAt.Add(time.Hour))
	item.MarkCompleted(failAt.Add(25 * time.Hour))

	// The failure budget is a lifetime one: two earlier failures still
	// count, so the next failure is immediately terminal.
	if item.RetryCount != 2 {
		t.Fatalf("retry_count = %d, want 2 after successes", item.RetryCount)
	}
	item.MarkFailed(failAt.Add(49*time.Hour), "boom")
	if item.Status != StatusFailed {
		t.Errorf("status = %s, want failed on third lifetime failure", item.Status)
	}
}

func TestExecuteNoOpWhenNotDue(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})
	before := *item

	resolver := fakeResolver{posts: map[Target]*fakePublishable{}}
	if item.Execute(context.Background(), resolver, now) {
		t.Error("Execute on a not-yet-due item must report false")
	}
	if item.ExecutionCount != before.ExecutionCount || item.RetryCount != before.RetryCount ||
		item.Status != before.Status || !item.NextExecution.Equal(*before.NextExecution) {
		t.Error("Execute on a not-yet-due item must not mutate the item")
	}
}

func TestExecuteNoOpWhenNotPending(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})
	if err := item.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	resolver := fakeResolver{posts: map[Target]*fakePublishable{}}
	if item.Execute(context.Background(), resolver, now.Add(48*time.Hour)) {
		t.Error("Execute on a cancelled item must report false")
	}
	if item.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled untouched", item.Status)
	}
}

func TestExecutePublishesOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})

	post := &fakePublishable{}
	resolver := fakeResolver{posts: map[Target]*fakePublishable{BlogTarget("blog-1"): post}}

	runAt := now.Add(2 * time.Hour)
	if !item.Execute(context.Background(), resolver, runAt) {
		t.Fatal("Execute on a due item must report true")
	}
	if !post.published {
		t.Error("target must be published")
	}
	if item.Status != StatusCompleted || item.ExecutionCount != 1 {
		t.Errorf("status=%s execution_count=%d, want completed/1", item.Status, item.ExecutionCount)
	}
	checkTerminalInvariant(t, item)

	// A second call is a no-op: the item is terminal.
	if item.Execute(context.Background(), resolver, runAt.Add(time.Hour)) {
		t.Error("Execute on a completed item must report false")
	}
}

func TestExecuteTargetNotFound(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})

	resolver := fakeResolver{posts: map[Target]*fakePublishable{}}
	if item.Execute(context.Background(), resolver, now.Add(2*time.Hour)) {
		t.Fatal("Execute must report false when the target is gone")
	}
	if item.Status != StatusPending || item.RetryCount != 1 {
		t.Errorf("status=%s retry_count=%d, want pending/1 (retriable failure)", item.Status, item.RetryCount)
	}
	if item.LastError == nil || !strings.Contains(*item.LastError, "blog post with ID blog-1 not found") {
		t.Errorf("last_error = %v, want a not-found message", item.LastError)
	}
}

func TestExecutePublishError(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	item := pendingItem(t, now, Options{})

	post := &fakePublishable{err: context.DeadlineExceeded}
	resolver := fakeResolver{posts: map[Target]*fakePublishable{BlogTarget("blog-1"): post}}

	if item.Execute(context.Background(), resolver, now.Add(2*time.Hour)) {
		t.Fatal("Execute must report false when publish fails")
	}
	if item.Status != StatusPending || item.RetryCount != 1 {
		t.Errorf("status=%s retry_count=%d, want pending/1", item.Status, item.RetryCount)
	}
	if item.LastError == nil || *item.LastError != context.DeadlineExceeded.Error() {
		t.Errorf("last_error = %v, want the publish error message", item.LastError)
	}
	checkTerminalInvariant(t, item)
}
