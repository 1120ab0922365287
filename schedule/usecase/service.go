package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	domainSchedule "github.com/inkwell-cms/inkwell/domains/schedule"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	"github.com/inkwell-cms/inkwell/schedule/repository"
	"github.com/inkwell-cms/inkwell/validations"
)

// defaultClaimTTL bounds how long a claimed item stays invisible to
// other runners if the claiming process dies mid-execution.
const defaultClaimTTL = 2 * time.Minute

type scheduleService struct {
	repo     repository.IScheduleRepository
	resolver scheduleDomain.Resolver
	runnerID string
	claimTTL time.Duration
	now      func() time.Time
}

// NewScheduleService wires the schedule lifecycle over a repository and
// the resolver that maps targets to publishable posts. runnerID
// identifies this process in the claim protocol.
func NewScheduleService(repo repository.IScheduleRepository, resolver scheduleDomain.Resolver, runnerID string) domainSchedule.IScheduleUsecase {
	return &scheduleService{
		repo:     repo,
		resolver: resolver,
		runnerID: runnerID,
		claimTTL: defaultClaimTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *scheduleService) Create(ctx context.Context, request domainSchedule.CreateScheduleRequest) (scheduleDomain.Item, error) {
	if err := validations.ValidateCreateSchedule(ctx, request); err != nil {
		return scheduleDomain.Item{}, err
	}

	target, err := scheduleDomain.NewTarget(request.BlogPostID, request.SocialPostID)
	if err != nil {
		return scheduleDomain.Item{}, err
	}

	scheduledAt, err := time.Parse(time.RFC3339, request.ScheduledTime)
	if err != nil {
		return scheduleDomain.Item{}, pkgError.ValidationError(fmt.Sprintf("scheduled_time: invalid RFC 3339 timestamp: %s", request.ScheduledTime))
	}

	// Reject schedules for posts that do not exist; a dangling reference
	// would only surface as a failed execution much later.
	if _, err := s.resolver.Resolve(ctx, target); err != nil {
		if errors.Is(err, scheduleDomain.ErrTargetNotFound) {
			return scheduleDomain.Item{}, pkgError.NotFoundError(fmt.Sprintf("%s post with ID %s not found", target.Kind, target.RefID))
		}
		return scheduleDomain.Item{}, err
	}

	frequency := scheduleDomain.Frequency(request.Frequency)
	item, err := scheduleDomain.NewItem(target, scheduledAt.UTC(), s.now(), scheduleDomain.Options{
		Frequency:     frequency,
		MaxExecutions: request.MaxExecutions,
		MaxRetries:    request.MaxRetries,
	})
	if err != nil {
		return scheduleDomain.Item{}, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return scheduleDomain.Item{}, err
	}

	logrus.Infof("[SCHEDULE] Created %s schedule %s for %s post %s at %s",
		item.Frequency, item.ID, target.Kind, target.RefID, item.ScheduledTime.Format(time.RFC3339))

	s.notifyChanged(ctx)
	return *item, nil
}

func (s *scheduleService) List(ctx context.Context, request domainSchedule.ListSchedulesRequest) ([]scheduleDomain.Item, error) {
	var filter repository.ListFilter

	if request.Status != "" {
		status, err := scheduleDomain.ParseStatus(request.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if request.Kind != "" {
		kind := scheduleDomain.TargetKind(request.Kind)
		if kind != scheduleDomain.TargetBlog && kind != scheduleDomain.TargetSocial {
			return nil, pkgError.ValidationError(fmt.Sprintf("unknown schedule target kind: %s", request.Kind))
		}
		filter.Kind = &kind
	}

	return s.repo.List(ctx, filter)
}

func (s *scheduleService) Get(ctx context.Context, scheduleID string) (scheduleDomain.Item, error) {
	item, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return scheduleDomain.Item{}, err
	}
	return *item, nil
}

func (s *scheduleService) Cancel(ctx context.Context, scheduleID string) (scheduleDomain.Item, error) {
	item, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return scheduleDomain.Item{}, err
	}

	if err := item.Cancel(); err != nil {
		return scheduleDomain.Item{}, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return scheduleDomain.Item{}, err
	}

	logrus.Infof("[SCHEDULE] Cancelled schedule %s", scheduleID)
	s.notifyChanged(ctx)
	return *item, nil
}

func (s *scheduleService) Retry(ctx context.Context, scheduleID string) (scheduleDomain.Item, error) {
	item, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return scheduleDomain.Item{}, err
	}

	if err := item.Retry(s.now()); err != nil {
		return scheduleDomain.Item{}, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return scheduleDomain.Item{}, err
	}

	logrus.Infof("[SCHEDULE] Re-armed schedule %s, next run at %s",
		scheduleID, item.NextExecution.Format(time.RFC3339))
	s.notifyChanged(ctx)
	return *item, nil
}

func (s *scheduleService) Delete(ctx context.Context, scheduleID string) error {
	if err := s.repo.Delete(ctx, scheduleID); err != nil {
		return err
	}
	s.notifyChanged(ctx)
	return nil
}

func (s *scheduleService) DueItems(ctx context.Context) ([]scheduleDomain.Item, error) {
	return s.repo.DueItems(ctx, s.now())
}

// RunDue performs one sweep: scan for due items, claim each one, run the
// publish attempt, persist the outcome. Items another runner claims
// first are counted as skipped, not failed.
func (s *scheduleService) RunDue(ctx context.Context) (domainSchedule.RunReport, error) {
	startedAt := s.now()
	report := domainSchedule.RunReport{StartedAt: startedAt}

	due, err := s.repo.DueItems(ctx, startedAt)
	if err != nil {
		return report, err
	}
	report.Due = len(due)

	for i := range due {
		switch s.runOne(ctx, due[i].ID) {
		case runExecuted:
			report.Executed++
		case runFailed:
			report.Failed++
		case runSkipped:
			report.Skipped++
		}
	}

	if report.Executed > 0 || report.Failed > 0 {
		logrus.Infof("[SCHEDULE] Sweep finished: %d due, %d executed, %d failed, %d skipped",
			report.Due, report.Executed, report.Failed, report.Skipped)
	}

	return report, nil
}

type runOutcome int

const (
	runExecuted runOutcome = iota
	runFailed
	runSkipped
)

// runOne claims and executes a single item by ID. The claim is taken
// before the item state is re-read so a concurrent runner can never act
// on the same row in between.
func (s *scheduleService) runOne(ctx context.Context, id string) runOutcome {
	now := s.now()

	claimed, err := s.repo.Claim(ctx, id, s.runnerID, s.claimTTL, now)
	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULE] Failed to claim item %s", id)
		return runSkipped
	}
	if !claimed {
		return runSkipped
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logrus.WithError(err).Errorf("[SCHEDULE] Claimed item %s disappeared", id)
		return runSkipped
	}

	// The due scan is a snapshot; the item may have been mutated between
	// scan and claim. Execute re-checks eligibility itself.
	if !item.IsDue(now) {
		if err := s.repo.ReleaseClaim(ctx, id, s.runnerID); err != nil {
			logrus.WithError(err).Warnf("[SCHEDULE] Failed to release claim on %s", id)
		}
		return runSkipped
	}

	ok := item.Execute(ctx, s.resolver, now)

	if err := s.repo.PersistExecution(ctx, item, s.runnerID); err != nil {
		if errors.Is(err, repository.ErrClaimLost) {
			logrus.Warnf("[SCHEDULE] Claim on item %s lost to another runner, discarding result", id)
			return runSkipped
		}
		logrus.WithError(err).Errorf("[SCHEDULE] Failed to persist execution of item %s", id)
		return runFailed
	}

	if ok {
		logrus.Infof("[SCHEDULE] Published %s post %s (schedule %s, execution #%d)",
			item.Target.Kind, item.Target.RefID, item.ID, item.ExecutionCount)
		return runExecuted
	}

	logrus.Warnf("[SCHEDULE] Execution of schedule %s failed: %s", item.ID, lastErrorMessage(item))
	return runFailed
}

func lastErrorMessage(item *scheduleDomain.Item) string {
	if item.LastError != nil {
		return *item.LastError
	}
	return "unknown error"
}

// notifyChanged is best effort; a missed wake-up only delays execution
// until the next cron tick.
func (s *scheduleService) notifyChanged(ctx context.Context) {
	if err := s.repo.NotifyChanged(ctx); err != nil {
		logrus.WithError(err).Debug("[SCHEDULE] Change notification failed")
	}
}
