package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-cms/inkwell/infrastructure/valkey"
	"github.com/inkwell-cms/inkwell/pkg/pubworker"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	"github.com/inkwell-cms/inkwell/schedule/repository"
)

const (
	defaultInterval = 30 * time.Second
	defaultClaimTTL = 2 * time.Minute
)

const (
	EventScheduleExecuted = "schedule.executed"
	EventScheduleFailed   = "schedule.failed"
)

// Event is what the runner emits to observers (websocket feed) after
// each execution attempt.
type Event struct {
	Type    string                `json:"type"` // schedule.executed | schedule.failed
	ItemID  string                `json:"item_id"`
	Target  scheduleDomain.Target `json:"target"`
	Status  scheduleDomain.Status `json:"status"`
	Message string                `json:"message,omitempty"`
	Time    time.Time             `json:"time"`
}

// RunnerStats is the snapshot served by GET /api/scheduler/status.
type RunnerStats struct {
	Running         bool                `json:"running"`
	RunnerID        string              `json:"runner_id"`
	IntervalSeconds float64             `json:"interval_seconds"`
	Ticks           int64               `json:"ticks"`
	LastTickAt      *time.Time          `json:"last_tick_at,omitempty"`
	LastDue         int                 `json:"last_due"`
	LastExecuted    int                 `json:"last_executed"`
	LastFailed      int                 `json:"last_failed"`
	LastSkipped     int                 `json:"last_skipped"`
	StartedAt       time.Time           `json:"started_at"`
	Pool            pubworker.PoolStats `json:"pool"`
}

// Runner drives schedule execution in the background: a cron tick scans
// for due items and hands each one to the publish pool, where the
// claim-execute-persist cycle runs. With Valkey configured a leader
// lock keeps multiple instances from sweeping at once; the claim
// protocol stays the real guarantee either way.
type Runner struct {
	repo         repository.IScheduleRepository
	resolver     scheduleDomain.Resolver
	pool         *pubworker.PublishPool
	valkeyClient *valkey.Client
	runnerID     string
	interval     time.Duration
	claimTTL     time.Duration
	cron         *cron.Cron
	wake         chan struct{}
	cancel       context.CancelFunc
	startOnce    sync.Once
	stopOnce     sync.Once
	startedAt    time.Time

	// OnEvent, when set, observes every execution attempt. Called from
	// worker goroutines; the observer must be safe for concurrent use.
	OnEvent func(Event)

	ticks        int64
	running      int32
	statsMu      sync.Mutex
	lastTickAt   *time.Time
	lastDue      int
	lastExecuted int
	lastFailed   int
	lastSkipped  int
}

// Option tweaks runner construction.
type Option func(*Runner)

func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithClaimTTL(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.claimTTL = d
		}
	}
}

// WithValkey enables the cross-instance leader lock.
func WithValkey(client *valkey.Client) Option {
	return func(r *Runner) { r.valkeyClient = client }
}

func NewRunner(repo repository.IScheduleRepository, resolver scheduleDomain.Resolver, pool *pubworker.PublishPool, runnerID string, opts ...Option) *Runner {
	r := &Runner{
		repo:     repo,
		resolver: resolver,
		pool:     pool,
		runnerID: runnerID,
		interval: defaultInterval,
		claimTTL: defaultClaimTTL,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the cron tick and the sweep loop. Idempotent.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		r.cancel = cancel
		r.startedAt = time.Now().UTC()
		atomic.StoreInt32(&r.running, 1)

		r.pool.Start(runCtx)

		r.cron = cron.New()
		_, err := r.cron.AddFunc("@every "+r.interval.String(), func() {
			r.Wake()
		})
		if err != nil {
			logrus.WithError(err).Error("[RUNNER] Failed to register tick; falling back to manual wake-ups only")
		}
		r.cron.Start()

		go r.loop(runCtx)

		logrus.Infof("[RUNNER] Started as %s, tick every %s", r.runnerID, r.interval)
	})
}

// AddCronJob registers an extra periodic job (e.g. the analytics daily
// roll-up) on the runner's cron. Must be called after Start.
func (r *Runner) AddCronJob(spec string, job func()) error {
	if r.cron == nil {
		return errors.New("runner not started")
	}
	_, err := r.cron.AddFunc(spec, job)
	return err
}

// Wake requests an immediate sweep. Safe to call from any goroutine;
// coalesces while a sweep is already queued.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Stop halts ticking and drains in-flight executions. Idempotent.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		atomic.StoreInt32(&r.running, 0)
		if r.cron != nil {
			cronCtx := r.cron.Stop()
			<-cronCtx.Done()
		}
		if r.cancel != nil {
			r.cancel()
		}
		r.pool.Stop()
		logrus.Info("[RUNNER] Stopped")
	})
}

func (r *Runner) loop(ctx context.Context) {
	// Initial sweep so a restart picks overdue items up immediately.
	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			r.sweep(ctx)
		}
	}
}

// sweep scans for due items and dispatches each to the publish pool.
func (r *Runner) sweep(ctx context.Context) {
	if r.valkeyClient != nil && !r.acquireLeaderLock(ctx) {
		return
	}

	now := time.Now().UTC()
	due, err := r.repo.DueItems(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("[RUNNER] Due scan failed")
		return
	}

	atomic.AddInt64(&r.ticks, 1)
	r.statsMu.Lock()
	tickAt := now
	r.lastTickAt = &tickAt
	r.lastDue = len(due)
	r.lastExecuted, r.lastFailed, r.lastSkipped = 0, 0, 0
	r.statsMu.Unlock()

	if len(due) == 0 {
		return
	}

	logrus.Debugf("[RUNNER] Sweep found %d due item(s)", len(due))
	for i := range due {
		id := due[i].ID
		r.pool.Dispatch(pubworker.Job{
			ItemID: id,
			Handler: func(jobCtx context.Context) error {
				return r.runItem(jobCtx, id)
			},
		})
	}
}

// acquireLeaderLock elects one sweeping instance per tick window. The
// TTL outlives the interval slightly so a crashed leader is replaced on
// the next tick.
func (r *Runner) acquireLeaderLock(ctx context.Context) bool {
	key := r.valkeyClient.Key("scheduler", "leader")
	ok, err := r.valkeyClient.TryLock(ctx, key, r.runnerID, r.interval+5*time.Second)
	if err != nil {
		logrus.WithError(err).Warn("[RUNNER] Leader lock check failed; sweeping anyway")
		return true
	}
	return ok
}

// runItem is one claim-execute-persist cycle. Failure to claim just
// means another runner got there first.
func (r *Runner) runItem(ctx context.Context, id string) error {
	now := time.Now().UTC()

	claimed, err := r.repo.Claim(ctx, id, r.runnerID, r.claimTTL, now)
	if err != nil {
		r.countSkipped()
		return err
	}
	if !claimed {
		r.countSkipped()
		return nil
	}

	item, err := r.repo.GetByID(ctx, id)
	if err != nil {
		r.countSkipped()
		return err
	}

	if !item.IsDue(now) {
		r.countSkipped()
		if err := r.repo.ReleaseClaim(ctx, id, r.runnerID); err != nil {
			logrus.WithError(err).Warnf("[RUNNER] Failed to release claim on %s", id)
		}
		return nil
	}

	ok := item.Execute(ctx, r.resolver, now)

	if err := r.repo.PersistExecution(ctx, item, r.runnerID); err != nil {
		if errors.Is(err, repository.ErrClaimLost) {
			logrus.Warnf("[RUNNER] Claim on %s lost mid-execution, discarding result", id)
			r.countSkipped()
			return nil
		}
		r.countFailed()
		return err
	}

	if ok {
		logrus.Infof("[RUNNER] Published %s post %s (schedule %s)", item.Target.Kind, item.Target.RefID, item.ID)
		r.countExecuted()
		r.emit(Event{
			Type:   EventScheduleExecuted,
			ItemID: item.ID,
			Target: item.Target,
			Status: item.Status,
			Time:   now,
		})
		return nil
	}

	message := "execution failed"
	if item.LastError != nil {
		message = *item.LastError
	}
	logrus.Warnf("[RUNNER] Schedule %s failed: %s", item.ID, message)
	r.countFailed()
	r.emit(Event{
		Type:    EventScheduleFailed,
		ItemID:  item.ID,
		Target:  item.Target,
		Status:  item.Status,
		Message: message,
		Time:    now,
	})
	return nil
}

func (r *Runner) emit(event Event) {
	if r.OnEvent != nil {
		r.OnEvent(event)
	}
}

func (r *Runner) countExecuted() { r.bumpStat(func() { r.lastExecuted++ }) }
func (r *Runner) countFailed()   { r.bumpStat(func() { r.lastFailed++ }) }
func (r *Runner) countSkipped()  { r.bumpStat(func() { r.lastSkipped++ }) }

func (r *Runner) bumpStat(fn func()) {
	r.statsMu.Lock()
	fn()
	r.statsMu.Unlock()
}

func (r *Runner) Stats() RunnerStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return RunnerStats{
		Running:         atomic.LoadInt32(&r.running) == 1,
		RunnerID:        r.runnerID,
		IntervalSeconds: r.interval.Seconds(),
		Ticks:           atomic.LoadInt64(&r.ticks),
		LastTickAt:      r.lastTickAt,
		LastDue:         r.lastDue,
		LastExecuted:    r.lastExecuted,
		LastFailed:      r.lastFailed,
		LastSkipped:     r.lastSkipped,
		StartedAt:       r.startedAt,
		Pool:            r.pool.GetStats(),
	}
}
