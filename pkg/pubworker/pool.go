package pubworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is one publish attempt for a scheduled item. Jobs carrying the
// same ItemID always land on the same worker, which serializes them
// in-process; the storage claim handles exclusion across processes.
type Job struct {
	ItemID  string
	Handler func(ctx context.Context) error
}

// PoolStats is a point-in-time snapshot of the pool.
type PoolStats struct {
	NumWorkers      int           `json:"num_workers"`
	QueueSize       int           `json:"queue_size"`
	ActiveWorkers   int           `json:"active_workers"`
	TotalDispatched int64         `json:"total_dispatched"`
	TotalProcessed  int64         `json:"total_processed"`
	TotalDropped    int64         `json:"total_dropped"`
	TotalErrors     int64         `json:"total_errors"`
	UptimeSeconds   float64       `json:"uptime_seconds"`
	WorkerStats     []WorkerStats `json:"worker_stats"`
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

// PublishPool runs schedule executions on a fixed set of workers, each
// with its own queue, sharded by item ID.
type PublishPool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    int32
	startTime  time.Time

	totalDispatched int64
	totalProcessed  int64
	totalDropped    int64
	totalErrors     int64

	// Hooks for external monitoring (websocket feed, runner stats).
	OnJobStart func(workerID int, itemID string)
	OnJobEnd   func(workerID int, itemID string, err error)
}

type worker struct {
	id            int
	jobQueue      chan Job
	ctx           context.Context
	cancel        context.CancelFunc
	isProcessing  int32
	jobsProcessed int64
	pool          *PublishPool
}

func NewPublishPool(numWorkers, queueSize int) *PublishPool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &PublishPool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
		startTime:  time.Now(),
	}
}

// Start launches the workers. The pool stops when ctx is cancelled or
// Stop is called.
func (p *PublishPool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{
			id:       i,
			jobQueue: make(chan Job, p.queueSize),
			ctx:      workerCtx,
			cancel:   cancel,
			pool:     p,
		}
		p.workers[i] = w

		p.wg.Add(1)
		go w.run(&p.wg)
	}

	logrus.Infof("[PUBLISH_POOL] Started with %d workers, queue size: %d", p.numWorkers, p.queueSize)
}

// TryDispatch enqueues a job without blocking and reports whether it was
// accepted. A full shard queue drops the job; the next runner tick will
// pick the item up again since its claim expires.
func (p *PublishPool) TryDispatch(job Job) bool {
	if atomic.LoadInt32(&p.stopped) == 1 {
		atomic.AddInt64(&p.totalDropped, 1)
		return false
	}

	shard := p.shardForItem(job.ItemID)
	atomic.AddInt64(&p.totalDispatched, 1)

	sent := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		select {
		case p.workers[shard].jobQueue <- job:
			return true
		default:
			return false
		}
	}()

	if sent {
		return true
	}

	atomic.AddInt64(&p.totalDropped, 1)
	logrus.Warnf("[PUBLISH_POOL] Worker %d queue full (or pool stopped), dropping job for item %s", shard, job.ItemID)
	return false
}

// Dispatch enqueues a job, silently dropping it on backpressure.
func (p *PublishPool) Dispatch(job Job) {
	_ = p.TryDispatch(job)
}

// Stop drains and stops all workers.
func (p *PublishPool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		logrus.Info("[PUBLISH_POOL] Stopping workers...")

		for _, w := range p.workers {
			w.cancel()
			close(w.jobQueue)
		}
		p.wg.Wait()

		logrus.Info("[PUBLISH_POOL] All workers stopped")
	})
}

func (p *PublishPool) shardForItem(itemID string) int {
	h := fnv.New32a()
	h.Write([]byte(itemID))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *PublishPool) GetStats() PoolStats {
	workerStats := make([]WorkerStats, len(p.workers))
	activeWorkers := 0

	for i, w := range p.workers {
		isProcessing := atomic.LoadInt32(&w.isProcessing) == 1
		if isProcessing {
			activeWorkers++
		}
		workerStats[i] = WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.jobQueue),
			IsProcessing:  isProcessing,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		}
	}

	return PoolStats{
		NumWorkers:      p.numWorkers,
		QueueSize:       p.queueSize,
		ActiveWorkers:   activeWorkers,
		TotalDispatched: atomic.LoadInt64(&p.totalDispatched),
		TotalProcessed:  atomic.LoadInt64(&p.totalProcessed),
		TotalDropped:    atomic.LoadInt64(&p.totalDropped),
		TotalErrors:     atomic.LoadInt64(&p.totalErrors),
		UptimeSeconds:   time.Since(p.startTime).Seconds(),
		WorkerStats:     workerStats,
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	logrus.Debugf("[PUBLISH_POOL] Worker %d started", w.id)

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				logrus.Debugf("[PUBLISH_POOL] Worker %d shutting down", w.id)
				return
			}
			w.process(job)

		case <-w.ctx.Done():
			logrus.Debugf("[PUBLISH_POOL] Worker %d context cancelled, draining queue...", w.id)
			w.drainQueue()
			return
		}
	}
}

// process runs one job, recovering from handler panics so a bad publish
// never takes a worker down.
func (w *worker) process(job Job) {
	if w.pool.OnJobStart != nil {
		w.pool.OnJobStart(w.id, job.ItemID)
	}
	atomic.StoreInt32(&w.isProcessing, 1)

	var err error
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&w.pool.totalErrors, 1)
			logrus.Errorf("[PUBLISH_POOL] Worker %d panic for item %s: %v", w.id, job.ItemID, r)
		}
		if w.pool.OnJobEnd != nil {
			w.pool.OnJobEnd(w.id, job.ItemID, err)
		}
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.jobsProcessed, 1)
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}()

	err = job.Handler(w.ctx)
	if err != nil {
		atomic.AddInt64(&w.pool.totalErrors, 1)
		logrus.WithError(err).Errorf("[PUBLISH_POOL] Worker %d job failed for item %s", w.id, job.ItemID)
	}
}

// drainQueue finishes already-enqueued jobs after cancellation so
// claimed items are not abandoned mid-flight.
func (w *worker) drainQueue() {
	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}
			w.process(job)
		default:
			return
		}
	}
}
