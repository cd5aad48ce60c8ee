package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work. Attempt counts prior failures.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

var (
	// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
	ErrQueueFull   = errors.New("queue full")
	// ErrQueueClosed is returned once Stop has been called or before Start.
	ErrQueueClosed = errors.New("queue not accepting jobs")
)

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures a Queue. A negative MaxRetries disables retries,
// zero selects the default of three.
type QueueConfig struct {
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
	Logger       *zap.Logger
}

// Stats is a point-in-time view of a queue's counters.
type Stats struct {
	Depth     int
	Processed uint64
	Failed    uint64
	Retried   uint64
	Dropped   uint64
}

const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

// Queue runs jobs on a fixed pool of goroutines fed by a buffered channel.
// Stop refuses new work and lets the workers finish what is buffered.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.Logger

	jobs  chan Job
	quit  chan struct{}
	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	processed atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
	dropped   atomic.Uint64
}

// NewQueue builds an idle queue; call Start before enqueueing.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	switch {
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
		quit:    make(chan struct{}),
	}
}

// Name returns the queue name used in logs and metrics.
func (q *Queue) Name() string { return q.name }

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	if !q.state.CompareAndSwap(stateIdle, stateRunning) {
		return
	}
	// Handlers keep running through the drain; ctx only bounds them via Stop.
	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers), zap.Int("buffer", q.cfg.BufferSize))
}

// Stop stops intake, waits up to DrainTimeout for buffered jobs, then
// cancels the handlers' context and waits for the workers to return.
func (q *Queue) Stop() {
	if !q.state.CompareAndSwap(stateRunning, stateStopped) {
		return
	}
	q.once.Do(func() { close(q.quit) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(q.cfg.DrainTimeout):
		q.log.Warn("queue drain timed out", zap.Int("pending", len(q.jobs)))
		q.cancel()
		<-done
	}
	q.cancel()

	if left := len(q.jobs); left > 0 {
		q.dropped.Add(uint64(left))
	}
	q.log.Info("queue stopped",
		zap.Uint64("processed", q.processed.Load()),
		zap.Uint64("failed", q.failed.Load()),
		zap.Uint64("dropped", q.dropped.Load()),
	)
}

// Enqueue blocks until the job is buffered or the queue stops.
func (q *Queue) Enqueue(job Job) error {
	if q.state.Load() != stateRunning {
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	stamp(&job)
	select {
	case <-q.quit:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	case q.jobs <- job:
		return nil
	}
}

// TryEnqueue buffers the job only if there is room right now.
func (q *Queue) TryEnqueue(job Job) error {
	if q.state.Load() != stateRunning {
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	stamp(&job)
	select {
	case <-q.quit:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	case q.jobs <- job:
		return nil
	default:
		q.dropped.Add(1)
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Stats reports the buffer depth and lifetime counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Depth:     len(q.jobs),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Retried:   q.retried.Load(),
		Dropped:   q.dropped.Load(),
	}
}

func stamp(job *Job) {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			q.run(job)
		case <-q.quit:
			for {
				select {
				case job := <-q.jobs:
					q.run(job)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) run(job Job) {
	err := q.call(job)
	q.processed.Add(1)
	if err != nil {
		q.handleFailure(job, err)
	}
}

func (q *Queue) call(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) handleFailure(job Job, err error) {
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt >= q.cfg.MaxRetries {
		q.failed.Add(1)
		if q.cfg.MaxRetries == 0 {
			q.log.Warn("job failed", fields...)
		} else {
			q.log.Error("job exceeded retries", fields...)
		}
		return
	}
	job.Attempt++
	q.retried.Add(1)
	q.log.Warn("job failed, retrying", fields...)

	go func(j Job) {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.quit:
			q.dropped.Add(1)
			q.log.Warn("retry dropped at shutdown", zap.String("job_id", j.ID))
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.dropped.Add(1)
				q.log.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
