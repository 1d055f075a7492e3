package executors

import (
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/thenromanov/Executors/events"
	"github.com/thenromanov/Executors/internal/taskqueue"
	"github.com/thenromanov/Executors/resilience"
)

// Config configures an Executor. Zero-value fields take the defaults from
// DefaultConfig.
type Config struct {
	Workers int // Number of worker goroutines (default runtime.NumCPU())

	// Pacing for workers that pop a task whose readiness gates are still
	// closed: the task is re-enqueued and the worker sleeps briefly, with
	// exponential growth between consecutive not-ready pops. Pacing resets
	// whenever the worker executes a task to a terminal state.
	NotReadyInitialDelay time.Duration // default 100µs
	NotReadyMaxDelay     time.Duration // default 5ms

	// Bus receives task lifecycle events. Nil disables publication.
	Bus *events.Bus

	// Retry and Breakers drive InvokeRetry. A nil Breakers gets a fresh
	// registry; a zero Retry gets resilience.DefaultRetryPolicy().
	Retry    resilience.RetryPolicy
	Breakers *resilience.BreakerRegistry
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		Workers:              runtime.NumCPU(),
		NotReadyInitialDelay: 100 * time.Microsecond,
		NotReadyMaxDelay:     5 * time.Millisecond,
		Retry:                resilience.DefaultRetryPolicy(),
	}
}

// Executor owns a fixed-size worker pool fed by a single shared queue.
// Workers repeatedly pop a task, attempt execution, and re-enqueue it when
// its readiness gates are still closed. Workers live until the queue is
// canceled and drained.
type Executor struct {
	cfg      Config
	queue    *taskqueue.Queue[*Task]
	workers  errgroup.Group
	breakers *resilience.BreakerRegistry
}

// NewExecutor creates an executor and starts its workers.
func NewExecutor(cfg Config) *Executor {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.NotReadyInitialDelay <= 0 {
		cfg.NotReadyInitialDelay = def.NotReadyInitialDelay
	}
	if cfg.NotReadyMaxDelay <= 0 {
		cfg.NotReadyMaxDelay = def.NotReadyMaxDelay
	}
	if cfg.Retry == (resilience.RetryPolicy{}) {
		cfg.Retry = def.Retry
	}

	e := &Executor{
		cfg:      cfg,
		queue:    taskqueue.New[*Task](),
		breakers: cfg.Breakers,
	}
	if e.breakers == nil {
		e.breakers = resilience.NewBreakerRegistry()
	}

	for i := 0; i < cfg.Workers; i++ {
		e.workers.Go(e.worker)
	}
	return e
}

// MakeThreadPoolExecutor creates an executor with numThreads workers and
// default configuration.
func MakeThreadPoolExecutor(numThreads int) *Executor {
	cfg := DefaultConfig()
	cfg.Workers = numThreads
	return NewExecutor(cfg)
}

// Submit hands a pending task to the worker pool. If shutdown has started
// the task is canceled instead; the caller observes this through the task's
// state. Non-pending tasks are ignored.
func (e *Executor) Submit(task *Task) {
	if !task.IsPending() {
		return
	}
	if e.queue.IsCanceled() {
		task.Cancel()
		e.publishCanceled(task)
		return
	}
	if !e.queue.Push(task) {
		// Shutdown raced the IsCanceled check above
		task.Cancel()
		e.publishCanceled(task)
		return
	}
	e.publish(events.TopicTask, events.TaskSubmittedEvent{ID: task.ID(), Timestamp: time.Now()})
}

// StartShutdown stops admissions and lets workers drain the queue.
// Already-enqueued tasks whose gates are open may still execute; tasks whose
// gates stay closed are canceled as part of the drain. Idempotent.
func (e *Executor) StartShutdown() {
	if e.queue.IsCanceled() {
		return
	}
	e.queue.Cancel()
	e.publish(events.TopicExecutor, events.ShutdownStartedEvent{Timestamp: time.Now()})
}

// WaitShutdown blocks until every worker has exited. Safe to call more than
// once.
func (e *Executor) WaitShutdown() {
	_ = e.workers.Wait()
}

// Shutdown starts shutdown and waits for the workers to exit.
func (e *Executor) Shutdown() {
	e.StartShutdown()
	e.WaitShutdown()
}

// worker is the loop each pool goroutine runs: pop, attempt, re-enqueue.
func (e *Executor) worker() error {
	pace := backoff.NewExponentialBackOff()
	pace.InitialInterval = e.cfg.NotReadyInitialDelay
	pace.MaxInterval = e.cfg.NotReadyMaxDelay
	pace.MaxElapsedTime = 0
	pace.Reset()

	for {
		task, ok := e.queue.Pop()
		if !ok {
			return nil
		}
		if task.IsCanceled() {
			e.publishCanceled(task)
			continue
		}

		start := time.Now()
		task.TryExecute()

		if !task.IsFinished() {
			if !e.queue.Push(task) {
				// Queue canceled mid-drain: the task can never be
				// rescheduled, so release its waiters
				task.Cancel()
				e.publishCanceled(task)
				continue
			}
			time.Sleep(pace.NextBackOff())
			continue
		}

		pace.Reset()
		elapsed := time.Since(start)
		switch {
		case task.IsCompleted():
			e.publish(events.TopicTask, events.TaskCompletedEvent{
				ID:        task.ID(),
				Duration:  elapsed,
				Timestamp: time.Now(),
			})
		case task.IsFailed():
			e.publish(events.TopicTask, events.TaskFailedEvent{
				ID:        task.ID(),
				Err:       task.GetError(),
				Duration:  elapsed,
				Timestamp: time.Now(),
			})
		case task.IsCanceled():
			// Cancel raced TryExecute and won
			e.publishCanceled(task)
		}
	}
}

func (e *Executor) publish(topic string, event events.Event) {
	if e.cfg.Bus != nil {
		e.cfg.Bus.Publish(topic, event)
	}
}

func (e *Executor) publishCanceled(task *Task) {
	e.publish(events.TopicTask, events.TaskCanceledEvent{ID: task.ID(), Timestamp: time.Now()})
}
