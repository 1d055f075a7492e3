package executors

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TaskState represents the current state of a task.
type TaskState int32

const (
	StatePending   TaskState = iota // Waiting for its readiness gates
	StateRunning                    // Body currently executing
	StateCompleted                  // Finished successfully
	StateFailed                     // Body returned or panicked with an error
	StateCanceled                   // Canceled before execution began
)

// String returns a human-readable state name.
func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}

// Task is a unit of scheduled work. It may only execute once all of its
// dependencies are finished, at least one of its triggers is finished (an
// empty trigger set is trivially satisfied), and the wall clock has passed
// its time trigger.
//
// State advances monotonically: Pending moves to Running or Canceled, Running
// moves to Completed or Failed, and the three terminal states are absorbing.
// Edges must not be added after the task has been submitted to an executor.
type Task struct {
	id  string
	run func() error

	state atomic.Int32

	mu           sync.Mutex
	dependencies []*Task
	triggers     []*Task
	timeTrigger  time.Time
	err          error

	done chan struct{}
}

// NewTask creates a pending task around the given body. A nil body completes
// immediately when executed.
func NewTask(run func() error) *Task {
	return &Task{
		id:   uuid.NewString(),
		run:  run,
		done: make(chan struct{}),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// AddDependency records that t may not execute until dep is finished.
// Any terminal state of dep (completed, failed, or canceled) satisfies the
// edge. Must be called before t is submitted.
func (t *Task) AddDependency(dep *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dependencies = append(t.dependencies, dep)
}

// AddTrigger records that t may not execute until at least one of its
// triggers is finished. Must be called before t is submitted.
func (t *Task) AddTrigger(trigger *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.triggers = append(t.triggers, trigger)
}

// SetTimeTrigger sets the wall-clock lower bound on execution. It is a lower
// bound only: the task is not canceled if the deadline passes before a worker
// reaches it. Must be called before t is submitted.
func (t *Task) SetTimeTrigger(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeTrigger = at
}

// State returns the current task state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// IsPending reports whether the task has not yet started or been canceled.
func (t *Task) IsPending() bool { return t.State() == StatePending }

// IsRunning reports whether the body is currently executing.
func (t *Task) IsRunning() bool { return t.State() == StateRunning }

// IsCompleted reports whether the body finished successfully.
func (t *Task) IsCompleted() bool { return t.State() == StateCompleted }

// IsFailed reports whether the body returned or panicked with an error.
func (t *Task) IsFailed() bool { return t.State() == StateFailed }

// IsCanceled reports whether the task was canceled before execution.
func (t *Task) IsCanceled() bool { return t.State() == StateCanceled }

// IsFinished reports whether the task is in any terminal state.
func (t *Task) IsFinished() bool {
	s := t.State()
	return s != StatePending && s != StateRunning
}

// GetError returns the captured body error. It is non-nil iff the task
// failed; canceled tasks carry no error.
func (t *Task) GetError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// TryExecute evaluates the readiness gates and, if they are all open, runs
// the body. It is the only path from Pending to Running. If any gate is
// closed it returns without changing state; callers re-enqueue and retry.
// A concurrent Cancel and TryExecute race through a compare-and-set on the
// state, so at most one of the two takes effect.
func (t *Task) TryExecute() {
	t.mu.Lock()
	ready := t.readyLocked(time.Now())
	t.mu.Unlock()
	if !ready {
		return
	}

	if !t.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		return
	}

	err := t.invoke()

	t.mu.Lock()
	if err != nil {
		t.err = err
		t.state.Store(int32(StateFailed))
	} else {
		t.state.Store(int32(StateCompleted))
	}
	t.mu.Unlock()

	close(t.done)
}

// readyLocked checks all three readiness gates. Caller holds t.mu.
func (t *Task) readyLocked(now time.Time) bool {
	for _, dep := range t.dependencies {
		if !dep.IsFinished() {
			return false
		}
	}

	if len(t.triggers) > 0 {
		fired := false
		for _, trigger := range t.triggers {
			if trigger.IsFinished() {
				fired = true
				break
			}
		}
		if !fired {
			return false
		}
	}

	if !t.timeTrigger.IsZero() && now.Before(t.timeTrigger) {
		return false
	}

	return true
}

// invoke runs the body, converting a panic into an error.
func (t *Task) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task body panicked: %v", r)
		}
	}()

	if t.run == nil {
		return nil
	}
	return t.run()
}

// Cancel moves a pending task to Canceled and wakes its waiters. The body
// will never be invoked. Canceling a running or finished task is a no-op:
// once a body starts it always runs to its own termination.
func (t *Task) Cancel() {
	if t.state.CompareAndSwap(int32(StatePending), int32(StateCanceled)) {
		close(t.done)
	}
}

// Wait blocks the caller until the task reaches a terminal state. Upon
// return the captured error (and, for futures, the result) is visible.
func (t *Task) Wait() {
	<-t.done
}

// Done returns a channel that is closed when the task reaches a terminal
// state, for use in select statements.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// edgeSnapshot copies the current edge collections.
func (t *Task) edgeSnapshot() (dependencies, triggers []*Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dependencies = append([]*Task(nil), t.dependencies...)
	triggers = append([]*Task(nil), t.triggers...)
	return dependencies, triggers
}
