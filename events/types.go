package events

import (
	"time"
)

// Event is the base interface for all executor events.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask     = "task"
	TopicExecutor = "executor"
)

// Event type constants
const (
	EventTypeTaskSubmitted   = "task.submitted"
	EventTypeTaskCompleted   = "task.completed"
	EventTypeTaskFailed      = "task.failed"
	EventTypeTaskCanceled    = "task.canceled"
	EventTypeShutdownStarted = "executor.shutdown_started"
)

// TaskSubmittedEvent is published when a task is admitted to the queue.
type TaskSubmittedEvent struct {
	ID        string
	Timestamp time.Time
}

func (e TaskSubmittedEvent) EventType() string { return EventTypeTaskSubmitted }
func (e TaskSubmittedEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task's body finishes successfully.
type TaskCompletedEvent struct {
	ID        string
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a task's body returns an error.
type TaskFailedEvent struct {
	ID        string
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// TaskCanceledEvent is published when the executor observes or causes a
// task's cancellation: at submission against a shut-down executor, when a
// worker pops a canceled handle or finds the task canceled after an
// execution attempt, or when a worker cancels a not-ready task that can no
// longer be re-enqueued during shutdown.
type TaskCanceledEvent struct {
	ID        string
	Timestamp time.Time
}

func (e TaskCanceledEvent) EventType() string { return EventTypeTaskCanceled }
func (e TaskCanceledEvent) TaskID() string    { return e.ID }

// ShutdownStartedEvent is published when executor shutdown begins.
type ShutdownStartedEvent struct {
	Timestamp time.Time
}

func (e ShutdownStartedEvent) EventType() string { return EventTypeShutdownStarted }
func (e ShutdownStartedEvent) TaskID() string    { return "" }
