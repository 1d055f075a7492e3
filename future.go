package executors

// Future is a task whose body computes a typed value. The result is stored
// before the task transitions to Completed, so any waiter that observes the
// terminal state also observes the result.
type Future[T any] struct {
	*Task

	fn     func() (T, error)
	result T
}

// NewFuture creates a pending future around the given producer function.
// The future is not submitted; use the executor combinators for that.
func NewFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{fn: fn}
	f.Task = NewTask(func() error {
		value, err := f.fn()
		if err != nil {
			return err
		}
		f.result = value
		return nil
	})
	return f
}

// Get blocks until the future is finished and returns its result. If the
// body failed, the captured error is returned. If the task was canceled
// before running, ErrTaskCanceled is returned.
func (f *Future[T]) Get() (T, error) {
	f.Wait()

	var zero T
	switch {
	case f.IsFailed():
		return zero, f.GetError()
	case f.IsCanceled():
		return zero, ErrTaskCanceled
	}
	return f.result, nil
}
