package executors

import (
	"time"
)

// Combinators construct futures wired to their inputs purely through the
// three readiness primitives (dependencies, triggers, time trigger) and
// submit them. They are package-level functions because Go methods cannot
// introduce type parameters.

// Invoke submits a future wrapping fn with no readiness edges.
func Invoke[T any](e *Executor, fn func() (T, error)) *Future[T] {
	f := NewFuture(fn)
	e.Submit(f.Task)
	return f
}

// Then submits a future wrapping fn that fires after input finishes,
// regardless of the input's outcome. fn is free to capture input and inspect
// input.Get itself.
func Then[U, T any](e *Executor, input *Future[T], fn func() (U, error)) *Future[U] {
	f := NewFuture(fn)
	f.AddDependency(input.Task)
	e.Submit(f.Task)
	return f
}

// WhenAll submits a future that fires once every input is finished and
// collects their results in input order. If any input failed or was
// canceled, the aggregate future fails with the first such error
// encountered while traversing the inputs.
func WhenAll[T any](e *Executor, inputs []*Future[T]) *Future[[]T] {
	all := append([]*Future[T](nil), inputs...)
	f := NewFuture(func() ([]T, error) {
		results := make([]T, 0, len(all))
		for _, in := range all {
			value, err := in.Get()
			if err != nil {
				return nil, err
			}
			results = append(results, value)
		}
		return results, nil
	})
	for _, in := range all {
		f.AddDependency(in.Task)
	}
	e.Submit(f.Task)
	return f
}

// WhenFirst submits a future that fires as soon as any input finishes and
// returns the first finished input's result. inputs must be non-empty.
func WhenFirst[T any](e *Executor, inputs []*Future[T]) *Future[T] {
	all := append([]*Future[T](nil), inputs...)
	f := NewFuture(func() (T, error) {
		for _, in := range all {
			if in.IsFinished() {
				return in.Get()
			}
		}
		return all[0].Get()
	})
	for _, in := range all {
		f.AddTrigger(in.Task)
	}
	e.Submit(f.Task)
	return f
}

// WhenAllBeforeDeadline submits a future gated only by a time trigger at
// deadline. Its body collects results from whichever inputs are finished at
// evaluation time, which happens at the deadline or later depending on
// worker scheduling. Inputs that finish afterwards are not included.
func WhenAllBeforeDeadline[T any](e *Executor, inputs []*Future[T], deadline time.Time) *Future[[]T] {
	all := append([]*Future[T](nil), inputs...)
	f := NewFuture(func() ([]T, error) {
		results := make([]T, 0, len(all))
		for _, in := range all {
			if !in.IsFinished() {
				continue
			}
			value, err := in.Get()
			if err != nil {
				return nil, err
			}
			results = append(results, value)
		}
		return results, nil
	})
	f.SetTimeTrigger(deadline)
	e.Submit(f.Task)
	return f
}
