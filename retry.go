package executors

import (
	"context"

	"github.com/thenromanov/Executors/resilience"
)

// InvokeRetry submits a future whose body runs fn under the executor's retry
// policy, guarded by the named circuit breaker from the executor's registry.
// Futures sharing a name share a breaker, so a resource that keeps failing
// trips the circuit for all of them instead of being retried from every
// future independently.
func InvokeRetry[T any](e *Executor, name string, fn func() (T, error)) *Future[T] {
	cb := e.breakers.Get(name)
	policy := e.cfg.Retry
	return Invoke(e, func() (T, error) {
		return resilience.Do(context.Background(), cb, policy, fn)
	})
}
