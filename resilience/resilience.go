// Package resilience wraps task bodies with bounded retrying and circuit
// breaker protection.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryPolicy bounds how a failing task body is retried. A retried body is
// attempted up to MaxAttempts times (first try included) within the
// wall-clock Budget, sleeping an exponentially growing, jittered delay
// between attempts.
type RetryPolicy struct {
	MaxAttempts int           // Total tries including the first; 0 means bounded by Budget alone
	Budget      time.Duration // Wall-clock cap across all tries and delays
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Ceiling on the delay between attempts
	Growth      float64       // Factor applied to the delay after each attempt
	Jitter      float64       // Randomization factor applied to each delay
}

// DefaultRetryPolicy returns the policy executors use unless configured
// otherwise: a handful of quick tries, never more than a minute in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Budget:      time.Minute,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Growth:      2.0,
		Jitter:      0.3,
	}
}

// delays builds the delay schedule for one Do call.
func (p RetryPolicy) delays() *backoff.ExponentialBackOff {
	sched := backoff.NewExponentialBackOff()
	sched.InitialInterval = p.BaseDelay
	sched.MaxInterval = p.MaxDelay
	sched.MaxElapsedTime = p.Budget
	sched.Multiplier = p.Growth
	sched.RandomizationFactor = p.Jitter
	sched.Reset()
	return sched
}

// BreakerRegistry hands out named circuit breakers, created on first use.
// Retried bodies that share a name share a breaker, so a persistently
// failing resource stops being hammered by every future that touches it.
// A registry built by NewBreakerRegistry opens a breaker after four
// consecutive failures and lets one probe through after twenty seconds.
type BreakerRegistry struct {
	mu       sync.Mutex
	trip     uint32
	cooldown time.Duration
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates an empty registry with default thresholds.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{
		trip:     4,
		cooldown: 20 * time.Second,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the circuit breaker for the given name, creating it if needed.
func (r *BreakerRegistry) Get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(r.settings(name))
	r.breakers[name] = cb
	return cb
}

func (r *BreakerRegistry) settings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // A single probe decides whether the resource recovered
		Timeout:     r.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.trip
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// A canceled caller says nothing about the resource's health
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}
}

// Do attempts op through the circuit breaker until it succeeds, the policy's
// attempt or time budget runs out, the breaker opens, or ctx is canceled.
// The last attempt's error is returned, wrapped with the attempt count when
// the policy gave up.
func Do[T any](ctx context.Context, cb *gobreaker.CircuitBreaker, policy RetryPolicy, op func() (T, error)) (T, error) {
	var zero T
	sched := policy.delays()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			return op()
		})
		if err == nil {
			out, _ := result.(T)
			return out, nil
		}

		// An open circuit rejects every call until its cooldown ends;
		// sleeping and retrying here would only be rejected again
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, err
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return zero, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}
		delay := sched.NextBackOff()
		if delay == backoff.Stop {
			return zero, fmt.Errorf("retry budget exhausted after %d attempts: %w", attempt, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
