package executors

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thenromanov/Executors/resilience"
)

func fastRetryPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts: 10,
		Budget:      time.Second,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Growth:      1.5,
		Jitter:      0,
	}
}

func TestInvokeRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Retry = fastRetryPolicy()
	ex := NewExecutor(cfg)
	defer ex.Shutdown()

	var attempts atomic.Int32
	f := InvokeRetry(ex, "flaky-source", func() (int, error) {
		if attempts.Add(1) < 3 {
			return 0, errors.New("transient")
		}
		return 7, nil
	})

	v, err := f.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != 7 {
		t.Errorf("Get() = %d, want 7", v)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("operation attempted %d times, want 3", got)
	}
}

func TestInvokeRetryGivesUpAfterMaxAttempts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.Retry = fastRetryPolicy()
	cfg.Retry.MaxAttempts = 3
	ex := NewExecutor(cfg)
	defer ex.Shutdown()

	permanent := errors.New("still broken")
	var attempts atomic.Int32
	f := InvokeRetry(ex, "broken-source", func() (int, error) {
		attempts.Add(1)
		return 0, permanent
	})

	f.Wait()
	if !f.IsFailed() {
		t.Fatalf("state = %v, want failed", f.State())
	}
	if _, err := f.Get(); !errors.Is(err, permanent) {
		t.Errorf("Get() error = %v, want wrapped %v", err, permanent)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("operation attempted %d times, want 3", got)
	}
}
