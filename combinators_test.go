package executors

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var errAggregate = errors.New("input failed")

func TestThenRunsAfterInput(t *testing.T) {
	ex := MakeThreadPoolExecutor(2)
	defer ex.Shutdown()

	a := Invoke(ex, func() (int, error) { return 7, nil })

	var inputFinishedFirst atomic.Bool
	b := Then(ex, a, func() (int, error) {
		inputFinishedFirst.Store(a.IsCompleted())
		return 8, nil
	})

	v, err := b.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != 8 {
		t.Errorf("Get() = %d, want 8", v)
	}
	if !inputFinishedFirst.Load() {
		t.Error("continuation body observed an unfinished input")
	}
}

func TestThenRunsEvenIfInputFailed(t *testing.T) {
	ex := MakeThreadPoolExecutor(2)
	defer ex.Shutdown()

	a := Invoke(ex, func() (int, error) { return 0, errAggregate })
	b := Then(ex, a, func() (string, error) {
		// A dependency edge is satisfied by any terminal state; the
		// continuation decides what to do with the failure.
		if a.IsFailed() {
			return "recovered", nil
		}
		return "unexpected", nil
	})

	v, err := b.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "recovered" {
		t.Errorf("Get() = %q, want %q", v, "recovered")
	}
}

func TestWhenAllCollectsInInputOrder(t *testing.T) {
	ex := MakeThreadPoolExecutor(4)
	defer ex.Shutdown()

	inputs := make([]*Future[int], 5)
	for i := range inputs {
		i := i
		delay := time.Duration(4-i) * 10 * time.Millisecond
		inputs[i] = Invoke(ex, func() (int, error) {
			time.Sleep(delay)
			return i, nil
		})
	}

	all, err := WhenAll(ex, inputs).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(all) != len(inputs) {
		t.Fatalf("len = %d, want %d", len(all), len(inputs))
	}
	for i, v := range all {
		if v != i {
			t.Errorf("all[%d] = %d, want %d", i, v, i)
		}
	}

	for i, in := range inputs {
		if !in.IsCompleted() {
			t.Errorf("input %d state = %v when aggregate ran", i, in.State())
		}
	}
}

func TestWhenAllPropagatesFailure(t *testing.T) {
	ex := MakeThreadPoolExecutor(4)
	defer ex.Shutdown()

	inputs := []*Future[int]{
		Invoke(ex, func() (int, error) { return 1, nil }),
		Invoke(ex, func() (int, error) { return 0, errAggregate }),
		Invoke(ex, func() (int, error) { return 3, nil }),
	}

	agg := WhenAll(ex, inputs)
	agg.Wait()

	if !agg.IsFailed() {
		t.Fatalf("aggregate state = %v, want failed", agg.State())
	}
	if _, err := agg.Get(); !errors.Is(err, errAggregate) {
		t.Errorf("Get() error = %v, want %v", err, errAggregate)
	}
}

func TestWhenAllPropagatesCancellation(t *testing.T) {
	ex := MakeThreadPoolExecutor(2)
	defer ex.Shutdown()

	canceled := NewFuture(func() (int, error) { return 0, nil })
	canceled.Cancel()

	inputs := []*Future[int]{
		Invoke(ex, func() (int, error) { return 1, nil }),
		canceled,
	}

	if _, err := WhenAll(ex, inputs).Get(); !errors.Is(err, ErrTaskCanceled) {
		t.Errorf("Get() error = %v, want ErrTaskCanceled", err)
	}
}

func TestWhenFirstReturnsEarliestFinished(t *testing.T) {
	ex := MakeThreadPoolExecutor(4)
	defer ex.Shutdown()

	slow := Invoke(ex, func() (string, error) {
		time.Sleep(200 * time.Millisecond)
		return "slow", nil
	})
	fast := Invoke(ex, func() (string, error) { return "fast", nil })

	start := time.Now()
	v, err := WhenFirst(ex, []*Future[string]{slow, fast}).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "fast" {
		t.Errorf("Get() = %q, want %q", v, "fast")
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("WhenFirst took %v, should not have waited for the slow input", elapsed)
	}
}

func TestWhenAllBeforeDeadlineReportsFinishedSubset(t *testing.T) {
	ex := MakeThreadPoolExecutor(4)
	defer ex.Shutdown()

	mk := func(v int, delay time.Duration) *Future[int] {
		return Invoke(ex, func() (int, error) {
			time.Sleep(delay)
			return v, nil
		})
	}

	inputs := []*Future[int]{
		mk(1, 20*time.Millisecond),
		mk(2, 60*time.Millisecond),
		mk(3, 2*time.Second),
	}

	all, err := WhenAllBeforeDeadline(ex, inputs, time.Now().Add(250*time.Millisecond)).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(all) != 2 || all[0] != 1 || all[1] != 2 {
		t.Errorf("Get() = %v, want [1 2]", all)
	}
}

func TestWhenAllBeforeDeadlineDoesNotFireEarly(t *testing.T) {
	ex := MakeThreadPoolExecutor(2)
	defer ex.Shutdown()

	deadline := time.Now().Add(100 * time.Millisecond)
	input := Invoke(ex, func() (int, error) { return 1, nil })

	all, err := WhenAllBeforeDeadline(ex, []*Future[int]{input}, deadline).Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if time.Now().Before(deadline) {
		t.Error("deadline future finished before the deadline")
	}
	if len(all) != 1 || all[0] != 1 {
		t.Errorf("Get() = %v, want [1]", all)
	}
}
