package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := WithExponentialBackoff(context.Background(), operation, WithInitialDelay(10*time.Millisecond))
	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("persistent error")
	}

	err := WithExponentialBackoff(context.Background(), operation,
		WithMaxRetries(3),
		WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Error("Expected error after max retries, got nil")
	}
	// MaxRetries counts retries after the first attempt.
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return Fatal(errors.New("fatal error"))
	}

	err := WithExponentialBackoff(context.Background(), operation, WithInitialDelay(10*time.Millisecond))
	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error { return errors.New("error") }, WithInitialDelay(10*time.Millisecond))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got: %v", err)
	}
}

func TestPoll_SucceedsEventually(t *testing.T) {
	t.Parallel()
	attempts := 0
	var notified []int

	err := Poll(context.Background(), 5*time.Millisecond, Unlimited, func() error {
		attempts++
		if attempts < 4 {
			return errors.New("not yet")
		}
		return nil
	}, WithNotify(func(attempt int, _ error) {
		notified = append(notified, attempt)
	}))

	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
	if len(notified) != 3 || notified[0] != 1 || notified[2] != 3 {
		t.Errorf("Expected notifications for attempts 1..3, got: %v", notified)
	}
}

func TestPoll_MaxAttempts(t *testing.T) {
	t.Parallel()
	attempts := 0
	sentinel := errors.New("still failing")

	err := Poll(context.Background(), time.Millisecond, 3, func() error {
		attempts++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped sentinel error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestPoll_FixedInterval(t *testing.T) {
	t.Parallel()
	var stamps []time.Time

	_ = Poll(context.Background(), 30*time.Millisecond, 4, func() error {
		stamps = append(stamps, time.Now())
		return errors.New("error")
	})

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		if gap < 25*time.Millisecond || gap > 80*time.Millisecond {
			t.Errorf("Gap %d: expected ~30ms, got %v", i, gap)
		}
	}
}

func TestPoll_UnlimitedStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := Poll(ctx, 10*time.Millisecond, Unlimited, func() error {
		attempts++
		return errors.New("never ready")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got: %v", err)
	}
	if attempts < 2 {
		t.Errorf("Expected several attempts before cancellation, got: %d", attempts)
	}
}

func TestPoll_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := Poll(context.Background(), time.Millisecond, Unlimited, func() error {
		attempts++
		return Fatal(errors.New("auth rejected"))
	})

	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestFatal(t *testing.T) {
	t.Parallel()
	if Fatal(nil) != nil {
		t.Error("Expected nil for nil error")
	}

	sentinel := errors.New("sentinel error")
	wrapped := fmt.Errorf("context: %w", Fatal(sentinel))
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should find sentinel through FatalError")
	}
	if !IsFatal(wrapped) {
		t.Error("IsFatal should detect FatalError through wrapping")
	}
	if IsFatal(errors.New("regular error")) {
		t.Error("Expected non-fatal error")
	}
}
