package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, Delay: 0, Logger: NewLogger(VerbositySilent)}

	calls := 0
	err := r.Do("always-fails", func() error {
		calls++
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, Delay: 0, Logger: NewLogger(VerbositySilent)}

	calls := 0
	err := r.Do("flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryPermanentShortCircuits(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, Delay: 0, Logger: NewLogger(VerbositySilent)}

	calls := 0
	err := r.Do("permanent", func() error {
		calls++
		return fmt.Errorf("%w: gone", ErrPermanent)
	})

	if !errors.Is(err, ErrPermanent) {
		t.Errorf("expected ErrPermanent, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1 (no retry on permanent failure)", calls)
	}
}

func TestRetryClampsAttempts(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 0, Delay: 0, Logger: NewLogger(VerbositySilent)}

	calls := 0
	_ = r.Do("misconfigured", func() error {
		calls++
		return errors.New("boom")
	})

	if calls != 1 {
		t.Errorf("calls: got %d, want 1 (attempt count clamped to 1)", calls)
	}
}
