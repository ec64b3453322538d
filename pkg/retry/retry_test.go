package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(retries int) *Config {
	return &Config{
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestNew_WithZeroValues(t *testing.T) {
	r := New(&Config{})

	if r.config.InitialInterval != 500*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 500ms (default)", r.config.InitialInterval)
	}
	if r.config.MaxInterval != 10*time.Second {
		t.Errorf("MaxInterval = %v, want 10s (default)", r.config.MaxInterval)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0 (default)", r.config.Multiplier)
	}
}

func TestRetrier_Do_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	var callbacks []int

	result := New(fastConfig(3)).DoWithCallback(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("smtp timeout")
		}
		return nil
	}, func(attempt int, err error, _ time.Duration) {
		callbacks = append(callbacks, attempt)
	})

	if result.Err != nil {
		t.Fatalf("Err = %v, want nil", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if len(callbacks) != 2 {
		t.Errorf("callbacks = %v, want 2 entries", callbacks)
	}
}

func TestRetrier_Do_Exhausted(t *testing.T) {
	cause := errors.New("connection refused")

	result := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		return cause
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if result.LastError != cause {
		t.Errorf("LastError = %v, want %v", result.LastError, cause)
	}
}

func TestRetrier_Do_PermanentStopsImmediately(t *testing.T) {
	cause := errors.New("mailbox unavailable")
	attempts := 0

	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		attempts++
		return Permanent(cause)
	})

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if result.Err != cause {
		t.Errorf("Err = %v, want %v", result.Err, cause)
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, fastConfig(3), func(ctx context.Context) error {
		t.Fatal("operation must not run on a canceled context")
		return nil
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
}

func TestRetrier_Interval_Capped(t *testing.T) {
	r := New(&Config{InitialInterval: time.Second, MaxInterval: 3 * time.Second, Multiplier: 2})

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for attempt, w := range want {
		if got := r.interval(attempt); got != w {
			t.Errorf("interval(%d) = %v, want %v", attempt, got, w)
		}
	}
}
