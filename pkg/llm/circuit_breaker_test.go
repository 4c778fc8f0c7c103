package llm

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, resetAfter time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("classifier", CircuitBreakerConfig{Threshold: threshold, ResetAfter: resetAfter})
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb, _ := newTestBreaker(5, 30*time.Second)

	if cb.State() != CircuitClosed {
		t.Errorf("expected initial state to be CircuitClosed, got %v", cb.State())
	}
	if cb.ConsecutiveFailures() != 0 {
		t.Errorf("expected initial consecutive failures to be 0, got %d", cb.ConsecutiveFailures())
	}

	allowed, err := cb.Allow()
	if !allowed || err != nil {
		t.Errorf("expected closed circuit to allow, got allowed=%v err=%v", allowed, err)
	}
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, 30*time.Second)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected circuit to stay closed below threshold, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("expected CircuitOpen after 3 failures, got %v", cb.State())
	}

	allowed, err := cb.Allow()
	if allowed {
		t.Error("expected Allow() to return false for open circuit")
	}
	if err == nil {
		t.Fatal("expected error for open circuit")
	}
	if !strings.Contains(err.Error(), "circuit breaker open") || !strings.Contains(err.Error(), "classifier") {
		t.Errorf("expected error to name the open circuit and service, got: %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, 30*time.Second)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != CircuitClosed {
		t.Errorf("expected CircuitClosed, got %v", cb.State())
	}
	if cb.ConsecutiveFailures() != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", cb.ConsecutiveFailures())
	}
}

func TestCircuitBreaker_HalfOpenAfterReset(t *testing.T) {
	cb, clock := newTestBreaker(1, 30*time.Second)

	cb.RecordFailure()
	clock.advance(29 * time.Second)
	if allowed, _ := cb.Allow(); allowed {
		t.Fatal("expected circuit to stay open before reset elapses")
	}

	clock.advance(2 * time.Second)
	allowed, err := cb.Allow()
	if !allowed || err != nil {
		t.Fatalf("expected probe to be allowed after reset, got allowed=%v err=%v", allowed, err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected CircuitHalfOpen, got %v", cb.State())
	}

	// Only one probe at a time.
	if allowed, err := cb.Allow(); allowed || err == nil {
		t.Errorf("expected second call during half-open to be rejected")
	}
}

func TestCircuitBreaker_HalfOpenProbeOutcome(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		cb, clock := newTestBreaker(1, time.Second)
		cb.RecordFailure()
		clock.advance(2 * time.Second)
		_, _ = cb.Allow()

		cb.RecordSuccess()
		if cb.State() != CircuitClosed {
			t.Errorf("expected CircuitClosed, got %v", cb.State())
		}
	})

	t.Run("failure reopens", func(t *testing.T) {
		cb, clock := newTestBreaker(5, time.Second)
		for i := 0; i < 5; i++ {
			cb.RecordFailure()
		}
		clock.advance(2 * time.Second)
		_, _ = cb.Allow()

		cb.RecordFailure()
		if cb.State() != CircuitOpen {
			t.Errorf("expected CircuitOpen, got %v", cb.State())
		}
	})
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Hour)
	cb.RecordFailure()
	cb.Reset()

	if cb.State() != CircuitClosed || cb.ConsecutiveFailures() != 0 {
		t.Errorf("expected reset breaker, got state=%v fails=%d", cb.State(), cb.ConsecutiveFailures())
	}
}

func TestCircuitBreaker_DefaultThreshold(t *testing.T) {
	cb := NewCircuitBreaker("classifier", CircuitBreakerConfig{})
	if cb.threshold != DefaultCircuitBreakerConfig().Threshold {
		t.Errorf("expected default threshold, got %d", cb.threshold)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", state, got, want)
		}
	}
}
