package ai

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"jobpilot/internal/config"
	apperrors "jobpilot/internal/errors"
)

var testLogger = apperrors.NewLogger(slog.LevelDebug)

func enabledBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          45 * time.Second,
		MinRequests:      2,
		FailureThreshold: 0.6,
	}
}

func TestDisabledBreakerPassesThrough(t *testing.T) {
	b := newBreaker[string]("AI-test", config.CircuitBreakerConfig{Enabled: false}, testLogger)
	if b != nil {
		t.Fatal("disabled breaker should be nil")
	}

	got, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected 'ok', got %q", got)
	}

	stats := b.Stats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("disabled breaker stats should report enabled=false")
	}
	if !b.IsHealthy() {
		t.Error("disabled breaker should report healthy")
	}
}

func TestBreakerTripsOnFailureRatio(t *testing.T) {
	b := newBreaker[int]("AI-test", enabledBreakerConfig(), testLogger)
	if b == nil {
		t.Fatal("enabled breaker should not be nil")
	}

	boom := errors.New("boom")
	for range 3 {
		_, err := b.Execute(func() (int, error) { return 0, boom })
		if errors.Is(err, gobreaker.ErrOpenState) {
			break
		}
	}

	if b.IsHealthy() {
		t.Error("breaker should be open after repeated failures")
	}

	_, err := b.Execute(func() (int, error) { return 42, nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestBreakerStats(t *testing.T) {
	b := newBreaker[int]("AI-analysis", enabledBreakerConfig(), testLogger)

	if _, err := b.Execute(func() (int, error) { return 1, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := b.Stats()
	if name, _ := stats["name"].(string); name != "AI-analysis" {
		t.Errorf("expected breaker name 'AI-analysis', got %q", name)
	}
	if state, _ := stats["state"].(string); state != gobreaker.StateClosed.String() {
		t.Errorf("expected closed state, got %q", state)
	}
	if enabled, _ := stats["enabled"].(bool); !enabled {
		t.Error("enabled breaker stats should report enabled=true")
	}
}
