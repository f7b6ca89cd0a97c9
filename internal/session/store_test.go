package session

import (
	"strings"
	"testing"
	"time"

	"jobpilot/internal/types"
)

func testRequest() types.AnalysisRequest {
	return types.AnalysisRequest{
		JobDescription: strings.Repeat("engineer ", 10),
		ResumeText:     strings.Repeat("experience ", 12),
	}
}

func TestNewSession(t *testing.T) {
	s := New(testRequest())

	if !strings.HasPrefix(s.ID, "analysis_") {
		t.Errorf("expected analysis_ id prefix, got %q", s.ID)
	}
	if s.Status != StatusPending {
		t.Errorf("expected pending status, got %q", s.Status)
	}
	if len(s.Steps) != StepCount {
		t.Fatalf("expected %d steps, got %d", StepCount, len(s.Steps))
	}

	wantNames := []string{
		"Job Description Analysis",
		"Company Research",
		"Resume Parsing",
		"Skills Gap Analysis",
		"Resume Enhancement",
		"Cover Letter Generation",
		"Final Review & Formatting",
	}
	for i, step := range s.Steps {
		if step.StepNumber != i+1 {
			t.Errorf("step %d: wrong number %d", i, step.StepNumber)
		}
		if step.Name != wantNames[i] {
			t.Errorf("step %d: name %q, want %q", i+1, step.Name, wantNames[i])
		}
		if step.Status != StepPending {
			t.Errorf("step %d: status %q, want pending", i+1, step.Status)
		}
	}
}

func TestStepWeightsSumTo100(t *testing.T) {
	total := 0
	for _, def := range Steps {
		total += def.Weight
	}
	if total != 100 {
		t.Errorf("step weights sum to %d, want 100", total)
	}
}

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		name       string
		completed  []int
		started    int
		startedPct int
		startedAs  StepStatus
		want       int
	}{
		{name: "nothing started", want: 0},
		{name: "phase 1 done", completed: []int{1, 3}, want: 28},
		{name: "phases 1 and 2 done", completed: []int{1, 2, 3, 4}, want: 57},
		{name: "step 5 halfway", completed: []int{1, 2, 3, 4}, started: 5, startedPct: 50, startedAs: StepProcessing, want: 64},
		{name: "failed step keeps partial progress", completed: []int{1, 3}, started: 2, startedPct: 50, startedAs: StepFailed, want: 35},
		{name: "cancelled step keeps partial progress", completed: []int{1, 2, 3, 4}, started: 5, startedPct: 30, startedAs: StepCancelled, want: 61},
		{name: "all done", completed: []int{1, 2, 3, 4, 5, 6, 7}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testRequest())
			for _, n := range tt.completed {
				s.Step(n).Status = StepCompleted
				s.Step(n).ProgressPercentage = 100
			}
			if tt.started > 0 {
				s.Step(tt.started).Status = tt.startedAs
				s.Step(tt.started).ProgressPercentage = tt.startedPct
			}
			if got := s.OverallProgress(); got != tt.want {
				t.Errorf("OverallProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCloneIsolation(t *testing.T) {
	s := New(testRequest())
	now := time.Now()
	s.Step(1).Status = StepProcessing
	s.Step(1).StartedAt = &now

	clone := s.Clone()
	clone.Step(1).Status = StepCompleted
	*clone.Step(1).StartedAt = now.Add(time.Hour)
	clone.Status = StatusFailed

	if s.Step(1).Status != StepProcessing {
		t.Error("mutating clone step leaked into original")
	}
	if !s.Step(1).StartedAt.Equal(now) {
		t.Error("mutating clone timestamp leaked into original")
	}
	if s.Status != StatusPending {
		t.Error("mutating clone status leaked into original")
	}
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	s := New(testRequest())
	if err := store.Create(s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	snap, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	snap.Status = StatusFailed
	snap.Step(1).Status = StepFailed

	fresh, err := store.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fresh.Status != StatusPending || fresh.Step(1).Status != StepPending {
		t.Error("mutating a snapshot changed stored state")
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get("analysis_missing"); err == nil {
		t.Error("expected error for unknown session id")
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewMemoryStore()
	s := New(testRequest())
	if err := store.Create(s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before, _ := store.Get(s.ID)

	err := store.Update(s.ID, func(cur *Session) error {
		cur.Status = StatusProcessing
		cur.Step(1).Status = StepProcessing
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	after, _ := store.Get(s.ID)
	if after.Status != StatusProcessing {
		t.Errorf("status not updated, got %q", after.Status)
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		t.Error("UpdatedAt moved backwards")
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store := NewMemoryStore()
	s := New(testRequest())
	if err := store.Create(s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(s.ID); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if err := store.Delete(s.ID); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d sessions", store.Len())
	}
}

func TestDeleteOlderThanKeepsActive(t *testing.T) {
	store := NewMemoryStore()

	done := New(testRequest())
	if err := store.Create(done); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(done.ID, func(s *Session) error {
		s.Status = StatusCompleted
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	active := New(testRequest())
	if err := store.Create(active); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(active.ID, func(s *Session) error {
		s.Status = StatusProcessing
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	removed := store.DeleteOlderThan(0)
	if removed != 1 {
		t.Errorf("removed %d sessions, want 1", removed)
	}
	if _, err := store.Get(active.ID); err != nil {
		t.Error("active session was expired")
	}
	if _, err := store.Get(done.ID); err == nil {
		t.Error("terminal session survived expiry")
	}
}

func TestCountByStatus(t *testing.T) {
	store := NewMemoryStore()
	for range 3 {
		s := New(testRequest())
		if err := store.Create(s); err != nil {
			t.Fatal(err)
		}
		if err := store.Update(s.ID, func(cur *Session) error {
			cur.Status = StatusProcessing
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if got := store.CountByStatus(StatusProcessing); got != 3 {
		t.Errorf("CountByStatus(processing) = %d, want 3", got)
	}
	if got := store.CountByStatus(StatusCompleted); got != 0 {
		t.Errorf("CountByStatus(completed) = %d, want 0", got)
	}
}

func BenchmarkStoreGet(b *testing.B) {
	store := NewMemoryStore()
	s := New(testRequest())
	if err := store.Create(s); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := store.Get(s.ID); err != nil {
			b.Fatal(err)
		}
	}
}
