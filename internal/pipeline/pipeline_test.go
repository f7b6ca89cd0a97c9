package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/session"
	"jobpilot/internal/types"
)

var testLogger = errors.NewLogger(slog.LevelError)

// fakeAI satisfies the AI interface with canned outputs. Steps can be gated
// on a channel or forced to fail.
type fakeAI struct {
	mu              sync.Mutex
	gates           map[int]chan struct{}
	errs            map[int]error
	delay           time.Duration
	analysisTimeout time.Duration
}

func newFakeAI() *fakeAI {
	return &fakeAI{
		gates: make(map[int]chan struct{}),
		errs:  make(map[int]error),
	}
}

// gate blocks the step until release is called for it
func (f *fakeAI) gate(step int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[step] = make(chan struct{})
}

func (f *fakeAI) release(step int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.gates[step]; ok {
		close(ch)
		delete(f.gates, step)
	}
}

func (f *fakeAI) failStep(step int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[step] = err
}

func (f *fakeAI) step(ctx context.Context, number int) (*ai.TokenUsage, error) {
	f.mu.Lock()
	ch := f.gates[number]
	err := f.errs[number]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &ai.TokenUsage{InputTokens: 60, OutputTokens: 40, TotalTokens: 100}, nil
}

func (f *fakeAI) AnalyzeJob(ctx context.Context, input types.AnalyzeJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 1)
	if err != nil {
		return types.JobAnalysis{}, nil, err
	}
	return types.JobAnalysis{JobTitle: "Backend Engineer", CompanyName: "Acme", RequiredSkills: []string{"Go"}}, usage, nil
}

func (f *fakeAI) ResearchCompany(ctx context.Context, input types.ResearchCompanyInput) (types.CompanyResearch, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 2)
	if err != nil {
		return types.CompanyResearch{}, nil, err
	}
	return types.CompanyResearch{CompanyName: input.CompanyName, Industry: "Software"}, usage, nil
}

func (f *fakeAI) ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 3)
	if err != nil {
		return types.ParsedResume{}, nil, err
	}
	return types.ParsedResume{Contact: types.ContactInfo{Name: "John Doe"}, Skills: []string{"Go", "React"}}, usage, nil
}

func (f *fakeAI) AnalyzeSkillsGap(ctx context.Context, input types.AnalyzeSkillsGapInput) (types.SkillsGapAnalysis, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 4)
	if err != nil {
		return types.SkillsGapAnalysis{}, nil, err
	}
	return types.SkillsGapAnalysis{MatchingSkills: []string{"Go"}, MatchScore: 80}, usage, nil
}

func (f *fakeAI) EnhanceResume(ctx context.Context, input types.EnhanceResumeInput) (types.ResumeEnhancement, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 5)
	if err != nil {
		return types.ResumeEnhancement{}, nil, err
	}
	return types.ResumeEnhancement{SummaryRewrite: "Seasoned backend engineer"}, usage, nil
}

func (f *fakeAI) GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 6)
	if err != nil {
		return types.CoverLetter{}, nil, err
	}
	return types.CoverLetter{Content: "Dear hiring team", WordCount: 3}, usage, nil
}

func (f *fakeAI) ReviewApplication(ctx context.Context, input types.ReviewApplicationInput) (types.FinalReview, *ai.TokenUsage, error) {
	usage, err := f.step(ctx, 7)
	if err != nil {
		return types.FinalReview{}, nil, err
	}
	return types.FinalReview{Summary: "Strong fit", ApplicationStrength: "strong", JobMatchScore: 82}, usage, nil
}

func (f *fakeAI) AnalysisTimeout() time.Duration {
	if f.analysisTimeout > 0 {
		return f.analysisTimeout
	}
	return 5 * time.Second
}
func (f *fakeAI) ResearchTimeout() time.Duration   { return 5 * time.Second }
func (f *fakeAI) GenerationTimeout() time.Duration { return 5 * time.Second }
func (f *fakeAI) GenerationModel() string          { return "fake-model" }

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		SessionTTL:          time.Hour,
		CleanupInterval:     time.Minute,
		BusyThreshold:       10,
		OverloadedThreshold: 20,
	}
}

func newTestOrchestrator(fake *fakeAI) (*Orchestrator, session.Store) {
	store := session.NewMemoryStore()
	return NewOrchestrator(store, fake, testPipelineConfig(), testLogger, nil), store
}

func validRequest() types.AnalysisRequest {
	return types.AnalysisRequest{
		JobDescription: strings.Repeat("Senior Go engineer wanted. ", 4),
		ResumeText:     strings.Repeat("John Doe, backend engineer with five years of Go and React. ", 3),
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func getProgress(t *testing.T, o *Orchestrator, id string) *Progress {
	t.Helper()
	p, err := o.GetProgress(id)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	return p
}

func TestStartRejectsInvalidRequests(t *testing.T) {
	o, store := newTestOrchestrator(newFakeAI())

	tests := []struct {
		name   string
		mutate func(*types.AnalysisRequest)
	}{
		{"short job description", func(r *types.AnalysisRequest) { r.JobDescription = "too short" }},
		{"oversized job description", func(r *types.AnalysisRequest) { r.JobDescription = strings.Repeat("x", 50001) }},
		{"blank resume", func(r *types.AnalysisRequest) { r.ResumeText = "   \n  " }},
		{"too many focus areas", func(r *types.AnalysisRequest) {
			r.Preferences.FocusAreas = []string{"a", "b", "c", "d", "e", "f"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := o.Start(context.Background(), req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.IsType(err, errors.ErrorTypeValidation) {
				t.Errorf("expected validation error type, got %v", err)
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("no session should exist after validation failures, store has %d", store.Len())
	}
}

func TestStartSnapshotAndEarlyProgress(t *testing.T) {
	fake := newFakeAI()
	fake.gate(1)
	fake.gate(3)
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(s.ID, "analysis_") {
		t.Errorf("session id should carry the analysis_ prefix, got %q", s.ID)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Steps[0].Status == session.StepProcessing
	})

	p := getProgress(t, o, s.ID)
	if p.Status != session.StatusProcessing {
		t.Errorf("expected processing status, got %s", p.Status)
	}
	for _, n := range []int{2, 4, 5, 6, 7} {
		if got := p.Steps[n-1].Status; got != session.StepPending {
			t.Errorf("step %d should be pending, got %s", n, got)
		}
	}

	fake.release(1)
	fake.release(3)
	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusCompleted
	})
}

func TestPhaseBarriersAndOverallProgress(t *testing.T) {
	fake := newFakeAI()
	fake.gate(5)
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Steps[4].Status == session.StepProcessing
	})

	p := getProgress(t, o, s.ID)
	for _, n := range []int{1, 2, 3, 4} {
		if got := p.Steps[n-1].Status; got != session.StepCompleted {
			t.Errorf("step %d should be completed before step 5 starts, got %s", n, got)
		}
	}
	if p.OverallProgress < 57 {
		t.Errorf("overall progress should be at least 57 after both phases, got %d", p.OverallProgress)
	}
	if p.CurrentStep.StepNumber != 5 {
		t.Errorf("current step should be 5, got %d", p.CurrentStep.StepNumber)
	}

	fake.release(5)
	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusCompleted
	})
}

func TestFullRunProducesResults(t *testing.T) {
	fake := newFakeAI()
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusCompleted
	})

	p := getProgress(t, o, s.ID)
	if p.OverallProgress != 100 {
		t.Errorf("expected overall progress 100, got %d", p.OverallProgress)
	}
	for _, step := range p.Steps {
		if step.Status != session.StepCompleted || step.ProgressPercentage != 100 {
			t.Errorf("step %d should be completed at 100%%, got %s at %d", step.StepNumber, step.Status, step.ProgressPercentage)
		}
	}

	result, err := o.GetResults(s.ID)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if !result.Metadata.CompletedAt.After(s.CreatedAt) {
		t.Error("result completion time should be after session creation")
	}
	if result.Metadata.Model != "fake-model" {
		t.Errorf("expected model 'fake-model', got %q", result.Metadata.Model)
	}
	if result.Metadata.TotalTokens != 700 {
		t.Errorf("expected 700 total tokens across seven steps, got %d", result.Metadata.TotalTokens)
	}
	if result.JobAnalysis == nil || result.FinalReview == nil || result.CoverLetter == nil {
		t.Error("all step outputs should be present in the result")
	}
	if result.CompanyResearch.CompanyName != "Acme" {
		t.Errorf("company research should use the analyzed company name, got %q", result.CompanyResearch.CompanyName)
	}
}

func TestResultsNotReady(t *testing.T) {
	fake := newFakeAI()
	fake.gate(1)
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = o.GetResults(s.ID)
	if !errors.IsType(err, errors.ErrorTypeNotReady) {
		t.Errorf("expected not-ready error while processing, got %v", err)
	}

	_, err = o.GetResults("analysis_unknown")
	if !errors.IsType(err, errors.ErrorTypeNotFound) {
		t.Errorf("expected not-found error for unknown id, got %v", err)
	}

	fake.release(1)
}

func TestStepFailureTerminatesRun(t *testing.T) {
	fake := newFakeAI()
	fake.failStep(3, errors.NewUpstreamError(errors.ErrCodeUpstreamTimeout, "model call timed out", context.DeadlineExceeded))
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusFailed
	})

	p := getProgress(t, o, s.ID)
	if !strings.Contains(p.ErrorMessage, "Resume Parsing") {
		t.Errorf("error message should name the failed step, got %q", p.ErrorMessage)
	}
	if !strings.Contains(p.ErrorMessage, "upstream timeout") {
		t.Errorf("error message should name the failure category, got %q", p.ErrorMessage)
	}
	if got := p.Steps[2].Status; got != session.StepFailed {
		t.Errorf("step 3 should be failed, got %s", got)
	}
	for _, n := range []int{4, 5, 6, 7} {
		got := p.Steps[n-1].Status
		if got != session.StepPending && got != session.StepCancelled {
			t.Errorf("step %d should be pending or cancelled after failure, got %s", n, got)
		}
	}
}

func TestFailedRunResultsCarryStoredError(t *testing.T) {
	fake := newFakeAI()
	fake.failStep(3, errors.NewUpstreamError(errors.ErrCodeUpstreamTimeout, "model call timed out", context.DeadlineExceeded))
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusFailed
	})

	_, err = o.GetResults(s.ID)
	if err == nil {
		t.Fatal("expected an error for a failed session")
	}
	if errors.IsType(err, errors.ErrorTypeNotReady) {
		t.Errorf("failed session must not be reported as still processing, got %v", err)
	}
	if !errors.IsType(err, errors.ErrorTypeProcessing) {
		t.Errorf("expected processing error type, got %v", err)
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeStepFailed {
		t.Errorf("expected code %q, got %q", errors.ErrCodeStepFailed, appErr.Code)
	}
	if !strings.Contains(appErr.Message, "Resume Parsing") || !strings.Contains(appErr.Message, "upstream timeout") {
		t.Errorf("expected message to carry the stored failure, got %q", appErr.Message)
	}
}

func TestStepTimeoutFailsRun(t *testing.T) {
	fake := newFakeAI()
	fake.analysisTimeout = 25 * time.Millisecond
	fake.delay = time.Second
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusFailed
	})

	p := getProgress(t, o, s.ID)
	if !strings.Contains(p.ErrorMessage, "upstream timeout") {
		t.Errorf("expired step deadline should classify as upstream timeout, got %q", p.ErrorMessage)
	}
}

func TestProgressMonotonicAcrossFailure(t *testing.T) {
	fake := newFakeAI()
	fake.delay = 20 * time.Millisecond
	fake.failStep(4, errors.NewUpstreamError(errors.ErrCodeUpstreamFailed, "model unavailable", nil))
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	last := 0
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p := getProgress(t, o, s.ID)
		if p.OverallProgress < last {
			t.Fatalf("overall progress regressed from %d to %d", last, p.OverallProgress)
		}
		last = p.OverallProgress
		if p.Status == session.StatusFailed {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("run did not fail before deadline")
}

func TestCancelBetweenSteps(t *testing.T) {
	fake := newFakeAI()
	fake.gate(5)
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Steps[4].Status == session.StepProcessing
	})

	if _, err := o.Cancel(s.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	fake.release(5)

	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusCancelled
	})

	p := getProgress(t, o, s.ID)
	for _, n := range []int{6, 7} {
		if got := p.Steps[n-1].Status; got != session.StepCancelled {
			t.Errorf("step %d should be cancelled, got %s", n, got)
		}
	}

	// Cancelling again is a no-op
	after, err := o.Cancel(s.ID)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if after.Status != session.StatusCancelled {
		t.Errorf("status should stay cancelled, got %s", after.Status)
	}
}

func TestCancelCompletedSessionIsNoOp(t *testing.T) {
	fake := newFakeAI()
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool {
		return getProgress(t, o, s.ID).Status == session.StatusCompleted
	})

	after, err := o.Cancel(s.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if after.Status != session.StatusCompleted {
		t.Errorf("cancel must not touch a completed session, got %s", after.Status)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	fake := newFakeAI()
	fake.delay = 10 * time.Millisecond
	o, _ := newTestOrchestrator(fake)

	s, err := o.Start(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	last := 0
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p := getProgress(t, o, s.ID)
		if p.OverallProgress < last {
			t.Fatalf("overall progress regressed from %d to %d", last, p.OverallProgress)
		}
		if p.OverallProgress > 100 {
			t.Fatalf("overall progress exceeded 100: %d", p.OverallProgress)
		}
		last = p.OverallProgress
		if p.Status == session.StatusCompleted {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("run did not complete before deadline")
}

func TestHistoryAndCleanup(t *testing.T) {
	fake := newFakeAI()
	o, store := newTestOrchestrator(fake)

	for range 3 {
		s, err := o.Start(context.Background(), validRequest())
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		waitFor(t, func() bool {
			return getProgress(t, o, s.ID).Status == session.StatusCompleted
		})
	}

	page := o.History(2, 0)
	if page.Total != 3 {
		t.Errorf("expected 3 total sessions, got %d", page.Total)
	}
	if len(page.Sessions) != 2 {
		t.Errorf("expected 2 entries with limit 2, got %d", len(page.Sessions))
	}
	if page.Limit != 2 || page.Offset != 0 {
		t.Errorf("expected limit/offset 2/0 echoed back, got %d/%d", page.Limit, page.Offset)
	}
	for _, e := range page.Sessions {
		if len(e.JobPreview) > jobPreviewLength+3 {
			t.Errorf("job preview too long: %d chars", len(e.JobPreview))
		}
		if e.OverallProgress != 100 {
			t.Errorf("completed entry should report 100%%, got %d", e.OverallProgress)
		}
	}

	rest := o.History(10, 2)
	if len(rest.Sessions) != 1 {
		t.Errorf("expected 1 entry at offset 2, got %d", len(rest.Sessions))
	}

	// Out-of-range paging values are clamped and reported as applied
	clamped := o.History(1000, -5)
	if clamped.Limit != 20 || clamped.Offset != 0 {
		t.Errorf("expected clamped limit/offset 20/0, got %d/%d", clamped.Limit, clamped.Offset)
	}

	if removed := o.Cleanup(0); removed != 3 {
		t.Errorf("expected cleanup to remove 3 sessions, got %d", removed)
	}
	if store.Len() != 0 {
		t.Errorf("store should be empty after cleanup, has %d", store.Len())
	}

	// Idempotent on an empty store
	if removed := o.Cleanup(0); removed != 0 {
		t.Errorf("second cleanup should remove nothing, got %d", removed)
	}
}

func TestHealthThresholds(t *testing.T) {
	store := session.NewMemoryStore()
	cfg := testPipelineConfig()
	cfg.BusyThreshold = 1
	cfg.OverloadedThreshold = 2
	o := NewOrchestrator(store, newFakeAI(), cfg, testLogger, nil)

	if got := o.Health().Status; got != "ok" {
		t.Errorf("empty pipeline should be ok, got %q", got)
	}

	for range 2 {
		s := session.New(validRequest())
		if err := store.Create(s); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := store.Update(s.ID, func(s *session.Session) error {
			s.Status = session.StatusProcessing
			return nil
		}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	load := o.Health()
	if load.Status != "busy" {
		t.Errorf("expected busy with 2 processing sessions, got %q", load.Status)
	}
	if load.Processing != 2 {
		t.Errorf("expected 2 processing, got %d", load.Processing)
	}

	s := session.New(validRequest())
	if err := store.Create(s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Update(s.ID, func(s *session.Session) error {
		s.Status = session.StatusProcessing
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := o.Health().Status; got != "overloaded" {
		t.Errorf("expected overloaded with 3 processing sessions, got %q", got)
	}
}
