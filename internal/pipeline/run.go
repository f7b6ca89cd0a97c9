package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"jobpilot/internal/ai"
	"jobpilot/internal/errors"
	"jobpilot/internal/session"
	"jobpilot/internal/types"
)

// artifacts accumulates step outputs across the run. Concurrent steps write
// disjoint fields, so no locking is needed.
type artifacts struct {
	job         types.JobAnalysis
	research    types.CompanyResearch
	resume      types.ParsedResume
	gap         types.SkillsGapAnalysis
	enhancement types.ResumeEnhancement
	coverLetter types.CoverLetter
	review      types.FinalReview
	tokens      [session.StepCount]int64
}

func (a *artifacts) totalTokens() int64 {
	var total int64
	for _, t := range a.tokens {
		total += t
	}
	return total
}

// stepError ties a failure to the step it occurred in
type stepError struct {
	number int
	err    error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.number, session.StepName(e.number), e.err)
}

func (e *stepError) Unwrap() error { return e.err }

// run executes the seven-step pipeline for one session. Phase one runs job
// analysis and resume parsing concurrently, phase two company research and
// skills gap analysis, then enhancement, cover letter, and final review run
// in order. Any step failure terminates the run; cancellation is observed
// between phases and steps.
func (o *Orchestrator) run(ctx context.Context, id string) {
	start := time.Now()
	tracer := otel.Tracer("jobpilot.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.run")
	span.SetAttributes(attribute.String("session.id", id))
	defer span.End()

	s, err := o.store.Get(id)
	if err != nil {
		o.logger.LogError(err, "Session vanished before processing", "session_id", id)
		return
	}
	req := s.Request

	if err := o.store.Update(id, func(s *session.Session) error {
		s.Status = session.StatusProcessing
		return nil
	}); err != nil {
		o.logger.LogError(err, "Failed to mark session processing", "session_id", id)
		return
	}

	a := &artifacts{}

	// Phase one: job analysis and resume parsing are independent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.runStep(gctx, id, 1, o.ai.AnalysisTimeout(), a, func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.AnalyzeJob(stepCtx, types.AnalyzeJobInput{
				JobDescription: req.JobDescription,
				JobURL:         req.JobURL,
				CompanyName:    req.CompanyName,
			})
			if err != nil {
				return nil, err
			}
			a.job = out
			return usage, nil
		})
	})
	g.Go(func() error {
		return o.runStep(gctx, id, 3, o.ai.AnalysisTimeout(), a, func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.ParseResume(stepCtx, types.ParseResumeInput{ResumeText: req.ResumeText})
			if err != nil {
				return nil, err
			}
			a.resume = out
			return usage, nil
		})
	})
	if err := g.Wait(); err != nil {
		o.fail(id, err, start)
		return
	}

	if o.cancelledCheckpoint(id, start) {
		return
	}

	// Phase two: company research needs the analyzed company name, skills gap
	// needs both phase one outputs
	companyName := a.job.CompanyName
	if companyName == "" {
		companyName = req.CompanyName
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.runStep(gctx, id, 2, o.ai.ResearchTimeout(), a, func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.ResearchCompany(stepCtx, types.ResearchCompanyInput{
				CompanyName: companyName,
				Job:         &a.job,
			})
			if err != nil {
				return nil, err
			}
			a.research = out
			return usage, nil
		})
	})
	g.Go(func() error {
		return o.runStep(gctx, id, 4, o.ai.AnalysisTimeout(), a, func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.AnalyzeSkillsGap(stepCtx, types.AnalyzeSkillsGapInput{
				Job:    &a.job,
				Resume: &a.resume,
			})
			if err != nil {
				return nil, err
			}
			a.gap = out
			return usage, nil
		})
	})
	if err := g.Wait(); err != nil {
		o.fail(id, err, start)
		return
	}

	// Sequential tail: each step consumes the outputs before it
	sequential := []struct {
		number  int
		timeout time.Duration
		fn      func(context.Context) (*ai.TokenUsage, error)
	}{
		{5, o.ai.GenerationTimeout(), func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.EnhanceResume(stepCtx, types.EnhanceResumeInput{
				Job:         &a.job,
				Resume:      &a.resume,
				Gap:         &a.gap,
				Preferences: req.Preferences,
			})
			if err != nil {
				return nil, err
			}
			a.enhancement = out
			return usage, nil
		}},
		{6, o.ai.GenerationTimeout(), func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.GenerateCoverLetter(stepCtx, types.GenerateCoverLetterInput{
				Job:         &a.job,
				Research:    &a.research,
				Resume:      &a.resume,
				Enhancement: &a.enhancement,
				Preferences: req.Preferences,
			})
			if err != nil {
				return nil, err
			}
			a.coverLetter = out
			return usage, nil
		}},
		{7, o.ai.GenerationTimeout(), func(stepCtx context.Context) (*ai.TokenUsage, error) {
			out, usage, err := o.ai.ReviewApplication(stepCtx, types.ReviewApplicationInput{
				Job:         &a.job,
				Research:    &a.research,
				Resume:      &a.resume,
				Gap:         &a.gap,
				Enhancement: &a.enhancement,
				CoverLetter: &a.coverLetter,
				Preferences: req.Preferences,
			})
			if err != nil {
				return nil, err
			}
			a.review = out
			return usage, nil
		}},
	}

	for _, step := range sequential {
		if o.cancelledCheckpoint(id, start) {
			return
		}
		if err := o.runStep(ctx, id, step.number, step.timeout, a, step.fn); err != nil {
			o.fail(id, err, start)
			return
		}
	}

	completedAt := time.Now()
	result := &types.AnalysisResult{
		JobAnalysis:       &a.job,
		CompanyResearch:   &a.research,
		ParsedResume:      &a.resume,
		SkillsGapAnalysis: &a.gap,
		ResumeEnhancement: &a.enhancement,
		CoverLetter:       &a.coverLetter,
		FinalReview:       &a.review,
		Metadata: types.ProcessingMetadata{
			Model:          o.ai.GenerationModel(),
			TotalTokens:    int32(a.totalTokens()),
			ProcessingTime: completedAt.Sub(start),
			StartedAt:      start,
			CompletedAt:    completedAt,
		},
	}

	if err := o.store.Update(id, func(s *session.Session) error {
		s.Status = session.StatusCompleted
		s.Result = result
		return nil
	}); err != nil {
		o.logger.LogError(err, "Failed to complete session", "session_id", id)
		return
	}

	o.logger.Info("Analysis session completed",
		"session_id", id,
		"duration", completedAt.Sub(start).String(),
		"total_tokens", a.totalTokens())
	if o.metrics != nil {
		o.metrics.SessionFinished(session.StatusCompleted, completedAt.Sub(start))
	}
}

// runStep drives a single step through its lifecycle: mark processing, call
// the model with the family timeout, advance intermediate progress while the
// call is in flight, then mark completed or failed. Steps interrupted by a
// sibling failure end as cancelled.
func (o *Orchestrator) runStep(ctx context.Context, id string, number int, timeout time.Duration, a *artifacts, fn func(context.Context) (*ai.TokenUsage, error)) error {
	name := session.StepName(number)
	stepStart := time.Now()

	tracer := otel.Tracer("jobpilot.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.step")
	span.SetAttributes(
		attribute.Int("step.number", number),
		attribute.String("step.name", name),
	)
	defer span.End()

	if err := o.store.Update(id, func(s *session.Session) error {
		step := s.Step(number)
		step.Status = session.StepProcessing
		step.ProgressPercentage = 10
		step.StartedAt = &stepStart
		return nil
	}); err != nil {
		return &stepError{number: number, err: err}
	}

	// Creep progress toward 90 while the model call runs so long steps stay
	// visibly alive
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = o.store.Update(id, func(s *session.Session) error {
					step := s.Step(number)
					if step.Status == session.StepProcessing {
						step.ProgressPercentage = min(step.ProgressPercentage+20, 90)
					}
					return nil
				})
			}
		}
	}()

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	usage, err := fn(stepCtx)
	cancel()
	close(done)

	if err != nil {
		finished := time.Now()
		status := session.StepFailed
		if stderrors.Is(err, context.Canceled) {
			// Interrupted by a sibling's failure, not a fault of this step
			status = session.StepCancelled
		}
		_ = o.store.Update(id, func(s *session.Session) error {
			step := s.Step(number)
			step.Status = status
			step.CompletedAt = &finished
			return nil
		})
		span.RecordError(err)
		if o.metrics != nil {
			o.metrics.StepFinished(name, status, finished.Sub(stepStart))
		}
		return &stepError{number: number, err: err}
	}

	finished := time.Now()
	if err := o.store.Update(id, func(s *session.Session) error {
		step := s.Step(number)
		step.Status = session.StepCompleted
		step.ProgressPercentage = 100
		step.CompletedAt = &finished
		return nil
	}); err != nil {
		return &stepError{number: number, err: err}
	}

	if usage != nil {
		a.tokens[number-1] = usage.TotalTokens
		if o.metrics != nil {
			o.metrics.TokensUsed(name, usage.TotalTokens)
		}
	}
	if o.metrics != nil {
		o.metrics.StepFinished(name, session.StepCompleted, finished.Sub(stepStart))
	}

	o.logger.Debug("Pipeline step completed",
		"session_id", id,
		"step", number,
		"name", name,
		"duration", finished.Sub(stepStart).String())
	return nil
}

// fail marks the session failed after a step error. Steps that never started
// are marked cancelled; the error message names the failing step and the
// failure category.
func (o *Orchestrator) fail(id string, err error, start time.Time) {
	number := 0
	var se *stepError
	if stderrors.As(err, &se) {
		number = se.number
	}

	message := fmt.Sprintf("%s failed: %s", session.StepName(number), causeCategory(err))

	updateErr := o.store.Update(id, func(s *session.Session) error {
		if s.Status.Terminal() {
			return nil
		}
		s.Status = session.StatusFailed
		s.ErrorMessage = message
		for i := range s.Steps {
			if s.Steps[i].Status == session.StepPending {
				s.Steps[i].Status = session.StepCancelled
			}
		}
		return nil
	})
	if updateErr != nil {
		o.logger.LogError(updateErr, "Failed to mark session failed", "session_id", id)
		return
	}

	o.logger.LogError(err, "Analysis session failed",
		"session_id", id,
		"failed_step", number,
		"message", message)
	if o.metrics != nil {
		o.metrics.SessionFinished(session.StatusFailed, time.Since(start))
	}
}

// cancelledCheckpoint honors a pending cancellation request between steps.
// Returns true when the session transitioned to cancelled.
func (o *Orchestrator) cancelledCheckpoint(id string, start time.Time) bool {
	cancelled := false
	err := o.store.Update(id, func(s *session.Session) error {
		if !s.CancelRequested || s.Status.Terminal() {
			return nil
		}
		s.Status = session.StatusCancelled
		for i := range s.Steps {
			if s.Steps[i].Status == session.StepPending {
				s.Steps[i].Status = session.StepCancelled
			}
		}
		cancelled = true
		return nil
	})
	if err != nil {
		o.logger.LogError(err, "Cancellation checkpoint failed", "session_id", id)
		return true
	}

	if cancelled {
		o.logger.Info("Analysis session cancelled", "session_id", id)
		if o.metrics != nil {
			o.metrics.SessionFinished(session.StatusCancelled, time.Since(start))
		}
	}
	return cancelled
}

// causeCategory buckets a step error for the session error message
func causeCategory(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch {
		case appErr.Code == errors.ErrCodeUpstreamTimeout:
			return "upstream timeout"
		case appErr.Type == errors.ErrorTypeUpstream:
			return "upstream failure"
		case appErr.Type == errors.ErrorTypeProcessing:
			return "malformed model response"
		}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "upstream timeout"
	}
	return "internal error"
}
