package pipeline

import (
	"context"
	"strings"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/common"
	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/session"
	"jobpilot/internal/types"
)

// AI is the model surface the orchestrator drives. *ai.Service satisfies it.
type AI interface {
	AnalyzeJob(ctx context.Context, input types.AnalyzeJobInput) (types.JobAnalysis, *ai.TokenUsage, error)
	ResearchCompany(ctx context.Context, input types.ResearchCompanyInput) (types.CompanyResearch, *ai.TokenUsage, error)
	ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *ai.TokenUsage, error)
	AnalyzeSkillsGap(ctx context.Context, input types.AnalyzeSkillsGapInput) (types.SkillsGapAnalysis, *ai.TokenUsage, error)
	EnhanceResume(ctx context.Context, input types.EnhanceResumeInput) (types.ResumeEnhancement, *ai.TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error)
	ReviewApplication(ctx context.Context, input types.ReviewApplicationInput) (types.FinalReview, *ai.TokenUsage, error)
	AnalysisTimeout() time.Duration
	ResearchTimeout() time.Duration
	GenerationTimeout() time.Duration
	GenerationModel() string
}

// Metrics receives pipeline lifecycle events. A nil Metrics is valid.
type Metrics interface {
	SessionStarted()
	SessionFinished(status session.Status, duration time.Duration)
	StepFinished(stepName string, status session.StepStatus, duration time.Duration)
	TokensUsed(stepName string, tokens int64)
}

// Orchestrator runs analysis sessions through the seven-step pipeline and
// answers progress, result, and lifecycle queries against the session store.
type Orchestrator struct {
	store   session.Store
	ai      AI
	cfg     config.PipelineConfig
	logger  *errors.Logger
	metrics Metrics
}

// NewOrchestrator creates a pipeline orchestrator. metrics may be nil.
func NewOrchestrator(store session.Store, aiService AI, cfg config.PipelineConfig, logger *errors.Logger, metrics Metrics) *Orchestrator {
	return &Orchestrator{
		store:   store,
		ai:      aiService,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Start validates the request, creates a session, and launches processing in
// the background. Validation failures return an error and create no session.
// The returned snapshot reflects the session at creation time.
func (o *Orchestrator) Start(ctx context.Context, req types.AnalysisRequest) (*session.Session, error) {
	if err := common.ValidateAnalysisRequest(&req); err != nil {
		return nil, err
	}

	s := session.New(req)
	if err := o.store.Create(s); err != nil {
		return nil, err
	}

	o.logger.Info("Analysis session started",
		"session_id", s.ID,
		"job_length", len(req.JobDescription),
		"resume_length", len(req.ResumeText))
	if o.metrics != nil {
		o.metrics.SessionStarted()
	}

	// The run outlives the submitting request
	go o.run(context.WithoutCancel(ctx), s.ID)

	return s, nil
}

// Progress is a point-in-time view of one session's advancement
type Progress struct {
	SessionID          string              `json:"sessionId"`
	Status             session.Status      `json:"status"`
	OverallProgress    int                 `json:"overallProgress"`
	CurrentStep        session.StepState   `json:"currentStep"`
	Steps              []session.StepState `json:"steps"`
	ErrorMessage       string              `json:"errorMessage,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	EstimatedRemaining *int                `json:"estimatedSecondsRemaining,omitempty"`
}

// GetProgress returns a consistent snapshot of session progress
func (o *Orchestrator) GetProgress(id string) (*Progress, error) {
	s, err := o.store.Get(id)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		SessionID:       s.ID,
		Status:          s.Status,
		OverallProgress: s.OverallProgress(),
		CurrentStep:     s.CurrentStep(),
		Steps:           s.Steps,
		ErrorMessage:    s.ErrorMessage,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}

	if s.Status == session.StatusProcessing && p.OverallProgress > 0 {
		elapsed := time.Since(s.CreatedAt).Seconds()
		remaining := int(elapsed * float64(100-p.OverallProgress) / float64(p.OverallProgress))
		p.EstimatedRemaining = &remaining
	}

	return p, nil
}

// GetResults returns the final analysis result. A failed session yields the
// stored failure message, a session still in flight a not-ready error, and an
// unknown id a not-found error.
func (o *Orchestrator) GetResults(id string) (*types.AnalysisResult, error) {
	s, err := o.store.Get(id)
	if err != nil {
		return nil, err
	}

	if s.Status == session.StatusFailed {
		message := s.ErrorMessage
		if message == "" {
			message = "analysis failed"
		}
		return nil, errors.NewProcessingError(errors.ErrCodeStepFailed, message, nil).
			WithContext("session_id", id)
	}

	if s.Status != session.StatusCompleted || s.Result == nil {
		return nil, errors.NewNotReadyError(errors.ErrCodeResultsNotReady,
			"analysis results are not ready", nil).
			WithContext("session_id", id).
			WithContext("status", string(s.Status))
	}

	return s.Result, nil
}

// Cancel requests cooperative cancellation. The flag is observed between
// steps; a session already in a terminal state is left untouched. Cancel is
// idempotent.
func (o *Orchestrator) Cancel(id string) (*session.Session, error) {
	err := o.store.Update(id, func(s *session.Session) error {
		if s.Status.Terminal() || s.CancelRequested {
			return nil
		}
		s.CancelRequested = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.store.Get(id)
}

// Cleanup removes terminal sessions older than maxAge and reports the count
func (o *Orchestrator) Cleanup(maxAge time.Duration) int {
	removed := o.store.DeleteOlderThan(maxAge)
	if removed > 0 {
		o.logger.Info("Cleaned up old sessions", "removed", removed, "max_age", maxAge.String())
	}
	return removed
}

// HistoryEntry summarizes one session for listing
type HistoryEntry struct {
	SessionID       string         `json:"sessionId"`
	Status          session.Status `json:"status"`
	OverallProgress int            `json:"overallProgress"`
	JobPreview      string         `json:"jobPreview"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

const jobPreviewLength = 100

// HistoryPage is one page of session summaries. Limit and Offset carry the
// values actually applied after clamping, not the caller's raw input.
type HistoryPage struct {
	Sessions []HistoryEntry `json:"sessions"`
	Total    int            `json:"total"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
}

// History lists sessions newest first with limit/offset paging
func (o *Orchestrator) History(limit, offset int) HistoryPage {
	all := o.store.List()
	total := len(all)

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)

	entries := make([]HistoryEntry, 0, end-offset)
	for _, s := range all[offset:end] {
		entries = append(entries, HistoryEntry{
			SessionID:       s.ID,
			Status:          s.Status,
			OverallProgress: s.OverallProgress(),
			JobPreview:      preview(s.Request.JobDescription),
			CreatedAt:       s.CreatedAt,
			UpdatedAt:       s.UpdatedAt,
		})
	}
	return HistoryPage{Sessions: entries, Total: total, Limit: limit, Offset: offset}
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= jobPreviewLength {
		return text
	}
	return text[:jobPreviewLength] + "..."
}

// Load describes how busy the pipeline currently is
type Load struct {
	Status     string `json:"status"` // "ok", "busy", or "overloaded"
	Processing int    `json:"processing"`
	Total      int    `json:"total"`
}

// Health reports current pipeline load against configured thresholds
func (o *Orchestrator) Health() Load {
	processing := o.store.CountByStatus(session.StatusProcessing)

	status := "ok"
	switch {
	case processing > o.cfg.OverloadedThreshold:
		status = "overloaded"
	case processing > o.cfg.BusyThreshold:
		status = "busy"
	}

	return Load{
		Status:     status,
		Processing: processing,
		Total:      o.store.Len(),
	}
}
