package session

import (
	"fmt"
	"time"

	"jobpilot/internal/types"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// StepStatus is the lifecycle state of a single pipeline step
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepCancelled  StepStatus = "cancelled"
)

// StepCount is the fixed number of pipeline steps
const StepCount = 7

// StepDefinition describes one of the seven fixed pipeline steps.
// Weights sum to exactly 100.
type StepDefinition struct {
	Number  int
	Name    string
	Weight  int
	Details string
}

// Steps is the fixed pipeline step table. Step numbers are 1-based.
var Steps = [StepCount]StepDefinition{
	{1, "Job Description Analysis", 14, "Analyzing job requirements and extracting key information"},
	{2, "Company Research", 14, "Researching company culture, values, and recent developments"},
	{3, "Resume Parsing", 14, "Extracting and structuring resume content"},
	{4, "Skills Gap Analysis", 15, "Comparing resume skills against job requirements"},
	{5, "Resume Enhancement", 14, "Generating tailored resume improvement recommendations"},
	{6, "Cover Letter Generation", 14, "Creating a personalized cover letter"},
	{7, "Final Review & Formatting", 15, "Compiling final recommendations and formatting results"},
}

// StepName returns the fixed display name for a 1-based step number
func StepName(number int) string {
	if number < 1 || number > StepCount {
		return fmt.Sprintf("step %d", number)
	}
	return Steps[number-1].Name
}

// StepState tracks the progress of a single step within a session
type StepState struct {
	StepNumber         int        `json:"stepNumber"`
	Name               string     `json:"name"`
	Status             StepStatus `json:"status"`
	ProgressPercentage int        `json:"progressPercentage"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	Details            string     `json:"details,omitempty"`
}

// Session is the unit of state for one end-to-end analysis request.
// It is owned exclusively by its orchestrator goroutine while processing;
// readers only ever see cloned snapshots handed out by the store.
type Session struct {
	ID              string                `json:"id"`
	Status          Status                `json:"status"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Steps           []StepState           `json:"steps"`
	ErrorMessage    string                `json:"errorMessage,omitempty"`
	CancelRequested bool                  `json:"-"`
	Request         types.AnalysisRequest `json:"-"`
	Result          *types.AnalysisResult `json:"-"`
}

// New creates a pending session with all seven steps initialized
func New(req types.AnalysisRequest) *Session {
	now := time.Now()
	steps := make([]StepState, StepCount)
	for i, def := range Steps {
		steps[i] = StepState{
			StepNumber: def.Number,
			Name:       def.Name,
			Status:     StepPending,
			Details:    def.Details,
		}
	}
	return &Session{
		ID:        "analysis_" + uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Steps:     steps,
		Request:   req,
	}
}

// Clone returns a deep copy of the session. The attached result is shared,
// it is immutable once assembled.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Steps = make([]StepState, len(s.Steps))
	copy(clone.Steps, s.Steps)
	for i, step := range s.Steps {
		if step.StartedAt != nil {
			t := *step.StartedAt
			clone.Steps[i].StartedAt = &t
		}
		if step.CompletedAt != nil {
			t := *step.CompletedAt
			clone.Steps[i].CompletedAt = &t
		}
	}
	return &clone
}

// Step returns the state for a 1-based step number
func (s *Session) Step(number int) *StepState {
	return &s.Steps[number-1]
}

// OverallProgress computes the overall percentage as the sum of completed
// steps' weights plus the partial weight of any other started step. Steps
// that end failed or cancelled keep the partial contribution they reached,
// so the overall value never moves backwards. The result never exceeds 100.
func (s *Session) OverallProgress() int {
	total := 0
	for i, step := range s.Steps {
		switch step.Status {
		case StepCompleted:
			total += Steps[i].Weight
		case StepProcessing, StepFailed, StepCancelled:
			total += Steps[i].Weight * step.ProgressPercentage / 100
		}
	}
	if total > 100 {
		total = 100
	}
	return total
}

// CurrentStep returns the lowest-numbered step that is not yet completed,
// or the last step once everything is done.
func (s *Session) CurrentStep() StepState {
	for _, step := range s.Steps {
		if step.Status == StepProcessing {
			return step
		}
	}
	for _, step := range s.Steps {
		if step.Status == StepPending {
			return step
		}
	}
	return s.Steps[StepCount-1]
}
