package ai

import (
	"context"

	"jobpilot/internal/types"
)

// AIProvider is implemented by model backends. One method per pipeline
// operation; all return token usage which callers may ignore.
type AIProvider interface {
	AnalyzeJob(ctx context.Context, input types.AnalyzeJobInput) (types.JobAnalysis, *TokenUsage, error)
	ResearchCompany(ctx context.Context, input types.ResearchCompanyInput) (types.CompanyResearch, *TokenUsage, error)
	ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error)
	AnalyzeSkillsGap(ctx context.Context, input types.AnalyzeSkillsGapInput) (types.SkillsGapAnalysis, *TokenUsage, error)
	EnhanceResume(ctx context.Context, input types.EnhanceResumeInput) (types.ResumeEnhancement, *TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.CoverLetter, *TokenUsage, error)
	ReviewApplication(ctx context.Context, input types.ReviewApplicationInput) (types.FinalReview, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}
