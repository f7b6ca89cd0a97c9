package ai

import (
	"context"
	"fmt"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

// Service fronts the three operation-family providers. The analysis family
// serves job analysis, resume parsing and skills gap; research serves
// company research; generation serves resume enhancement, cover letter and
// final review.
type Service struct {
	analysis   AIProvider
	research   AIProvider
	generation AIProvider

	analysisCfg   config.OperationAIConfig
	researchCfg   config.OperationAIConfig
	generationCfg config.OperationAIConfig

	logger *errors.Logger
}

// NewService creates the AI service with one provider per operation family
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	s := &Service{
		analysisCfg:   cfg.GetAnalysisConfig(),
		researchCfg:   cfg.GetResearchConfig(),
		generationCfg: cfg.GetGenerationConfig(),
		logger:        logger,
	}

	families := []struct {
		name   string
		cfg    *config.OperationAIConfig
		target *AIProvider
	}{
		{"analysis", &s.analysisCfg, &s.analysis},
		{"research", &s.researchCfg, &s.research},
		{"generation", &s.generationCfg, &s.generation},
	}

	for _, family := range families {
		logger.Debug("Initializing AI provider",
			"family", family.name,
			"provider", family.cfg.Provider,
			"model", family.cfg.Model,
			"temperature", *family.cfg.Temperature,
			"timeout", *family.cfg.Timeout,
			"max_retries", *family.cfg.MaxRetries)

		provider, err := newProvider(family.cfg, family.name, logger)
		if err != nil {
			return nil, err
		}
		*family.target = provider
	}

	return s, nil
}

func newProvider(cfg *config.OperationAIConfig, family string, logger *errors.Logger) (AIProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg, family, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// AnalyzeJob runs job description analysis on the analysis family
func (s *Service) AnalyzeJob(ctx context.Context, input types.AnalyzeJobInput) (types.JobAnalysis, *TokenUsage, error) {
	return s.analysis.AnalyzeJob(ctx, input)
}

// ResearchCompany runs company research on the research family
func (s *Service) ResearchCompany(ctx context.Context, input types.ResearchCompanyInput) (types.CompanyResearch, *TokenUsage, error) {
	return s.research.ResearchCompany(ctx, input)
}

// ParseResume runs resume parsing on the analysis family
func (s *Service) ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error) {
	return s.analysis.ParseResume(ctx, input)
}

// AnalyzeSkillsGap runs skills gap analysis on the analysis family
func (s *Service) AnalyzeSkillsGap(ctx context.Context, input types.AnalyzeSkillsGapInput) (types.SkillsGapAnalysis, *TokenUsage, error) {
	return s.analysis.AnalyzeSkillsGap(ctx, input)
}

// EnhanceResume runs resume enhancement on the generation family
func (s *Service) EnhanceResume(ctx context.Context, input types.EnhanceResumeInput) (types.ResumeEnhancement, *TokenUsage, error) {
	return s.generation.EnhanceResume(ctx, input)
}

// GenerateCoverLetter runs cover letter generation on the generation family
func (s *Service) GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.CoverLetter, *TokenUsage, error) {
	return s.generation.GenerateCoverLetter(ctx, input)
}

// ReviewApplication runs the final review on the generation family
func (s *Service) ReviewApplication(ctx context.Context, input types.ReviewApplicationInput) (types.FinalReview, *TokenUsage, error) {
	return s.generation.ReviewApplication(ctx, input)
}

// AnalysisTimeout returns the per-call timeout for analysis family steps
func (s *Service) AnalysisTimeout() time.Duration { return *s.analysisCfg.Timeout }

// ResearchTimeout returns the per-call timeout for the research step
func (s *Service) ResearchTimeout() time.Duration { return *s.researchCfg.Timeout }

// GenerationTimeout returns the per-call timeout for generation family steps
func (s *Service) GenerationTimeout() time.Duration { return *s.generationCfg.Timeout }

// GenerationModel returns the model name used by the generation family,
// recorded in result metadata
func (s *Service) GenerationModel() string { return s.generationCfg.Model }

// GetModelInfo reports model availability per family for health checks
func (s *Service) GetModelInfo(ctx context.Context) map[string]*ModelInfo {
	return map[string]*ModelInfo{
		"analysis":   s.analysis.GetModelInfo(ctx),
		"research":   s.research.GetModelInfo(ctx),
		"generation": s.generation.GetModelInfo(ctx),
	}
}

// CircuitBreakerStats aggregates circuit breaker statistics across families
func (s *Service) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any)
	healthy := true

	for name, provider := range map[string]AIProvider{
		"analysis":   s.analysis,
		"research":   s.research,
		"generation": s.generation,
	} {
		if g, ok := provider.(*GeminiProvider); ok {
			providerStats := g.CircuitBreakerStats()
			stats[name] = providerStats
			if h, ok := providerStats["overall_healthy"].(bool); ok && !h {
				healthy = false
			}
		}
	}

	stats["overall_healthy"] = healthy
	return stats
}

// Close releases all provider resources
func (s *Service) Close() error {
	for _, provider := range []AIProvider{s.analysis, s.research, s.generation} {
		if provider != nil {
			if err := provider.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}
