package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"jobpilot/internal/config"
	apperrors "jobpilot/internal/errors"
	"jobpilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini. One provider
// instance serves one operation family with its own circuit breakers.
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	circuitBreaker *breaker[*genai.GenerateContentResponse]
	modelBreaker   *breaker[*genai.Model]
	logger         *apperrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for an operation family
func NewGeminiProvider(cfg *config.OperationAIConfig, family string, logger *apperrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.ErrCodeUpstreamFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: newBreaker[*genai.GenerateContentResponse]("AI-"+family, cfg.CircuitBreaker, logger),
		modelBreaker:   newBreaker[*genai.Model]("AI-Model-"+family, cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// executeAIOperation is a generic helper to run AI operations with common
// tracing, circuit breaker, and parsing logic. Failures are classified:
// deadline expiry becomes an upstream timeout, other generation failures an
// upstream failure, and unparseable responses a processing error.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("jobpilot.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if errors.Is(err, context.DeadlineExceeded) {
			return output, nil, apperrors.NewUpstreamError(apperrors.ErrCodeUpstreamTimeout,
				"Model call timed out for "+operationName, err)
		}
		return output, nil, apperrors.NewUpstreamError(apperrors.ErrCodeUpstreamFailed,
			"Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewProcessingError(apperrors.ErrCodeMalformedResponse,
			"Failed to parse model response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// AnalyzeJob implements AIProvider for the job description analysis step
func (g *GeminiProvider) AnalyzeJob(ctx context.Context, input types.AnalyzeJobInput) (types.JobAnalysis, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpAnalyzeJob, DefaultSystemPrompts.AnalyzeJob)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpAnalyzeJob, DefaultUserPrompts.AnalyzeJob),
		input.JobDescription, companyHint(input.CompanyName))

	output, tokenUsage, err := executeAIOperation[types.JobAnalysis](
		g, ctx, "analyze_job", userPrompt, systemPrompt,
		g.buildAnalyzeJobSchema(),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.JobAnalysis{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("output.company", output.CompanyName),
			attribute.Int("output.required_skills", len(output.RequiredSkills)),
		)
	}

	return output, tokenUsage, nil
}

// ResearchCompany implements AIProvider for the company research step
func (g *GeminiProvider) ResearchCompany(ctx context.Context, input types.ResearchCompanyInput) (types.CompanyResearch, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpResearchCompany, DefaultSystemPrompts.ResearchCompany)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpResearchCompany, DefaultUserPrompts.ResearchCompany),
		input.CompanyName, toJSON(input.Job))

	output, tokenUsage, err := executeAIOperation[types.CompanyResearch](
		g, ctx, "research_company", userPrompt, systemPrompt,
		g.buildResearchCompanySchema(),
		attribute.String("input.company", input.CompanyName),
	)
	if err != nil {
		return types.CompanyResearch{}, nil, err
	}

	return output, tokenUsage, nil
}

// ParseResume implements AIProvider for the resume parsing step
func (g *GeminiProvider) ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpParseResume, DefaultSystemPrompts.ParseResume)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpParseResume, DefaultUserPrompts.ParseResume),
		input.ResumeText)

	output, tokenUsage, err := executeAIOperation[types.ParsedResume](
		g, ctx, "parse_resume", userPrompt, systemPrompt,
		g.buildParseResumeSchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
	if err != nil {
		return types.ParsedResume{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.skills", len(output.Skills)),
			attribute.Int("output.positions", len(output.Experience)),
		)
	}

	return output, tokenUsage, nil
}

// AnalyzeSkillsGap implements AIProvider for the skills gap analysis step
func (g *GeminiProvider) AnalyzeSkillsGap(ctx context.Context, input types.AnalyzeSkillsGapInput) (types.SkillsGapAnalysis, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpAnalyzeSkillsGap, DefaultSystemPrompts.AnalyzeSkillsGap)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpAnalyzeSkillsGap, DefaultUserPrompts.AnalyzeSkillsGap),
		toJSON(input.Job), toJSON(input.Resume))

	output, tokenUsage, err := executeAIOperation[types.SkillsGapAnalysis](
		g, ctx, "analyze_skills_gap", userPrompt, systemPrompt,
		g.buildSkillsGapSchema(),
	)
	if err != nil {
		return types.SkillsGapAnalysis{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.match_score", output.MatchScore))
	}

	return output, tokenUsage, nil
}

// EnhanceResume implements AIProvider for the resume enhancement step
func (g *GeminiProvider) EnhanceResume(ctx context.Context, input types.EnhanceResumeInput) (types.ResumeEnhancement, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpEnhanceResume, DefaultSystemPrompts.EnhanceResume)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpEnhanceResume, DefaultUserPrompts.EnhanceResume),
		toJSON(input.Job), toJSON(input.Resume), toJSON(input.Gap), preferenceDirectives(input.Preferences))

	output, tokenUsage, err := executeAIOperation[types.ResumeEnhancement](
		g, ctx, "enhance_resume", userPrompt, systemPrompt,
		g.buildEnhanceResumeSchema(),
	)
	if err != nil {
		return types.ResumeEnhancement{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.recommendations", len(output.Recommendations)))
	}

	return output, tokenUsage, nil
}

// GenerateCoverLetter implements AIProvider for the cover letter generation step
func (g *GeminiProvider) GenerateCoverLetter(ctx context.Context, input types.GenerateCoverLetterInput) (types.CoverLetter, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpGenerateCoverLetter, DefaultSystemPrompts.GenerateCoverLetter)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpGenerateCoverLetter, DefaultUserPrompts.GenerateCoverLetter),
		toJSON(input.Job), toJSON(input.Research), toJSON(input.Resume), toJSON(input.Enhancement),
		preferenceDirectives(input.Preferences))

	output, tokenUsage, err := executeAIOperation[types.CoverLetter](
		g, ctx, "generate_cover_letter", userPrompt, systemPrompt,
		g.buildCoverLetterSchema(),
	)
	if err != nil {
		return types.CoverLetter{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.word_count", output.WordCount))
	}

	return output, tokenUsage, nil
}

// ReviewApplication implements AIProvider for the final review step
func (g *GeminiProvider) ReviewApplication(ctx context.Context, input types.ReviewApplicationInput) (types.FinalReview, *TokenUsage, error) {
	systemPrompt := g.systemPrompt(config.OpReviewApplication, DefaultSystemPrompts.ReviewApplication)

	applicationPackage := toJSON(map[string]any{
		"jobAnalysis":       input.Job,
		"companyResearch":   input.Research,
		"parsedResume":      input.Resume,
		"skillsGapAnalysis": input.Gap,
		"resumeEnhancement": input.Enhancement,
		"coverLetter":       input.CoverLetter,
	})
	userPrompt := fmt.Sprintf(g.userPrompt(config.OpReviewApplication, DefaultUserPrompts.ReviewApplication),
		applicationPackage, preferenceDirectives(input.Preferences))

	output, tokenUsage, err := executeAIOperation[types.FinalReview](
		g, ctx, "review_application", userPrompt, systemPrompt,
		g.buildReviewSchema(input.Preferences.IncludeSalaryGuidance, input.Preferences.IncludeInterviewPrep),
	)
	if err != nil {
		return types.FinalReview{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.job_match_score", output.JobMatchScore),
			attribute.String("output.strength", output.ApplicationStrength),
		)
	}

	return output, tokenUsage, nil
}

// CircuitBreakerStats returns circuit breaker statistics for this provider
func (g *GeminiProvider) CircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy()
	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// systemPrompt resolves an operation's system prompt, preferring configured
// overrides (file content first, then inline config) over defaults
func (g *GeminiProvider) systemPrompt(operation, fallback string) string {
	if override := config.GetPromptsForOperation(operation).System; override != "" {
		return override
	}
	return fallback
}

// userPrompt resolves an operation's user prompt template
func (g *GeminiProvider) userPrompt(operation, fallback string) string {
	if override := config.GetPromptsForOperation(operation).User; override != "" {
		return override
	}
	return fallback
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// toJSON renders a value as indented JSON for prompt interpolation
func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
