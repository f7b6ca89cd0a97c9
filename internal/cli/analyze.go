package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/common"
	"jobpilot/internal/pipeline"
	"jobpilot/internal/session"
	"jobpilot/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Run the full application analysis for a resume and job description",
	Long: `Run the complete seven-step application analysis pipeline against a
resume and a job description, then print the assembled results.

The analysis includes:
- Job description breakdown and requirement extraction
- Company research and culture insights
- Skills gap analysis between the resume and the role
- Resume enhancement recommendations
- A tailored cover letter
- A final application review with match scoring`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

var analyzeOpts struct {
	company        string
	jobURL         string
	tone           string
	focusAreas     []string
	salaryGuidance bool
	interviewPrep  bool
}

// progressPollInterval controls how often the one-shot command samples
// pipeline progress for display.
const progressPollInterval = 500 * time.Millisecond

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeOpts.company, "company", "", "Company name, improves research accuracy")
	analyzeCmd.Flags().StringVar(&analyzeOpts.jobURL, "job-url", "", "URL of the job posting")
	analyzeCmd.Flags().StringVar(&analyzeOpts.tone, "tone", "", "Cover letter tone: professional, enthusiastic, or concise")
	analyzeCmd.Flags().StringSliceVar(&analyzeOpts.focusAreas, "focus", nil, "Focus areas to emphasize (max 5)")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.salaryGuidance, "salary-guidance", false, "Include salary negotiation guidance in the final review")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.interviewPrep, "interview-prep", false, "Include interview preparation tips in the final review")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	aiService, err := ai.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	store := session.NewMemoryStore()
	orchestrator := pipeline.NewOrchestrator(store, aiService, cfg.Pipeline, logger, nil)

	createInput := func(contents []string) (types.AnalysisRequest, error) {
		if len(contents) != 2 {
			return types.AnalysisRequest{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.AnalysisRequest{
			ResumeText:     contents[0],
			JobDescription: contents[1],
			JobURL:         analyzeOpts.jobURL,
			CompanyName:    analyzeOpts.company,
			Preferences: types.Preferences{
				Tone:                  analyzeOpts.tone,
				FocusAreas:            analyzeOpts.focusAreas,
				IncludeSalaryGuidance: analyzeOpts.salaryGuidance,
				IncludeInterviewPrep:  analyzeOpts.interviewPrep,
			},
		}, nil
	}

	logDetails := func(input types.AnalysisRequest, cfg common.CommandConfig) {
		logger.Info("Starting application analysis",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	analyzeOperation := func(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
		return runPipelineToCompletion(ctx, orchestrator, req)
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		cfg.App.MaxFileSize,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze application: %w", err)
	}
	logger.Info("Application analysis completed successfully")
	return nil
}

// runPipelineToCompletion starts a session and polls it until it reaches a
// terminal state, echoing step transitions to stderr along the way.
func runPipelineToCompletion(ctx context.Context, orchestrator *pipeline.Orchestrator, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	sess, err := orchestrator.Start(ctx, req)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	lastStep := 0
	for {
		select {
		case <-ctx.Done():
			// Request cooperative cancellation, the session outlives us
			_, _ = orchestrator.Cancel(sess.ID)
			return nil, ctx.Err()
		case <-ticker.C:
		}

		progress, err := orchestrator.GetProgress(sess.ID)
		if err != nil {
			return nil, err
		}

		if cur := progress.CurrentStep; cur.Status == session.StepProcessing && cur.StepNumber != lastStep {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s (%d%%)\n",
				cur.StepNumber, session.StepCount, cur.Name, progress.OverallProgress)
			lastStep = cur.StepNumber
		}

		if !progress.Status.Terminal() {
			continue
		}

		switch progress.Status {
		case session.StatusCompleted:
			fmt.Fprintf(os.Stderr, "Analysis complete (100%%)\n")
			return orchestrator.GetResults(sess.ID)
		case session.StatusCancelled:
			return nil, fmt.Errorf("analysis was cancelled")
		default:
			if progress.ErrorMessage != "" {
				return nil, fmt.Errorf("analysis failed: %s", progress.ErrorMessage)
			}
			return nil, fmt.Errorf("analysis failed")
		}
	}
}
