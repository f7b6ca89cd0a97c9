package common

import (
	"fmt"
	"slices"
	"strings"

	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

// Submission bounds for analysis requests. Resumes carry no length floor,
// a terse one-liner is still analyzable input.
const (
	MinJobDescriptionLength = 50
	MaxJobDescriptionLength = 50000
	MaxFocusAreas           = 5
)

// ValidateAnalysisRequest checks submission bounds before a session is
// created. Returns a validation error naming the offending field.
func ValidateAnalysisRequest(req *types.AnalysisRequest) error {
	jobDescription := strings.TrimSpace(req.JobDescription)
	if len(jobDescription) < MinJobDescriptionLength {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("jobDescription must be at least %d characters", MinJobDescriptionLength), nil).
			WithContext("field", "jobDescription").
			WithContext("length", len(jobDescription))
	}
	if len(jobDescription) > MaxJobDescriptionLength {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("jobDescription must not exceed %d characters", MaxJobDescriptionLength), nil).
			WithContext("field", "jobDescription").
			WithContext("length", len(jobDescription))
	}

	if strings.TrimSpace(req.ResumeText) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"resumeText is required", nil).
			WithContext("field", "resumeText")
	}

	if len(req.Preferences.FocusAreas) > MaxFocusAreas {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("preferences.focusAreas must not exceed %d entries", MaxFocusAreas), nil).
			WithContext("field", "preferences.focusAreas").
			WithContext("count", len(req.Preferences.FocusAreas))
	}

	return nil
}

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}
