package common

import (
	"strings"
	"testing"

	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

func TestValidateAnalysisRequest(t *testing.T) {
	validJob := strings.Repeat("senior backend engineer ", 5)     // 120 chars
	validResume := strings.Repeat("built distributed systems ", 5) // 130 chars

	tests := []struct {
		name          string
		request       types.AnalysisRequest
		expectError   bool
		expectedField string
	}{
		{
			name: "valid request",
			request: types.AnalysisRequest{
				JobDescription: validJob,
				ResumeText:     validResume,
			},
			expectError: false,
		},
		{
			name: "valid request at minimum bounds",
			request: types.AnalysisRequest{
				JobDescription: strings.Repeat("a", MinJobDescriptionLength),
				ResumeText:     "b",
			},
			expectError: false,
		},
		{
			name: "terse one-line resume is accepted",
			request: types.AnalysisRequest{
				JobDescription: validJob,
				ResumeText:     "John Doe, 5 years React",
			},
			expectError: false,
		},
		{
			name: "job description too short",
			request: types.AnalysisRequest{
				JobDescription: "Go engineer wanted",
				ResumeText:     validResume,
			},
			expectError:   true,
			expectedField: "jobDescription",
		},
		{
			name: "job description only whitespace padding",
			request: types.AnalysisRequest{
				JobDescription: "   " + strings.Repeat("a", MinJobDescriptionLength-10) + "   ",
				ResumeText:     validResume,
			},
			expectError:   true,
			expectedField: "jobDescription",
		},
		{
			name: "job description too long",
			request: types.AnalysisRequest{
				JobDescription: strings.Repeat("a", MaxJobDescriptionLength+1),
				ResumeText:     validResume,
			},
			expectError:   true,
			expectedField: "jobDescription",
		},
		{
			name: "resume only whitespace",
			request: types.AnalysisRequest{
				JobDescription: validJob,
				ResumeText:     "   \n\t  ",
			},
			expectError:   true,
			expectedField: "resumeText",
		},
		{
			name: "too many focus areas",
			request: types.AnalysisRequest{
				JobDescription: validJob,
				ResumeText:     validResume,
				Preferences: types.Preferences{
					FocusAreas: []string{"a", "b", "c", "d", "e", "f"},
				},
			},
			expectError:   true,
			expectedField: "preferences.focusAreas",
		},
		{
			name: "focus areas at the limit",
			request: types.AnalysisRequest{
				JobDescription: validJob,
				ResumeText:     validResume,
				Preferences: types.Preferences{
					FocusAreas: []string{"a", "b", "c", "d", "e"},
				},
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnalysisRequest(&tt.request)

			if !tt.expectError {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !errors.IsType(err, errors.ErrorTypeValidation) {
				t.Errorf("Expected a validation error, got %v", err)
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("Expected AppError, got %T", err)
			}
			if appErr.Code != errors.ErrCodeInvalidRequest {
				t.Errorf("Expected code %q, got %q", errors.ErrCodeInvalidRequest, appErr.Code)
			}
			if field, _ := appErr.Context["field"].(string); field != tt.expectedField {
				t.Errorf("Expected offending field %q, got %q", tt.expectedField, field)
			}
		})
	}
}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
	}{
		{
			name:             "valid format - json",
			format:           "json",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      false,
		},
		{
			name:             "valid format - markdown",
			format:           "markdown",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      false,
		},
		{
			name:             "invalid format - xml",
			format:           "xml",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: []string{"json", "text", "markdown"},
			expectError:      true,
		},
		{
			name:             "empty supported formats - should allow all",
			format:           "xml",
			supportedFormats: []string{},
			expectError:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)

			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

// Benchmark to ensure validation stays cheap on the submit path
func BenchmarkValidateAnalysisRequest(b *testing.B) {
	req := types.AnalysisRequest{
		JobDescription: strings.Repeat("senior backend engineer ", 20),
		ResumeText:     strings.Repeat("built distributed systems ", 20),
	}

	for b.Loop() {
		_ = ValidateAnalysisRequest(&req)
	}
}
