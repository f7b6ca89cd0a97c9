package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobpilot/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult, *types.AnalysisResult:
		return "AnalysisResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func analysisResult(data any) (*types.AnalysisResult, error) {
	switch v := data.(type) {
	case *types.AnalysisResult:
		return v, nil
	case types.AnalysisResult:
		return &v, nil
	default:
		return nil, fmt.Errorf("expected AnalysisResult, got %T", data)
	}
}

func writeList(output *strings.Builder, items []string, prefix string) {
	for _, item := range items {
		output.WriteString(fmt.Sprintf("%s%s\n", prefix, item))
	}
}

// AnalysisTextFormatter handles text formatting for full analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, err := analysisResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	if job := result.JobAnalysis; job != nil {
		output.WriteString("=== JOB ANALYSIS ===\n")
		output.WriteString(fmt.Sprintf("Title: %s\n", job.JobTitle))
		output.WriteString(fmt.Sprintf("Company: %s\n", job.CompanyName))
		output.WriteString(fmt.Sprintf("Experience Level: %s\n", job.ExperienceLevel))
		if job.Location != "" {
			output.WriteString(fmt.Sprintf("Location: %s (%s)\n", job.Location, job.RemotePolicy))
		}
		if job.SalaryRange != "" {
			output.WriteString(fmt.Sprintf("Salary Range: %s\n", job.SalaryRange))
		}
		output.WriteString("Required Skills:\n")
		writeList(&output, job.RequiredSkills, "- ")
		if len(job.PreferredSkills) > 0 {
			output.WriteString("Preferred Skills:\n")
			writeList(&output, job.PreferredSkills, "- ")
		}
		output.WriteString("\n")
	}

	if company := result.CompanyResearch; company != nil {
		output.WriteString("=== COMPANY RESEARCH ===\n")
		output.WriteString(fmt.Sprintf("Company: %s\n", company.CompanyName))
		output.WriteString(fmt.Sprintf("Industry: %s\n", company.Industry))
		if company.CompanySize != "" {
			output.WriteString(fmt.Sprintf("Size: %s\n", company.CompanySize))
		}
		if len(company.Culture) > 0 {
			output.WriteString("Culture:\n")
			writeList(&output, company.Culture, "- ")
		}
		if len(company.InterviewThemes) > 0 {
			output.WriteString("Interview Themes:\n")
			writeList(&output, company.InterviewThemes, "- ")
		}
		output.WriteString("\n")
	}

	if gap := result.SkillsGapAnalysis; gap != nil {
		output.WriteString("=== SKILLS GAP ANALYSIS ===\n")
		output.WriteString(fmt.Sprintf("Match Score: %d/100\n", gap.MatchScore))
		output.WriteString("Matching Skills:\n")
		writeList(&output, gap.MatchingSkills, "- ")
		if len(gap.MissingSkills) > 0 {
			output.WriteString("Missing Skills:\n")
			writeList(&output, gap.MissingSkills, "- ")
		}
		if len(gap.TransferableSkills) > 0 {
			output.WriteString("Transferable Skills:\n")
			writeList(&output, gap.TransferableSkills, "- ")
		}
		if len(gap.Recommendations) > 0 {
			output.WriteString("Recommendations:\n")
			writeList(&output, gap.Recommendations, "- ")
		}
		output.WriteString("\n")
	}

	if enhancement := result.ResumeEnhancement; enhancement != nil {
		output.WriteString("=== RESUME ENHANCEMENT ===\n")
		output.WriteString("Overall Assessment:\n")
		output.WriteString(enhancement.OverallAssessment)
		output.WriteString("\n\n")
		if enhancement.SummaryRewrite != "" {
			output.WriteString("Suggested Summary:\n")
			output.WriteString(enhancement.SummaryRewrite)
			output.WriteString("\n\n")
		}
		for i, rec := range enhancement.Recommendations {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, rec.Priority, rec.Section))
			output.WriteString(fmt.Sprintf("   Suggested: %s\n", rec.Suggested))
			output.WriteString(fmt.Sprintf("   Reason: %s\n", rec.Reason))
		}
		if len(enhancement.KeywordSuggestions) > 0 {
			output.WriteString("Keyword Suggestions:\n")
			writeList(&output, enhancement.KeywordSuggestions, "- ")
		}
		output.WriteString("\n")
	}

	if letter := result.CoverLetter; letter != nil {
		output.WriteString("=== COVER LETTER ===\n")
		output.WriteString(fmt.Sprintf("Tone: %s (%d words)\n\n", letter.Tone, letter.WordCount))
		output.WriteString(letter.Content)
		output.WriteString("\n\n")
	}

	if review := result.FinalReview; review != nil {
		output.WriteString("=== FINAL REVIEW ===\n")
		output.WriteString(fmt.Sprintf("Application Strength: %s\n", review.ApplicationStrength))
		output.WriteString(fmt.Sprintf("Job Match Score: %d/100\n\n", review.JobMatchScore))
		output.WriteString("Summary:\n")
		output.WriteString(review.Summary)
		output.WriteString("\n\n")
		if len(review.NextSteps) > 0 {
			output.WriteString("Next Steps:\n")
			for i, step := range review.NextSteps {
				output.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
			}
			output.WriteString("\n")
		}
		if review.SalaryGuidance != nil {
			output.WriteString("Salary Guidance:\n")
			output.WriteString(fmt.Sprintf("Suggested Range: %s\n", review.SalaryGuidance.SuggestedRange))
			output.WriteString(fmt.Sprintf("Market Context: %s\n", review.SalaryGuidance.MarketContext))
			writeList(&output, review.SalaryGuidance.NegotiationPoints, "- ")
			output.WriteString("\n")
		}
		if review.InterviewPrep != nil {
			output.WriteString("Interview Preparation:\n")
			output.WriteString("Likely Questions:\n")
			writeList(&output, review.InterviewPrep.LikelyQuestions, "- ")
			output.WriteString("Talking Points:\n")
			writeList(&output, review.InterviewPrep.TalkingPoints, "- ")
			output.WriteString("Questions To Ask:\n")
			writeList(&output, review.InterviewPrep.QuestionsToAsk, "- ")
			output.WriteString("\n")
		}
	}

	output.WriteString("=== PROCESSING METADATA ===\n")
	output.WriteString(fmt.Sprintf("Model: %s\n", result.Metadata.Model))
	output.WriteString(fmt.Sprintf("Total Tokens: %d\n", result.Metadata.TotalTokens))
	output.WriteString(fmt.Sprintf("Processing Time: %s\n", result.Metadata.ProcessingTime))

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for full analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, err := analysisResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Job Application Analysis\n\n")

	if job := result.JobAnalysis; job != nil {
		output.WriteString("## Job Analysis\n\n")
		output.WriteString(fmt.Sprintf("**Title:** %s\n\n", job.JobTitle))
		output.WriteString(fmt.Sprintf("**Company:** %s\n\n", job.CompanyName))
		output.WriteString(fmt.Sprintf("**Experience Level:** %s\n\n", job.ExperienceLevel))
		if job.SalaryRange != "" {
			output.WriteString(fmt.Sprintf("**Salary Range:** %s\n\n", job.SalaryRange))
		}
		output.WriteString("### Required Skills\n")
		writeList(&output, job.RequiredSkills, "- ")
		output.WriteString("\n")
		if len(job.PreferredSkills) > 0 {
			output.WriteString("### Preferred Skills\n")
			writeList(&output, job.PreferredSkills, "- ")
			output.WriteString("\n")
		}
	}

	if company := result.CompanyResearch; company != nil {
		output.WriteString("## Company Research\n\n")
		output.WriteString(fmt.Sprintf("**Company:** %s\n\n", company.CompanyName))
		output.WriteString(fmt.Sprintf("**Industry:** %s\n\n", company.Industry))
		if len(company.Culture) > 0 {
			output.WriteString("### Culture\n")
			writeList(&output, company.Culture, "- ")
			output.WriteString("\n")
		}
		if len(company.RecentNews) > 0 {
			output.WriteString("### Recent News\n")
			writeList(&output, company.RecentNews, "- ")
			output.WriteString("\n")
		}
		if len(company.InterviewThemes) > 0 {
			output.WriteString("### Interview Themes\n")
			writeList(&output, company.InterviewThemes, "- ")
			output.WriteString("\n")
		}
	}

	if gap := result.SkillsGapAnalysis; gap != nil {
		output.WriteString("## Skills Gap Analysis\n\n")
		output.WriteString(fmt.Sprintf("**Match Score:** %d/100\n\n", gap.MatchScore))
		output.WriteString("### Matching Skills\n")
		writeList(&output, gap.MatchingSkills, "- ")
		output.WriteString("\n")
		if len(gap.MissingSkills) > 0 {
			output.WriteString("### Missing Skills\n")
			writeList(&output, gap.MissingSkills, "- ")
			output.WriteString("\n")
		}
		if len(gap.Recommendations) > 0 {
			output.WriteString("### Recommendations\n")
			writeList(&output, gap.Recommendations, "- ")
			output.WriteString("\n")
		}
	}

	if enhancement := result.ResumeEnhancement; enhancement != nil {
		output.WriteString("## Resume Enhancement\n\n")
		output.WriteString(enhancement.OverallAssessment)
		output.WriteString("\n\n")
		if enhancement.SummaryRewrite != "" {
			output.WriteString("### Suggested Summary\n\n")
			output.WriteString(enhancement.SummaryRewrite)
			output.WriteString("\n\n")
		}
		if len(enhancement.Recommendations) > 0 {
			output.WriteString("### Recommendations\n\n")
			for i, rec := range enhancement.Recommendations {
				output.WriteString(fmt.Sprintf("%d. **%s** (%s priority)\n", i+1, rec.Section, rec.Priority))
				output.WriteString(fmt.Sprintf("   - Suggested: %s\n", rec.Suggested))
				output.WriteString(fmt.Sprintf("   - Reason: %s\n", rec.Reason))
			}
			output.WriteString("\n")
		}
		if len(enhancement.KeywordSuggestions) > 0 {
			output.WriteString("### Keyword Suggestions\n")
			writeList(&output, enhancement.KeywordSuggestions, "- ")
			output.WriteString("\n")
		}
	}

	if letter := result.CoverLetter; letter != nil {
		output.WriteString("## Cover Letter\n\n")
		output.WriteString(fmt.Sprintf("*%s tone, %d words*\n\n", letter.Tone, letter.WordCount))
		output.WriteString(letter.Content)
		output.WriteString("\n\n")
	}

	if review := result.FinalReview; review != nil {
		output.WriteString("## Final Review\n\n")
		output.WriteString(fmt.Sprintf("**Application Strength:** %s\n\n", review.ApplicationStrength))
		output.WriteString(fmt.Sprintf("**Job Match Score:** %d/100\n\n", review.JobMatchScore))
		output.WriteString(review.Summary)
		output.WriteString("\n\n")
		if len(review.NextSteps) > 0 {
			output.WriteString("### Next Steps\n\n")
			for i, step := range review.NextSteps {
				output.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
			}
			output.WriteString("\n")
		}
		if review.SalaryGuidance != nil {
			output.WriteString("### Salary Guidance\n\n")
			output.WriteString(fmt.Sprintf("**Suggested Range:** %s\n\n", review.SalaryGuidance.SuggestedRange))
			output.WriteString(review.SalaryGuidance.MarketContext)
			output.WriteString("\n\n")
			writeList(&output, review.SalaryGuidance.NegotiationPoints, "- ")
			output.WriteString("\n")
		}
		if review.InterviewPrep != nil {
			output.WriteString("### Interview Preparation\n\n")
			output.WriteString("**Likely Questions:**\n")
			writeList(&output, review.InterviewPrep.LikelyQuestions, "- ")
			output.WriteString("\n**Talking Points:**\n")
			writeList(&output, review.InterviewPrep.TalkingPoints, "- ")
			output.WriteString("\n**Questions To Ask:**\n")
			writeList(&output, review.InterviewPrep.QuestionsToAsk, "- ")
			output.WriteString("\n")
		}
	}

	output.WriteString("---\n\n")
	output.WriteString(fmt.Sprintf("*Model: %s | Tokens: %d | Processing time: %s*\n",
		result.Metadata.Model, result.Metadata.TotalTokens, result.Metadata.ProcessingTime))

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
