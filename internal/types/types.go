package types

import "time"

// Preferences carries user-selected options that shape prompt construction.
// They never alter pipeline control flow, only the generated content.
type Preferences struct {
	Tone                  string   `json:"tone,omitempty"`
	FocusAreas            []string `json:"focusAreas,omitempty"`
	IncludeSalaryGuidance bool     `json:"includeSalaryGuidance,omitempty"`
	IncludeInterviewPrep  bool     `json:"includeInterviewPrep,omitempty"`
}

// AnalysisRequest is the submission payload that starts a pipeline run
type AnalysisRequest struct {
	JobDescription string      `json:"jobDescription"`
	JobURL         string      `json:"jobUrl,omitempty"`
	CompanyName    string      `json:"companyName,omitempty"`
	ResumeText     string      `json:"resumeText"`
	Preferences    Preferences `json:"preferences,omitempty"`
}

// JobAnalysis is the structured output of the job description analysis step
type JobAnalysis struct {
	JobTitle         string   `json:"jobTitle"`
	CompanyName      string   `json:"companyName"`
	RequiredSkills   []string `json:"requiredSkills"`
	PreferredSkills  []string `json:"preferredSkills"`
	Responsibilities []string `json:"responsibilities"`
	ExperienceLevel  string   `json:"experienceLevel"`
	Education        string   `json:"education"`
	Keywords         []string `json:"keywords"`
	SalaryRange      string   `json:"salaryRange"`
	Location         string   `json:"location"`
	RemotePolicy     string   `json:"remotePolicy"`
}

// CompanyResearch is the structured output of the company research step
type CompanyResearch struct {
	CompanyName     string   `json:"companyName"`
	Industry        string   `json:"industry"`
	CompanySize     string   `json:"companySize"`
	Culture         []string `json:"culture"`
	RecentNews      []string `json:"recentNews"`
	Products        []string `json:"products"`
	Competitors     []string `json:"competitors"`
	InterviewThemes []string `json:"interviewThemes"`
}

// ContactInfo holds contact details extracted from a resume
type ContactInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
}

// WorkExperience is a single position extracted from a resume
type WorkExperience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Duration     string   `json:"duration"`
	Achievements []string `json:"achievements"`
}

// Education is a single education entry extracted from a resume
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// ParsedResume is the structured output of the resume parsing step
type ParsedResume struct {
	Contact        ContactInfo      `json:"contact"`
	Summary        string           `json:"summary"`
	Skills         []string         `json:"skills"`
	Experience     []WorkExperience `json:"experience"`
	Education      []Education      `json:"education"`
	Certifications []string         `json:"certifications"`
	YearsOfExp     string           `json:"yearsOfExperience"`
}

// SkillsGapAnalysis is the structured output of the skills gap analysis step
type SkillsGapAnalysis struct {
	MatchingSkills     []string `json:"matchingSkills"`
	MissingSkills      []string `json:"missingSkills"`
	TransferableSkills []string `json:"transferableSkills"`
	MatchScore         int      `json:"matchScore"`
	Strengths          []string `json:"strengths"`
	Recommendations    []string `json:"recommendations"`
}

// ResumeRecommendation is a single suggested change to the resume
type ResumeRecommendation struct {
	Section   string `json:"section"`
	Current   string `json:"current"`
	Suggested string `json:"suggested"`
	Reason    string `json:"reason"`
	Priority  string `json:"priority"` // "high", "medium", or "low"
}

// ResumeEnhancement is the structured output of the resume enhancement step
type ResumeEnhancement struct {
	Recommendations    []ResumeRecommendation `json:"recommendations"`
	KeywordSuggestions []string               `json:"keywordSuggestions"`
	SummaryRewrite     string                 `json:"summaryRewrite"`
	OverallAssessment  string                 `json:"overallAssessment"`
}

// CoverLetter is the structured output of the cover letter generation step
type CoverLetter struct {
	Content    string   `json:"content"`
	Tone       string   `json:"tone"`
	WordCount  int      `json:"wordCount"`
	Highlights []string `json:"highlights"`
}

// SalaryGuidance is included in the final review when requested
type SalaryGuidance struct {
	SuggestedRange    string   `json:"suggestedRange"`
	NegotiationPoints []string `json:"negotiationPoints"`
	MarketContext     string   `json:"marketContext"`
}

// InterviewPrep is included in the final review when requested
type InterviewPrep struct {
	LikelyQuestions []string `json:"likelyQuestions"`
	TalkingPoints   []string `json:"talkingPoints"`
	QuestionsToAsk  []string `json:"questionsToAsk"`
}

// FinalReview is the structured output of the final review step
type FinalReview struct {
	Summary             string          `json:"summary"`
	ApplicationStrength string          `json:"applicationStrength"`
	JobMatchScore       int             `json:"jobMatchScore"`
	NextSteps           []string        `json:"nextSteps"`
	SalaryGuidance      *SalaryGuidance `json:"salaryGuidance,omitempty"`
	InterviewPrep       *InterviewPrep  `json:"interviewPrep,omitempty"`
}

// ProcessingMetadata records how a pipeline run was executed
type ProcessingMetadata struct {
	Model          string        `json:"model"`
	TotalTokens    int32         `json:"totalTokens"`
	ProcessingTime time.Duration `json:"processingTime"`
	StartedAt      time.Time     `json:"startedAt"`
	CompletedAt    time.Time     `json:"completedAt"`
}

// AnalysisResult is the final aggregate of all step outputs. It is immutable
// once assembled and attached to the session at completion.
type AnalysisResult struct {
	JobAnalysis       *JobAnalysis       `json:"jobAnalysis"`
	CompanyResearch   *CompanyResearch   `json:"companyResearch"`
	ParsedResume      *ParsedResume      `json:"parsedResume"`
	SkillsGapAnalysis *SkillsGapAnalysis `json:"skillsGapAnalysis"`
	ResumeEnhancement *ResumeEnhancement `json:"resumeEnhancement"`
	CoverLetter       *CoverLetter       `json:"coverLetter"`
	FinalReview       *FinalReview       `json:"finalReview"`
	Metadata          ProcessingMetadata `json:"metadata"`
}
