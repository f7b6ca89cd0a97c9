package types

// AnalyzeJobInput is the input for the job description analysis step
type AnalyzeJobInput struct {
	JobDescription string `json:"jobDescription"`
	JobURL         string `json:"jobUrl,omitempty"`
	CompanyName    string `json:"companyName,omitempty"` // Caller-supplied hint, the analysis may refine it
}

// ResearchCompanyInput is the input for the company research step
type ResearchCompanyInput struct {
	CompanyName string       `json:"companyName"`
	Job         *JobAnalysis `json:"job"`
}

// ParseResumeInput is the input for the resume parsing step
type ParseResumeInput struct {
	ResumeText string `json:"resumeText"`
}

// AnalyzeSkillsGapInput is the input for the skills gap analysis step
type AnalyzeSkillsGapInput struct {
	Job    *JobAnalysis  `json:"job"`
	Resume *ParsedResume `json:"resume"`
}

// EnhanceResumeInput is the input for the resume enhancement step
type EnhanceResumeInput struct {
	Job         *JobAnalysis       `json:"job"`
	Resume      *ParsedResume      `json:"resume"`
	Gap         *SkillsGapAnalysis `json:"gap"`
	Preferences Preferences        `json:"preferences"`
}

// GenerateCoverLetterInput is the input for the cover letter generation step
type GenerateCoverLetterInput struct {
	Job         *JobAnalysis       `json:"job"`
	Research    *CompanyResearch   `json:"research"`
	Resume      *ParsedResume      `json:"resume"`
	Enhancement *ResumeEnhancement `json:"enhancement"`
	Preferences Preferences        `json:"preferences"`
}

// ReviewApplicationInput is the input for the final review step
type ReviewApplicationInput struct {
	Job         *JobAnalysis       `json:"job"`
	Research    *CompanyResearch   `json:"research"`
	Resume      *ParsedResume      `json:"resume"`
	Gap         *SkillsGapAnalysis `json:"gap"`
	Enhancement *ResumeEnhancement `json:"enhancement"`
	CoverLetter *CoverLetter       `json:"coverLetter"`
	Preferences Preferences        `json:"preferences"`
}
