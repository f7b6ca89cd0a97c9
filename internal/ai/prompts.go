package ai

import (
	"fmt"
	"strings"

	"jobpilot/internal/types"
)

// SystemPrompts contains system-level instructions for each pipeline operation
type SystemPrompts struct {
	AnalyzeJob          string
	ResearchCompany     string
	ParseResume         string
	AnalyzeSkillsGap    string
	EnhanceResume       string
	GenerateCoverLetter string
	ReviewApplication   string
}

// UserPrompts contains user-level prompt templates with placeholders for
// dynamic content
type UserPrompts struct {
	AnalyzeJob          string
	ResearchCompany     string
	ParseResume         string
	AnalyzeSkillsGap    string
	EnhanceResume       string
	GenerateCoverLetter string
	ReviewApplication   string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	AnalyzeJob: `You are an expert recruiter and job-market analyst. Your role is to read job postings and extract their essential structure with precision:

- Identify the exact job title and hiring company
- Separate hard requirements from nice-to-haves
- Surface the keywords an applicant tracking system would match on
- Never invent information that is not present in the posting`,

	ResearchCompany: `You are a company research analyst who prepares candidates for job applications. You summarize what is generally known about employers:

- Industry, size, products, and main competitors
- Culture signals and stated values
- Themes that commonly come up in their interviews

Be factual and conservative. When something is not publicly known, say so rather than speculating.`,

	ParseResume: `You are an expert resume parser. You convert free-form resume text into structured data:

- Extract contact details, work history, education, and skills exactly as written
- Never invent, embellish, or infer information that is not present
- Preserve the candidate's own wording in achievement bullets`,

	AnalyzeSkillsGap: `You are a career advisor specializing in candidate-role fit. You compare a candidate's background against a job's requirements:

- Identify exact skill matches, missing skills, and transferable skills
- Score the overall match honestly, without inflating it
- Ground every conclusion in the provided data`,

	EnhanceResume: `You are an expert resume writer with a strict commitment to honesty. You suggest improvements that make a resume more relevant to a specific role:

- NEVER invent, exaggerate, or misattribute skills or experiences
- Every suggestion must be traceable to the candidate's actual background
- Prioritize changes by their impact on this specific application`,

	GenerateCoverLetter: `You are a professional cover letter writer. You produce letters that:

- Connect the candidate's real experience to the role's requirements
- Reflect what is known about the company without flattery
- Match the requested tone and stay under 400 words
- Never claim skills or experiences the candidate does not have`,

	ReviewApplication: `You are a senior career coach performing a final review of a complete job application package. You assess:

- Overall application strength and job match
- Concrete next steps for the candidate
- Interview preparation and salary guidance when requested

Be direct and practical. The candidate needs an honest assessment, not encouragement.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	AnalyzeJob: `Analyze the following job posting and extract its structure.

Identify the job title, company name, required skills, preferred skills, main responsibilities, experience level, education requirements, ATS keywords, salary range (if stated), location, and remote policy. Use empty values for anything the posting does not state.

**Job Posting:**
-----
%s
-----
%s`,

	ResearchCompany: `Research the company named below for a candidate preparing a job application.

Summarize the industry, company size, culture signals, recent developments, main products, competitors, and themes that commonly come up in their interviews. Only include information that is generally known; mark uncertain items clearly.

**Company:** %s

**Role context from the job posting:**
-----
%s
-----`,

	ParseResume: `Parse the following resume into structured data.

Extract contact information, professional summary, skills, work experience (with achievements per position), education, certifications, and total years of experience. Preserve the candidate's wording; use empty values for anything not present.

**Resume:**
-----
%s
-----`,

	AnalyzeSkillsGap: `Compare the candidate's background against the job requirements.

Identify matching skills, missing skills, and transferable skills. Score the overall match from 0 to 100. List the candidate's strengths for this role and recommend how to address the most important gaps.

**Job Requirements:**
-----
%s
-----

**Candidate Background:**
-----
%s
-----`,

	EnhanceResume: `Suggest improvements to make this resume more effective for the target role.

For each recommendation give the resume section, the current content, the suggested replacement, the reason, and a priority (high, medium, low). Suggest ATS keywords to add and rewrite the professional summary for this role. Only use skills and experiences present in the candidate's background.

**Target Role:**
-----
%s
-----

**Candidate Background:**
-----
%s
-----

**Skills Gap Analysis:**
-----
%s
-----
%s`,

	GenerateCoverLetter: `Write a cover letter for this application.

Connect the candidate's strongest relevant experience to the role's requirements and reference what is known about the company where it strengthens the letter. Keep it under 400 words.

**Target Role:**
-----
%s
-----

**Company Research:**
-----
%s
-----

**Candidate Background:**
-----
%s
-----

**Resume Recommendations:**
-----
%s
-----
%s`,

	ReviewApplication: `Perform a final review of this complete application package.

Provide an overall summary, an application strength assessment (strong, moderate, or needs work), a job match score from 0 to 100, and concrete next steps.

**Application Package:**
-----
%s
-----
%s`,
}

// preferenceDirectives renders user preferences as prompt instructions.
// Preferences only shape generated content, never control flow.
func preferenceDirectives(p types.Preferences) string {
	var directives []string

	if p.Tone != "" {
		directives = append(directives, fmt.Sprintf("Use a %s tone.", p.Tone))
	}
	if len(p.FocusAreas) > 0 {
		directives = append(directives, fmt.Sprintf("Emphasize these focus areas: %s.", strings.Join(p.FocusAreas, ", ")))
	}
	if p.IncludeSalaryGuidance {
		directives = append(directives, "Include salary guidance with a suggested range, negotiation points, and market context.")
	}
	if p.IncludeInterviewPrep {
		directives = append(directives, "Include interview preparation with likely questions, talking points, and questions to ask.")
	}

	if len(directives) == 0 {
		return ""
	}
	return "\n**Preferences:**\n" + strings.Join(directives, "\n")
}

// companyHint renders an optional known-company line for job analysis
func companyHint(companyName string) string {
	if companyName == "" {
		return ""
	}
	return fmt.Sprintf("\n**Known company name:** %s", companyName)
}
