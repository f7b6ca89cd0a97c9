package ai

import (
	"google.golang.org/genai"

	"jobpilot/internal/config"
)

func stringArray() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
}

// generateConfig wraps a response schema in a JSON-mode generation config and
// applies the family temperature when set
func generateConfig(cfg *config.OperationAIConfig, schema *genai.Schema) *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *cfg.Temperature > 0 {
		genaiConfig.Temperature = cfg.Temperature
	}
	return genaiConfig
}

// buildAnalyzeJobSchema creates the schema for job description analysis
func (g *GeminiProvider) buildAnalyzeJobSchema() *genai.GenerateContentConfig {
	return generateConfig(g.config, &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"jobTitle":         {Type: genai.TypeString},
			"companyName":      {Type: genai.TypeString},
			"requiredSkills":   stringArray(),
			"preferredSkills":  stringArray(),
			"responsibilities": stringArray(),
			"experienceLevel":  {Type: genai.TypeString},
			"education":        {Type: genai.TypeString},
			"keywords":         stringArray(),
			"salaryRange":      {Type: genai.TypeString},
			"location":         {Type: genai.TypeString},
			"remotePolicy":     {Type: genai.TypeString},
		},
		Required: []string{"jobTitle", "companyName", "requiredSkills", "responsibilities", "experienceLevel", "keywords"},
	})
}

// buildResearchCompanySchema creates the schema for company research
func (g *GeminiProvider) buildResearchCompanySchema() *genai.GenerateContentConfig {
	return generateConfig(g.config, &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"companyName":     {Type: genai.TypeString},
			"industry":        {Type: genai.TypeString},
			"companySize":     {Type: genai.TypeString},
			"culture":         stringArray(),
			"recentNews":      stringArray(),
			"products":        stringArray(),
			"competitors":     stringArray(),
			"interviewThemes": stringArray(),
		},
		Required: []string{"companyName", "industry", "culture", "interviewThemes"},
	})
}

// buildParseResumeSchema creates the schema for resume parsing
func (g *GeminiProvider) buildParseResumeSchema() *genai.GenerateContentConfig {
	return generateConfig(g.config, &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"contact": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"email":    {Type: genai.TypeString},
					"phone":    {Type: genai.TypeString},
					"location": {Type: genai.TypeString},
					"linkedin": {Type: genai.TypeString},
				},
				Required: []string{"name"},
			},
			"summary": {Type: genai.TypeString},
			"skills":  stringArray(),
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":        {Type: genai.TypeString},
						"company":      {Type: genai.TypeString},
						"duration":     {Type: genai.TypeString},
						"achievements": stringArray(),
					},
					Required: []string{"title", "company"},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"degree":      {Type: genai.TypeString},
						"institution": {Type: genai.TypeString},
						"year":        {Type: genai.TypeString},
					},
					Required: []string{"degree", "institution"},
				},
			},
			"certifications":    stringArray(),
			"yearsOfExperience": {Type: genai.TypeString},
		},
		Required: []string{"contact", "skills", "experience"},
	})
}

// buildSkillsGapSchema creates the schema for skills gap analysis
func (g *GeminiProvider) buildSkillsGapSchema() *genai.GenerateContentConfig {
	return generateConfig(g.config, &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"matchingSkills":     stringArray(),
			"missingSkills":      stringArray(),
			"transferableSkills": stringArray(),
			"matchScore":         {Type: genai.TypeInteger},
			"strengths":          stringArray(),
			"recommendations":    stringArray(),
		},
		Required: []string{"matchingSkills", "missingSkills", "transferableSkills", "matchScore", "strengths", "recommendations"},
	})
}

// buildEnhanceResumeSchema creates the schema for resume enhancement
func (g *GeminiProvider) buildEnhanceResumeSchema() *genai.GenerateContentConfig {
	return generateConfig(g.config, &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"recommendations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"section":   {Type: genai.TypeString},
						"current":   {Type: genai.TypeString},
						"suggested": {Type: genai.TypeString},
						"reason":    {Type: genai.TypeString},
						"priority":  {Type: genai.TypeString},
					},
					Required: []string{"section", "current", "suggested", "reason", "priority"},
				},
			},
			"keywordSuggestions": stringArray(),
			"summaryRewrite":     {Type: genai.TypeString},
			"overallAssessment":  {Type: genai.TypeString},
		},
		Required: []string{"recommendations", "keywordSuggestions", "summaryRewrite", "overallAssessment"},
	})
}

// buildCoverLetterSchema creates the schema for cover letter generation
func (g *GeminiProvider) buildCoverLetterSchema() *genai.GenerateContentConfig {
	return generateConfig(g.config, &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"content":    {Type: genai.TypeString},
			"tone":       {Type: genai.TypeString},
			"wordCount":  {Type: genai.TypeInteger},
			"highlights": stringArray(),
		},
		Required: []string{"content", "tone", "wordCount", "highlights"},
	})
}

// buildReviewSchema creates the schema for the final application review
func (g *GeminiProvider) buildReviewSchema(includeSalary, includeInterview bool) *genai.GenerateContentConfig {
	properties := map[string]*genai.Schema{
		"summary":             {Type: genai.TypeString},
		"applicationStrength": {Type: genai.TypeString},
		"jobMatchScore":       {Type: genai.TypeInteger},
		"nextSteps":           stringArray(),
	}
	required := []string{"summary", "applicationStrength", "jobMatchScore", "nextSteps"}

	if includeSalary {
		properties["salaryGuidance"] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"suggestedRange":    {Type: genai.TypeString},
				"negotiationPoints": stringArray(),
				"marketContext":     {Type: genai.TypeString},
			},
			Required: []string{"suggestedRange", "negotiationPoints", "marketContext"},
		}
		required = append(required, "salaryGuidance")
	}
	if includeInterview {
		properties["interviewPrep"] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"likelyQuestions": stringArray(),
				"talkingPoints":   stringArray(),
				"questionsToAsk":  stringArray(),
			},
			Required: []string{"likelyQuestions", "talkingPoints", "questionsToAsk"},
		}
		required = append(required, "interviewPrep")
	}

	return generateConfig(g.config, &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	})
}
