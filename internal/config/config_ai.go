package config

// applyOperationDefaults applies global defaults to a family configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetAnalysisConfig returns the AI configuration for the analysis family
// (job analysis, resume parsing, skills gap) with fallback to global config
func (c *Config) GetAnalysisConfig() OperationAIConfig {
	config := c.AI.Analysis
	c.applyOperationDefaults(&config)
	return config
}

// GetResearchConfig returns the AI configuration for the research family
// (company research) with fallback to global config
func (c *Config) GetResearchConfig() OperationAIConfig {
	config := c.AI.Research
	c.applyOperationDefaults(&config)
	return config
}

// GetGenerationConfig returns the AI configuration for the generation family
// (resume enhancement, cover letter, final review) with fallback to global config
func (c *Config) GetGenerationConfig() OperationAIConfig {
	config := c.AI.Generation
	c.applyOperationDefaults(&config)
	return config
}
