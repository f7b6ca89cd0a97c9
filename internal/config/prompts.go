package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Operation names for prompt lookup, one per pipeline step
const (
	OpAnalyzeJob          = "analyzeJob"
	OpResearchCompany     = "researchCompany"
	OpParseResume         = "parseResume"
	OpAnalyzeSkillsGap    = "analyzeSkillsGap"
	OpEnhanceResume       = "enhanceResume"
	OpGenerateCoverLetter = "generateCoverLetter"
	OpReviewApplication   = "reviewApplication"
)

// LoadedPromptSet holds resolved override prompt content for one operation.
// Empty strings mean no override, the provider falls back to its defaults.
type LoadedPromptSet struct {
	System string
	User   string
}

var (
	promptMu    sync.RWMutex
	promptStore = map[string]LoadedPromptSet{}
)

// GetPromptsForOperation returns a copy of the loaded prompt overrides for
// an operation. Safe for concurrent use with reloads.
func GetPromptsForOperation(operation string) LoadedPromptSet {
	promptMu.RLock()
	defer promptMu.RUnlock()
	return promptStore[operation]
}

func setLoadedPrompts(store map[string]LoadedPromptSet) {
	promptMu.Lock()
	defer promptMu.Unlock()
	promptStore = store
}

// promptPairs maps operation names to their configured prompt pairs
func (c *Config) promptPairs() map[string]*PromptPair {
	p := &c.AI.CustomPrompts
	return map[string]*PromptPair{
		OpAnalyzeJob:          &p.AnalyzeJob,
		OpResearchCompany:     &p.ResearchCompany,
		OpParseResume:         &p.ParseResume,
		OpAnalyzeSkillsGap:    &p.AnalyzeSkillsGap,
		OpEnhanceResume:       &p.EnhanceResume,
		OpGenerateCoverLetter: &p.GenerateCoverLetter,
		OpReviewApplication:   &p.ReviewApplication,
	}
}

// loadPromptsFromFiles resolves every operation's prompt overrides. File
// content takes precedence over inline config content.
func (c *Config) loadPromptsFromFiles() error {
	store := make(map[string]LoadedPromptSet)

	for op, pair := range c.promptPairs() {
		set := LoadedPromptSet{
			System: pair.System,
			User:   pair.User,
		}

		if pair.SystemFile != "" {
			content, err := loadPromptFromFile(pair.SystemFile, "system", op)
			if err != nil {
				return err
			}
			set.System = content
		}
		if pair.UserFile != "" {
			content, err := loadPromptFromFile(pair.UserFile, "user", op)
			if err != nil {
				return err
			}
			set.User = content
		}

		if set.System != "" || set.User != "" {
			store[op] = set
		}
	}

	setLoadedPrompts(store)
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	return trimmed, nil
}

// validatePromptFiles validates that configured prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for op, pair := range c.promptPairs() {
		validateFile(pair.SystemFile, "system", op)
		validateFile(pair.UserFile, "user", op)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// PromptFilePaths returns the configured prompt file paths, for the watcher
func (c *Config) PromptFilePaths() []string {
	var paths []string
	for _, pair := range c.promptPairs() {
		if pair.SystemFile != "" {
			paths = append(paths, pair.SystemFile)
		}
		if pair.UserFile != "" {
			paths = append(paths, pair.UserFile)
		}
	}
	return paths
}

// ReloadPrompts re-reads all prompt files and swaps in the new set
func (c *Config) ReloadPrompts() error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}
	return c.loadPromptsFromFiles()
}
