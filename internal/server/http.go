package server

import (
	"context"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"
	jobpilotErrors "jobpilot/internal/errors"
	"jobpilot/internal/observability"
	"jobpilot/internal/pipeline"
	"jobpilot/internal/session"
	"jobpilot/internal/types"
)

// AnalysisService is the pipeline surface the HTTP layer drives.
// *pipeline.Orchestrator satisfies it.
type AnalysisService interface {
	Start(ctx context.Context, req types.AnalysisRequest) (*session.Session, error)
	GetProgress(id string) (*pipeline.Progress, error)
	GetResults(id string) (*types.AnalysisResult, error)
	Cancel(id string) (*session.Session, error)
	History(limit, offset int) pipeline.HistoryPage
	Cleanup(maxAge time.Duration) int
	Health() pipeline.Load
}

// ModelService exposes AI readiness information for health checks.
// *ai.Service satisfies it.
type ModelService interface {
	GetModelInfo(ctx context.Context) map[string]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// SubmitResponse is returned when a new analysis session is accepted
type SubmitResponse struct {
	SessionID string              `json:"sessionId"`
	Status    session.Status      `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	Steps     []session.StepState `json:"steps"`
}

// CancelResponse reports the session state after a cancellation request
type CancelResponse struct {
	SessionID string         `json:"sessionId"`
	Status    session.Status `json:"status"`
}

// CleanupResponse reports how many sessions a cleanup sweep removed
type CleanupResponse struct {
	Removed int `json:"removed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Application services
	Pipeline AnalysisService
	Models   ModelService

	// Observability
	Obs *observability.ObservabilityManager

	// Logger
	Logger *jobpilotErrors.Logger

	janitorDone chan struct{}
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, analysis AnalysisService, models ModelService, om *observability.ObservabilityManager, logger *jobpilotErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Pipeline:       analysis,
		Models:         models,
		Obs:            om,
		Logger:         logger,
	}
}
