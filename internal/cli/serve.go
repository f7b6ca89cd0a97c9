package cli

import (
	"fmt"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"
	"jobpilot/internal/observability"
	"jobpilot/internal/pipeline"
	"jobpilot/internal/server"
	"jobpilot/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for job application analysis",
	Long: `Start an HTTP server that provides REST API endpoints for running the
application analysis pipeline and tracking its progress.

Available endpoints:
- POST /api/v1/analyze: Submit a job description and resume for analysis
- GET /api/v1/analysis/{id}/progress: Track step-by-step analysis progress
- GET /api/v1/analysis/{id}/results: Retrieve completed analysis results
- POST /api/v1/analysis/{id}/cancel: Cancel an in-flight analysis
- GET /api/v1/analysis: List recent analysis sessions
- POST /api/v1/analysis/cleanup: Remove expired sessions
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
	bindFlag("server.tls.cafile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	obsConfig := observability.GetObservabilityConfig(cfg, Version)
	om, err := observability.NewObservabilityManager(obsConfig, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	aiService, err := ai.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	store := session.NewMemoryStore()
	orchestrator := pipeline.NewOrchestrator(store, aiService, cfg.Pipeline, logger, om.GetMetrics())

	// Hot-reload externalized prompt files while the server runs
	if watcher := config.NewPromptWatcher(cfg, logger); watcher != nil {
		if err := watcher.Start(); err != nil {
			logger.Warn("Prompt file watching unavailable", "error", err)
		} else {
			defer func() {
				if err := watcher.Stop(); err != nil {
					logger.Warn("Failed to stop prompt watcher", "error", err)
				}
			}()
		}
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, orchestrator, aiService, om, logger).Start()
}
