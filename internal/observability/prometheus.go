package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"jobpilot/internal/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// GetPrometheusConfig derives Prometheus settings from the application config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9090"}
	}
	return PrometheusConfig{
		Enabled:  cfg.Observability.Prometheus.Enabled,
		Endpoint: cfg.Observability.Prometheus.Endpoint,
		Port:     cfg.Observability.Prometheus.Port,
	}
}

// newPrometheusReader creates the OTel metric reader backing the scrape
// endpoint. The exporter registers with the default Prometheus registry,
// which promhttp serves.
func newPrometheusReader() (metric.Reader, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	return exporter, nil
}

// newPrometheusServer builds the dedicated scrape server and starts it in
// the background. The caller owns shutdown.
func newPrometheusServer(cfg PrometheusConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("Prometheus metrics server listening",
			"addr", server.Addr,
			"endpoint", cfg.Endpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Prometheus metrics server failed", "error", err)
		}
	}()

	return server
}
