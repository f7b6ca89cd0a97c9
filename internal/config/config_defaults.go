package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Analysis family (job analysis, resume parsing, skills gap)
	v.SetDefault("ai.analysis.provider", "gemini")
	v.SetDefault("ai.analysis.model", "")
	v.SetDefault("ai.analysis.timeout", 60*time.Second)
	v.SetDefault("ai.analysis.apiKey", "")
	v.SetDefault("ai.analysis.maxRetries", 2)
	v.SetDefault("ai.analysis.temperature", 0.2) // Low temperature for consistent extraction
	v.SetDefault("ai.analysis.useSystemPrompts", true)

	// AI Configuration - Research family (company research)
	v.SetDefault("ai.research.provider", "gemini")
	v.SetDefault("ai.research.model", "")
	v.SetDefault("ai.research.timeout", 75*time.Second)
	v.SetDefault("ai.research.apiKey", "")
	v.SetDefault("ai.research.maxRetries", 2)
	v.SetDefault("ai.research.temperature", 0.4)
	v.SetDefault("ai.research.useSystemPrompts", true)

	// AI Configuration - Generation family (enhancement, cover letter, review)
	v.SetDefault("ai.generation.provider", "gemini")
	v.SetDefault("ai.generation.model", "")
	v.SetDefault("ai.generation.timeout", 90*time.Second) // Longer timeout for long-form output
	v.SetDefault("ai.generation.apiKey", "")
	v.SetDefault("ai.generation.maxRetries", 2)
	v.SetDefault("ai.generation.temperature", 0.7) // Higher temperature for writing tasks
	v.SetDefault("ai.generation.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults for all operation families
	for _, family := range []string{"analysis", "research", "generation"} {
		v.SetDefault("ai."+family+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+family+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+family+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+family+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+family+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+family+".circuitBreaker.failureThreshold", 0.6)
	}

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024) // 1MB

	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")           // TLS 1.2 minimum
	v.SetDefault("server.tls.cipherSuites", []string{})    // Use Go defaults
	v.SetDefault("server.tls.clientAuthPolicy", "require") // require, request, verify

	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Pipeline Configuration
	v.SetDefault("pipeline.sessionTTL", 24*time.Hour)
	v.SetDefault("pipeline.cleanupInterval", 10*time.Minute)
	v.SetDefault("pipeline.busyThreshold", 10)
	v.SetDefault("pipeline.overloadedThreshold", 20)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobpilot")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
