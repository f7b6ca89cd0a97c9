package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"
	jobpilotErrors "jobpilot/internal/errors"
	"jobpilot/internal/observability"
	"jobpilot/internal/pipeline"
	"jobpilot/internal/session"
	"jobpilot/internal/types"
)

var testLogger = jobpilotErrors.NewLogger(slog.LevelError)

type stubPipeline struct {
	startSession *session.Session
	startErr     error
	progress     *pipeline.Progress
	progressErr  error
	results      *types.AnalysisResult
	resultsErr   error
	cancelErr    error
	load         pipeline.Load
	history      []pipeline.HistoryEntry
	total        int
	removed      int
	cleanupAge   time.Duration
}

func (p *stubPipeline) Start(ctx context.Context, req types.AnalysisRequest) (*session.Session, error) {
	if p.startErr != nil {
		return nil, p.startErr
	}
	if p.startSession != nil {
		return p.startSession, nil
	}
	return session.New(req), nil
}

func (p *stubPipeline) GetProgress(id string) (*pipeline.Progress, error) {
	return p.progress, p.progressErr
}

func (p *stubPipeline) GetResults(id string) (*types.AnalysisResult, error) {
	return p.results, p.resultsErr
}

func (p *stubPipeline) Cancel(id string) (*session.Session, error) {
	if p.cancelErr != nil {
		return nil, p.cancelErr
	}
	s := session.New(types.AnalysisRequest{})
	s.ID = id
	s.Status = session.StatusCancelled
	return s, nil
}

func (p *stubPipeline) History(limit, offset int) pipeline.HistoryPage {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return pipeline.HistoryPage{Sessions: p.history, Total: p.total, Limit: limit, Offset: offset}
}

func (p *stubPipeline) Cleanup(maxAge time.Duration) int {
	p.cleanupAge = maxAge
	return p.removed
}

func (p *stubPipeline) Health() pipeline.Load { return p.load }

type stubModels struct {
	available bool
}

func (m *stubModels) GetModelInfo(ctx context.Context) map[string]*ai.ModelInfo {
	return map[string]*ai.ModelInfo{
		"analysis":   {Name: "test-model", Available: m.available},
		"research":   {Name: "test-model", Available: m.available},
		"generation": {Name: "test-model", Available: m.available},
	}
}

func (m *stubModels) CircuitBreakerStats() map[string]any {
	return map[string]any{"overall_healthy": true}
}

func testAppConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			SessionTTL:          time.Hour,
			CleanupInterval:     time.Minute,
			BusyThreshold:       10,
			OverloadedThreshold: 20,
		},
		Observability: config.ObservabilityConfig{
			HealthCheck: config.HealthCheckConfig{Timeout: 5 * time.Second},
		},
	}
}

func newTestServer(t *testing.T, p *stubPipeline, models *stubModels, apiKeys []string) *Server {
	t.Helper()

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("failed to create observability manager: %v", err)
	}

	cfg := ServerConfig{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		APIKeys:        apiKeys,
		MaxRequestSize: 1 << 20,
	}
	return NewServer(testAppConfig(), cfg, p, models, om, testLogger)
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func validRequestBody() types.AnalysisRequest {
	return types.AnalysisRequest{
		JobDescription: "We are hiring a senior backend engineer to build APIs in Go.",
		ResumeText: "Experienced backend engineer with eight years building distributed " +
			"systems, HTTP APIs, and data pipelines in Go and Python.",
	}
}

func TestSubmitAccepted(t *testing.T) {
	srv := newTestServer(t, &stubPipeline{}, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	rec := postJSON(t, mux, "/api/v1/analyze", validRequestBody(), nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SubmitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a session id in the response")
	}
	if resp.Status != session.StatusPending {
		t.Errorf("expected pending status, got %q", resp.Status)
	}
	if len(resp.Steps) != session.StepCount {
		t.Errorf("expected %d steps, got %d", session.StepCount, len(resp.Steps))
	}
}

func TestSubmitValidationErrorMapsTo400(t *testing.T) {
	p := &stubPipeline{
		startErr: jobpilotErrors.NewValidationError(jobpilotErrors.ErrCodeInvalidRequest,
			"jobDescription must be at least 50 characters", nil),
	}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	rec := postJSON(t, mux, "/api/v1/analyze", validRequestBody(), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != jobpilotErrors.ErrCodeInvalidRequest {
		t.Errorf("expected error code %q, got %q", jobpilotErrors.ErrCodeInvalidRequest, resp.Error)
	}
}

func TestSubmitRejectsMissingContentType(t *testing.T) {
	srv := newTestServer(t, &stubPipeline{}, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing content type, got %d", rec.Code)
	}
}

func TestProgressNotFoundMapsTo404(t *testing.T) {
	p := &stubPipeline{
		progressErr: jobpilotErrors.NewNotFoundError(jobpilotErrors.ErrCodeSessionNotFound,
			"session not found", nil),
	}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/analysis_missing/progress", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResultsNotReadyMapsTo409(t *testing.T) {
	p := &stubPipeline{
		resultsErr: jobpilotErrors.NewNotReadyError(jobpilotErrors.ErrCodeResultsNotReady,
			"analysis results are not ready", nil),
	}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/analysis_abc/results", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != jobpilotErrors.ErrCodeResultsNotReady {
		t.Errorf("expected error code %q, got %q", jobpilotErrors.ErrCodeResultsNotReady, resp.Error)
	}
}

func TestCancelReturnsSessionStatus(t *testing.T) {
	srv := newTestServer(t, &stubPipeline{}, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	rec := postJSON(t, mux, "/api/v1/analysis/analysis_abc/cancel", struct{}{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp CancelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != "analysis_abc" {
		t.Errorf("expected session id echoed back, got %q", resp.SessionID)
	}
	if resp.Status != session.StatusCancelled {
		t.Errorf("expected cancelled status, got %q", resp.Status)
	}
}

func TestHistoryPaging(t *testing.T) {
	p := &stubPipeline{
		history: []pipeline.HistoryEntry{{SessionID: "analysis_1"}, {SessionID: "analysis_2"}},
		total:   5,
	}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp pipeline.HistoryPage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 5 || len(resp.Sessions) != 2 {
		t.Errorf("unexpected paging: total=%d sessions=%d", resp.Total, len(resp.Sessions))
	}
	if resp.Limit != 2 || resp.Offset != 1 {
		t.Errorf("expected limit/offset echoed back, got %d/%d", resp.Limit, resp.Offset)
	}
}

func TestHistoryReportsEffectivePaging(t *testing.T) {
	p := &stubPipeline{
		history: []pipeline.HistoryEntry{{SessionID: "analysis_1"}},
		total:   1,
	}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?limit=1000&offset=-3", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp pipeline.HistoryPage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Limit != 20 || resp.Offset != 0 {
		t.Errorf("expected clamped limit/offset 20/0, got %d/%d", resp.Limit, resp.Offset)
	}
}

func TestCleanupUsesConfiguredTTL(t *testing.T) {
	p := &stubPipeline{removed: 3}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	rec := postJSON(t, mux, "/api/v1/analysis/cleanup", struct{}{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if p.cleanupAge != time.Hour {
		t.Errorf("expected configured TTL of 1h, got %v", p.cleanupAge)
	}

	var resp CleanupResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Removed != 3 {
		t.Errorf("expected 3 removed, got %d", resp.Removed)
	}
}

func TestCleanupMaxAgeHoursOverride(t *testing.T) {
	p := &stubPipeline{}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	rec := postJSON(t, mux, "/api/v1/analysis/cleanup?maxAgeHours=48", struct{}{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if p.cleanupAge != 48*time.Hour {
		t.Errorf("expected 48h max age, got %v", p.cleanupAge)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, &stubPipeline{}, &stubModels{available: true}, []string{"secret-key-12345"})
	mux := srv.setupRoutes()

	rec := postJSON(t, mux, "/api/v1/analyze", validRequestBody(), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without API key, got %d", rec.Code)
	}

	rec = postJSON(t, mux, "/api/v1/analyze", validRequestBody(), map[string]string{"X-API-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid API key, got %d", rec.Code)
	}

	rec = postJSON(t, mux, "/api/v1/analyze", validRequestBody(), map[string]string{"X-API-Key": "secret-key-12345"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with valid API key, got %d", rec.Code)
	}

	rec = postJSON(t, mux, "/api/v1/analyze", validRequestBody(), map[string]string{"Authorization": "Bearer secret-key-12345"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with bearer token, got %d", rec.Code)
	}
}

func TestHealthReportsDegradedModel(t *testing.T) {
	srv := newTestServer(t, &stubPipeline{load: pipeline.Load{Status: "ok"}}, &stubModels{available: false}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unavailable model, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "degraded" {
		t.Errorf("expected degraded status, got %v", resp["status"])
	}
}

func TestHealthReportsOverloadedPipeline(t *testing.T) {
	p := &stubPipeline{load: pipeline.Load{Status: "overloaded", Processing: 25, Total: 30}}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for overloaded pipeline, got %d", rec.Code)
	}
}

func TestStatsIncludesPipelineLoad(t *testing.T) {
	p := &stubPipeline{load: pipeline.Load{Status: "busy", Processing: 12, Total: 40}}
	srv := newTestServer(t, p, &stubModels{available: true}, nil)
	mux := srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode stats response: %v", err)
	}
	pipelineStats, ok := resp["pipeline"].(map[string]any)
	if !ok {
		t.Fatal("expected pipeline stats in response")
	}
	if pipelineStats["status"] != "busy" {
		t.Errorf("expected busy pipeline status, got %v", pipelineStats["status"])
	}
	if rateLimiting, ok := resp["rate_limiting"].(map[string]any); !ok || rateLimiting["enabled"] != false {
		t.Errorf("expected rate limiting disabled in stats, got %v", resp["rate_limiting"])
	}
}
