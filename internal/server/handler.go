package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	jobpilotErrors "jobpilot/internal/errors"
	"jobpilot/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createSubmitHandler accepts a new analysis request and launches a session
func (s *Server) createSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := s.Obs.Tracer("jobpilot.api")
		ctx, span := tracer.Start(ctx, "api.analyze.submit")
		defer span.End()

		var req types.AnalysisRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.String("operation", "submit"),
		)

		sess, err := s.Pipeline.Start(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("session.id", sess.ID),
		)

		writeJSONResponse(w, http.StatusAccepted, SubmitResponse{
			SessionID: sess.ID,
			Status:    sess.Status,
			CreatedAt: sess.CreatedAt,
			Steps:     sess.Steps,
		})
	}
}

// createProgressHandler reports live per-step and overall progress
func (s *Server) createProgressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.Obs.Tracer("jobpilot.api").Start(r.Context(), "api.analysis.progress")
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("session.id", id))

		progress, err := s.Pipeline.GetProgress(id)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.String("session.status", string(progress.Status)),
			attribute.Int("session.progress", progress.OverallProgress),
		)
		writeJSONResponse(w, http.StatusOK, progress)
	}
}

// createResultsHandler returns the final analysis for a completed session
func (s *Server) createResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.Obs.Tracer("jobpilot.api").Start(r.Context(), "api.analysis.results")
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("session.id", id))

		result, err := s.Pipeline.GetResults(id)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		writeJSONResponse(w, http.StatusOK, result)
	}
}

// createCancelHandler requests cooperative cancellation of a running session
func (s *Server) createCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.Obs.Tracer("jobpilot.api").Start(r.Context(), "api.analysis.cancel")
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("session.id", id))

		sess, err := s.Pipeline.Cancel(id)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		s.Logger.Info("Cancellation requested",
			"session_id", sess.ID,
			"status", string(sess.Status))
		span.SetAttributes(attribute.String("session.status", string(sess.Status)))

		writeJSONResponse(w, http.StatusOK, CancelResponse{
			SessionID: sess.ID,
			Status:    sess.Status,
		})
	}
}

// createHistoryHandler lists past and in-flight sessions, newest first
func (s *Server) createHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.Obs.Tracer("jobpilot.api").Start(r.Context(), "api.analysis.history")
		defer span.End()

		limit := parseQueryInt(r, "limit", 20)
		offset := parseQueryInt(r, "offset", 0)

		// The page echoes the paging values the pipeline actually applied
		page := s.Pipeline.History(limit, offset)
		span.SetAttributes(
			attribute.Int("history.total", page.Total),
			attribute.Int("history.returned", len(page.Sessions)),
		)

		writeJSONResponse(w, http.StatusOK, page)
	}
}

// createCleanupHandler triggers an immediate sweep of expired sessions.
// maxAgeHours overrides the configured session TTL when provided.
func (s *Server) createCleanupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.Obs.Tracer("jobpilot.api").Start(r.Context(), "api.analysis.cleanup")
		defer span.End()

		maxAge := s.AppConfig.Pipeline.SessionTTL
		if hours := parseQueryInt(r, "maxAgeHours", 0); hours > 0 {
			maxAge = time.Duration(hours) * time.Hour
		}

		removed := s.Pipeline.Cleanup(maxAge)
		span.SetAttributes(
			attribute.Int("cleanup.removed", removed),
			attribute.String("cleanup.max_age", maxAge.String()),
		)

		writeJSONResponse(w, http.StatusOK, CleanupResponse{Removed: removed})
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				s.Obs.GetMetrics().RecordRateLimitHit(r.Context(), r.URL.Path, r.Method)
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeAppError maps structured application errors to HTTP status codes
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *jobpilotErrors.AppError
	if !stderrors.As(err, &appErr) {
		writeErrorResponse(w, "Internal error", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case jobpilotErrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case jobpilotErrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case jobpilotErrors.ErrorTypeNotReady:
		status = http.StatusConflict
	case jobpilotErrors.ErrorTypeUpstream, jobpilotErrors.ErrorTypeProcessing:
		status = http.StatusBadGateway
	}

	writeErrorResponse(w, appErr.Code, appErr.Message, status)
}

// writeJSONResponse encodes v as the JSON response body
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseQueryInt reads an integer query parameter with a fallback
func parseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
