package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/logger"
	batchuc "github.com/kailas-cloud/formdex/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/formdex/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/formdex/internal/usecase/intake"
	schemauc "github.com/kailas-cloud/formdex/internal/usecase/schema"
)

// defaultMaxBodyBytes caps request bodies when not configured.
const defaultMaxBodyBytes = 4 << 20

// ErrorCode is the machine-readable error code of an API error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeInvalidSchema        ErrorCode = "invalid_schema"
	CodeRequiredFieldMissing ErrorCode = "required_field_missing"
	CodeConfigurationMissing ErrorCode = "configuration_missing"
	CodeNotFound             ErrorCode = "not_found"
	CodeDuplicate            ErrorCode = "duplicate"
	CodeAlreadyExists        ErrorCode = "already_exists"
	CodeRevisionConflict     ErrorCode = "revision_conflict"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Field      string    `json:"field,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	MatchedIDs []string  `json:"matched_ids,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the HTTP API over the schema registry and the intake pipeline.
type Server struct {
	schemas       *schemauc.Service
	intake        *intakeuc.Service
	batch         *batchuc.Service
	health        *healthuc.Service
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	schemas *schemauc.Service,
	intake *intakeuc.Service,
	batch *batchuc.Service,
	health *healthuc.Service,
) *Server {
	s := &Server{
		schemas:      schemas,
		intake:       intake,
		batch:        batch,
		health:       health,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		conflictHandler,
		validationHandler,
		requiredFieldHandler,
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeInvalidSchema),
		sentinelHandler(domain.ErrConfigurationMissing, http.StatusNotFound, CodeConfigurationMissing),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
	}
	return s
}

// WithMaxBodyBytes configures the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/tenants/{tenant}", func(r chi.Router) {
		r.Put("/schema", s.UpsertSchema)
		r.Get("/schema", s.GetSchema)
		r.Delete("/schema", s.DeleteSchema)
		r.Get("/facets", s.GetFacets)

		r.Post("/{kind}", s.CreateRecord)
		r.Get("/{kind}", s.SearchRecords)
		r.Post("/{kind}/import", s.ImportRecords)
		r.Get("/{kind}/{id}", s.GetRecord)
		r.Put("/{kind}/{id}", s.EditRecord)
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrConfigurationMissing,
		domain.ErrConflict,
		domain.ErrAlreadyExists,
		domain.ErrRevisionConflict,
		domain.ErrInvalidSchema,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// revisionConflictHandler answers a failed If-Match with the current revision as ETag.
func revisionConflictHandler(w http.ResponseWriter, err error) bool {
	var rce *domain.RevisionConflictError
	if !errors.As(err, &rce) {
		return false
	}
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(rce.CurrentRevision)))
	writeJSON(w, http.StatusPreconditionFailed, map[string]any{
		"code":             CodeRevisionConflict,
		"message":          domain.ErrRevisionConflict.Error(),
		"current_revision": rce.CurrentRevision,
	})
	return true
}

func conflictHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrConflict) {
		return false
	}
	writeJSON(w, http.StatusConflict, errorBody(err))
	return true
}

// validationHandler reports field-level validation failures, including those inside an invalid schema.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorBody(err))
	return true
}

func requiredFieldHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrRequiredFieldMissing) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorBody(err))
	return true
}

// errorBody renders err as an ErrorResponse without exposing internal causes.
func errorBody(err error) ErrorResponse {
	var (
		ce *domain.ConflictError
		ve *domain.ValidationError
		rf *domain.RequiredFieldError
	)
	switch {
	case errors.As(err, &ce):
		return ErrorResponse{Code: CodeDuplicate, Message: ce.Error(), MatchedIDs: ce.MatchedIDs}
	case errors.As(err, &ve):
		code := CodeValidationFailed
		if errors.Is(err, domain.ErrInvalidSchema) {
			code = CodeInvalidSchema
		}
		return ErrorResponse{Code: code, Message: ve.Error(), Field: ve.Field, Reason: ve.Reason}
	case errors.As(err, &rf):
		return ErrorResponse{Code: CodeRequiredFieldMissing, Message: rf.Error(), Field: rf.Field}
	case errors.Is(err, domain.ErrConfigurationMissing):
		return ErrorResponse{Code: CodeConfigurationMissing, Message: safeDomainMessage(err)}
	case errors.Is(err, domain.ErrNotFound):
		return ErrorResponse{Code: CodeNotFound, Message: safeDomainMessage(err)}
	case errors.Is(err, domain.ErrAlreadyExists):
		return ErrorResponse{Code: CodeAlreadyExists, Message: safeDomainMessage(err)}
	default:
		return ErrorResponse{Code: CodeInternalError, Message: "internal error"}
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
