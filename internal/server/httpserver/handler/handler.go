package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/core/service"
	"github.com/yndnr/loresync/internal/telemetry/logger"
)

// Coordinator is the part of *service.Coordinator the handlers read.
type Coordinator interface {
	Subsystems() []string
	Lookup(id string) (*service.Registration, bool)
	CurrentSnapshot(id string) (*domain.Snapshot, bool)
	Validate(ctx context.Context, id string) bool
	Status(opID string) (*domain.Operation, bool)
	Operations() []*domain.Operation
	OperationsFrom(source string) []*domain.Operation
	Stats() service.Stats
}

// Handler routes inspection requests.
type Handler struct {
	coord Coordinator
	log   logger.Logger
	mux   *http.ServeMux
}

// New creates a Handler over coord.
func New(coord Coordinator, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	h := &Handler{
		coord: coord,
		log:   log,
		mux:   http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /v1/stats", h.handleStats)

	h.mux.HandleFunc("GET /v1/subsystems", h.handleListSubsystems)
	h.mux.HandleFunc("GET /v1/subsystems/{id}", h.handleGetSubsystem)
	h.mux.HandleFunc("GET /v1/subsystems/{id}/validate", h.handleValidateSubsystem)

	h.mux.HandleFunc("GET /v1/operations", h.handleListOperations)
	h.mux.HandleFunc("GET /v1/operations/{id}", h.handleGetOperation)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.GetErrorCode(err)
	status := errorCodeToHTTPStatus(code)
	message := err.Error()
	if code == "" {
		h.log.Error("internal error", "error", err, "path", r.URL.Path)
		code = "LS-SYS-5000"
		message = "internal server error"
	}

	requestID := getRequestID(r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message))
}

// getRequestID returns the id the RequestID middleware put on the request.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4220"):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(code, "LS-ARG-"), strings.HasPrefix(code, "LS-DATA-4"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
