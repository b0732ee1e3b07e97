package handler

import (
	"time"

	"github.com/yndnr/loresync/internal/core/domain"
	"github.com/yndnr/loresync/internal/telemetry/logger"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version"`
}

// SubsystemResponse describes one registered subsystem.
type SubsystemResponse struct {
	ID           string         `json:"id"`
	Version      uint64         `json:"version"`
	Fingerprint  string         `json:"fingerprint" table:"wide"`
	UpdatedAt    time.Time      `json:"updated_at"`
	RegisteredAt time.Time      `json:"registered_at" table:"wide"`
	ChangeHooks  int            `json:"change_hooks"`
	HasValidator bool           `json:"has_validator"`
	Payload      domain.Payload `json:"payload,omitempty" table:"wide"`
}

// ListSubsystemsResponse is the body of GET /v1/subsystems.
type ListSubsystemsResponse struct {
	Items []SubsystemResponse `json:"items"`
	Total int                 `json:"total"`
}

// ValidateResponse is the body of GET /v1/subsystems/{id}/validate.
type ValidateResponse struct {
	SubsystemID string `json:"subsystem_id"`
	Valid       bool   `json:"valid"`
}

// OperationResponse describes one propagation operation.
type OperationResponse struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Targets     []string   `json:"targets"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Version     uint64     `json:"version,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty" table:"wide"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" table:"wide"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
}

// ListOperationsResponse is the body of GET /v1/operations.
type ListOperationsResponse struct {
	Items []OperationResponse `json:"items"`
	Total int                 `json:"total"`
}

// maskPayload returns a deep copy of p with secret values replaced.
func maskPayload(p domain.Payload) domain.Payload {
	out := p.Clone()
	maskInPlace(out)
	return out
}

func maskInPlace(m map[string]any) {
	for k, v := range m {
		if logger.IsSecretKey(k) {
			m[k] = logger.RedactedValue
			continue
		}
		switch t := v.(type) {
		case domain.Payload:
			maskInPlace(t)
		case map[string]any:
			maskInPlace(t)
		}
	}
}
