package handler

import (
	"net/http"

	"github.com/yndnr/loresync/internal/core/domain"
)

func (h *Handler) handleListOperations(w http.ResponseWriter, r *http.Request) {
	var ops []*domain.Operation
	if source := r.URL.Query().Get("source"); source != "" {
		ops = h.coord.OperationsFrom(source)
	} else {
		ops = h.coord.Operations()
	}

	items := make([]OperationResponse, len(ops))
	for i, op := range ops {
		items[i] = toOperationResponse(op)
	}
	h.writeJSON(w, r, http.StatusOK, ListOperationsResponse{Items: items, Total: len(items)})
}

func (h *Handler) handleGetOperation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	op, ok := h.coord.Status(id)
	if !ok {
		h.writeError(w, r, domain.ErrOperationNotFound.WithDetails(id))
		return
	}
	h.writeJSON(w, r, http.StatusOK, toOperationResponse(op))
}

func toOperationResponse(op *domain.Operation) OperationResponse {
	resp := OperationResponse{
		ID:          op.ID,
		Source:      op.Source,
		Targets:     op.Targets,
		Status:      string(op.Status),
		Error:       op.Error,
		StartedAt:   op.StartedAt,
		CompletedAt: op.CompletedAt,
	}
	if op.Snapshot != nil {
		resp.Version = op.Snapshot.Version()
		resp.Fingerprint = op.Snapshot.Fingerprint()
	}
	if d := op.Duration(); d > 0 {
		resp.DurationMS = d.Milliseconds()
	}
	return resp
}
