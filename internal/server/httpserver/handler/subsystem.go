package handler

import (
	"net/http"

	"github.com/yndnr/loresync/internal/core/domain"
)

func (h *Handler) handleListSubsystems(w http.ResponseWriter, r *http.Request) {
	ids := h.coord.Subsystems()
	items := make([]SubsystemResponse, 0, len(ids))
	for _, id := range ids {
		if view, ok := h.subsystem(id, false); ok {
			items = append(items, view)
		}
	}
	h.writeJSON(w, r, http.StatusOK, ListSubsystemsResponse{Items: items, Total: len(items)})
}

func (h *Handler) handleGetSubsystem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, ok := h.subsystem(id, true)
	if !ok {
		h.writeError(w, r, domain.UnregisteredSystem(id))
		return
	}
	h.writeJSON(w, r, http.StatusOK, view)
}

func (h *Handler) handleValidateSubsystem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.coord.Lookup(id); !ok {
		h.writeError(w, r, domain.UnregisteredSystem(id))
		return
	}
	h.writeJSON(w, r, http.StatusOK, ValidateResponse{
		SubsystemID: id,
		Valid:       h.coord.Validate(r.Context(), id),
	})
}

// subsystem builds the view of id. The payload is included only when
// withPayload is set, with secret keys masked.
func (h *Handler) subsystem(id string, withPayload bool) (SubsystemResponse, bool) {
	reg, ok := h.coord.Lookup(id)
	if !ok {
		return SubsystemResponse{}, false
	}
	snap, ok := h.coord.CurrentSnapshot(id)
	if !ok {
		return SubsystemResponse{}, false
	}

	view := SubsystemResponse{
		ID:           id,
		Version:      snap.Version(),
		Fingerprint:  snap.Fingerprint(),
		UpdatedAt:    snap.CreatedAt(),
		RegisteredAt: reg.RegisteredAt,
		ChangeHooks:  len(reg.ChangeHooks),
		HasValidator: reg.Validator != nil,
	}
	if withPayload {
		view.Payload = maskPayload(snap.Payload())
	}
	return view, true
}
