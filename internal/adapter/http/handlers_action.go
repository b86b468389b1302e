package http

import (
	"net/http"
	"strconv"

	"github.com/tokyoflo/platform/internal/domain/action"
	"github.com/tokyoflo/platform/internal/middleware"
)

// RecordAction handles POST /api/v1/actions. The tenant comes from the
// resolved host, never from the request body.
func (h *Handlers) RecordAction(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolutionFromContext(r.Context())
	if res == nil || res.Tenant == nil {
		writeError(w, http.StatusNotFound, "no tenant context")
		return
	}

	req, ok := readJSON[action.RecordRequest](w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.Actions.RecordAction(r.Context(), res.Tenant.ID, req.Name, req.Metadata)
	if err != nil {
		writeDomainError(w, err, "action not recorded")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListActions handles GET /api/v1/actions
func (h *Handlers) ListActions(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolutionFromContext(r.Context())
	if res == nil || res.Tenant == nil {
		writeError(w, http.StatusNotFound, "no tenant context")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	actions, err := h.Actions.Recent(r.Context(), res.Tenant.ID, limit)
	if err != nil {
		writeDomainError(w, err, "actions not found")
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

// StartVisit handles POST /api/v1/visits
func (h *Handlers) StartVisit(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolutionFromContext(r.Context())
	if res == nil || res.Tenant == nil {
		writeError(w, http.StatusNotFound, "no tenant context")
		return
	}

	id, err := h.Actions.StartVisit(r.Context(), res.Tenant.ID)
	if err != nil {
		writeDomainError(w, err, "visit not recorded")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"visit_id": id})
}

// EndVisit handles POST /api/v1/visits/{id}/end
func (h *Handlers) EndVisit(w http.ResponseWriter, r *http.Request) {
	res := middleware.ResolutionFromContext(r.Context())
	if res == nil || res.Tenant == nil {
		writeError(w, http.StatusNotFound, "no tenant context")
		return
	}

	if err := h.Actions.EndVisit(r.Context(), res.Tenant.ID, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "visit not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}
