package api

import (
	"fmt"
	"net/http"
)

// TierListHandler handles manual tier list edits and audits.
type TierListHandler struct {
	deps TierListDependencies
}

// NewTierListHandler creates a new tier list handler.
func NewTierListHandler(deps TierListDependencies) *TierListHandler {
	return &TierListHandler{deps: deps}
}

type placeRequest struct {
	Position *int `json:"position"`
}

type standingRequest struct {
	Delta int `json:"delta"`
}

type enqueueAuditRequest struct {
	TierListID string `json:"tier_list_id,omitempty"`
}

// HandleGetTierList handles GET /tierlists/{id} requests.
func (h *TierListHandler) HandleGetTierList(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.TierList(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePlace handles POST /tierlists/{id}/slots/{slot}/place requests.
func (h *TierListHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Position == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing position", ErrBadRequest))
		return
	}
	view, err := h.deps.PlaceSlot(r.Context(), r.PathValue("id"), r.PathValue("slot"), *req.Position)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleBench handles POST /tierlists/{id}/slots/{slot}/bench requests.
func (h *TierListHandler) HandleBench(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.BenchSlot(r.Context(), r.PathValue("id"), r.PathValue("slot"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStanding handles POST /tierlists/{id}/standing requests. A negative
// delta promotes toward the top tier.
func (h *TierListHandler) HandleStanding(w http.ResponseWriter, r *http.Request) {
	var req standingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.deps.ShiftStanding(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleAudit handles POST /tierlists/{id}/audit requests. The audit runs
// inline and its report is returned.
func (h *TierListHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.AuditTierList(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleEnqueueAudits handles POST /audits requests. Without a tier list id
// every TierList is audited in the background.
func (h *TierListHandler) HandleEnqueueAudits(w http.ResponseWriter, r *http.Request) {
	var req enqueueAuditRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	job, err := h.deps.EnqueueAudit(r.Context(), req.TierListID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}
