package api

import (
	"fmt"
	"net/http"

	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/domain/model"
)

// RivalryHandler handles rivalry and contest requests.
type RivalryHandler struct {
	deps RivalryDependencies
}

// NewRivalryHandler creates a new rivalry handler.
func NewRivalryHandler(deps RivalryDependencies) *RivalryHandler {
	return &RivalryHandler{deps: deps}
}

type createRivalryRequest struct {
	GameID             string `json:"game_id"`
	ParticipantA       string `json:"participant_a"`
	ParticipantB       string `json:"participant_b"`
	TemplateTierListID string `json:"template_tier_list_id,omitempty"`
}

type resultRequest struct {
	Result *int `json:"result"`
}

type shuffleRequest struct {
	Side string `json:"side"`
}

// HandleCreateRivalry handles POST /rivalries requests.
func (h *RivalryHandler) HandleCreateRivalry(w http.ResponseWriter, r *http.Request) {
	var req createRivalryRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	view, err := h.deps.CreateRivalry(r.Context(), service.CreateRivalryRequest{
		GameID:             req.GameID,
		ParticipantA:       req.ParticipantA,
		ParticipantB:       req.ParticipantB,
		TemplateTierListID: req.TemplateTierListID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleGetRivalry handles GET /rivalries/{id} requests.
func (h *RivalryHandler) HandleGetRivalry(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Rivalry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleResolve handles POST /rivalries/{id}/result requests. The result is
// the signed margin of the open contest: positive means side A won.
func (h *RivalryHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Result == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing result", ErrBadRequest))
		return
	}
	res, err := h.deps.ResolveContest(r.Context(), r.PathValue("id"), *req.Result)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleUndo handles POST /rivalries/{id}/undo requests.
func (h *RivalryHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.UndoLastContest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleShuffle handles POST /rivalries/{id}/shuffle requests.
func (h *RivalryHandler) HandleShuffle(w http.ResponseWriter, r *http.Request) {
	var req shuffleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	side, ok := model.ParseSide(req.Side)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: side must be a or b", ErrBadRequest))
		return
	}
	view, err := h.deps.ShuffleContest(r.Context(), r.PathValue("id"), side)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
