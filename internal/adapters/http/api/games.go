package api

import (
	"net/http"
)

// GameHandler handles roster provisioning.
type GameHandler struct {
	deps GameDependencies
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps GameDependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

type createGameRequest struct {
	Name     string   `json:"name"`
	Fighters []string `json:"fighters"`
}

// HandleCreateGame handles POST /games requests.
func (h *GameHandler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	game, err := h.deps.CreateGame(r.Context(), req.Name, req.Fighters)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}
