package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// ModeSwitcher changes the active interaction mode.
type ModeSwitcher interface {
	SetMode(state.Mode) (bool, error)
}

// StateHandler exposes the shared interaction state.
type StateHandler struct {
	state *state.State
	modes ModeSwitcher
}

// NewStateHandler creates a StateHandler. modes may be nil, in which case
// the mode endpoint is read-only.
func NewStateHandler(st *state.State, modes ModeSwitcher) *StateHandler {
	return &StateHandler{state: st, modes: modes}
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type modeResponse struct {
	Mode    state.Mode `json:"mode"`
	Changed bool       `json:"changed"`
}

// State handles GET /api/state.
func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// Mode handles GET and PUT /api/mode.
func (h *StateHandler) Mode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, modeResponse{Mode: h.state.Mode()})
	case http.MethodPut:
		h.setMode(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StateHandler) setMode(w http.ResponseWriter, r *http.Request) {
	if h.modes == nil {
		writeError(w, http.StatusServiceUnavailable, "Mode switching unavailable")
		return
	}

	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	mode, ok := state.ParseMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "Mode must be POINTER or GESTURE")
		return
	}

	changed, err := h.modes.SetMode(mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, interaction.ErrModeUnavailable) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, modeResponse{Mode: h.state.Mode(), Changed: changed})
}
