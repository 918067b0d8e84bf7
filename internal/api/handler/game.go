package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/backgammon-go/internal/api/middleware"
	"github.com/mcoot/backgammon-go/internal/api/request"
	"github.com/mcoot/backgammon-go/internal/api/response"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/game"
)

// GameHandler handles the turn intents of the caller's current session
type GameHandler struct {
	gameController game.ControllerInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController game.ControllerInterface) *GameHandler {
	return &GameHandler{
		gameController: gameController,
	}
}

// RollInitial handles POST /api/v1/session/initial-roll
func (h *GameHandler) RollInitial(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())
	h.respond(w, func() (*model.Projection, error) {
		return h.gameController.RollInitial(r.Context(), participant.ID)
	})
}

// Roll handles POST /api/v1/session/roll
func (h *GameHandler) Roll(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())
	h.respond(w, func() (*model.Projection, error) {
		return h.gameController.Roll(r.Context(), participant.ID)
	})
}

// Move handles POST /api/v1/session/move
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())

	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Piece == nil || req.To == nil {
		WriteError(w, NewInvalidRequestError("piece and to are required"))
		return
	}

	move := model.Move{Piece: *req.Piece, To: *req.To}
	h.respond(w, func() (*model.Projection, error) {
		return h.gameController.Move(r.Context(), participant.ID, move)
	})
}

// Rematch handles POST /api/v1/session/rematch
func (h *GameHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())
	h.respond(w, func() (*model.Projection, error) {
		return h.gameController.Rematch(r.Context(), participant.ID)
	})
}

func (h *GameHandler) respond(w http.ResponseWriter, fn func() (*model.Projection, error)) {
	p, err := fn()
	if err != nil {
		WriteError(w, err)
		return
	}
	response.State(w, http.StatusOK, *p)
}
