package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/backgammon-go/internal/api/middleware"
	"github.com/mcoot/backgammon-go/internal/api/response"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/push"
	"github.com/mcoot/backgammon-go/internal/services/game"
	"github.com/mcoot/backgammon-go/internal/services/lobby"
)

// SessionHandler handles creating, joining and watching sessions
type SessionHandler struct {
	lobbyController *lobby.Controller
	gameController  *game.Controller
	hubManager      *push.HubManager
	logger          *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	lobbyController *lobby.Controller,
	gameController *game.Controller,
	hubManager *push.HubManager,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		lobbyController: lobbyController,
		gameController:  gameController,
		hubManager:      hubManager,
		logger:          logger,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())

	sess, err := h.lobbyController.CreateSession(r.Context(), participant.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.State(w, http.StatusCreated, h.gameController.Project(sess, model.SideZero))
}

// Join handles POST /api/v1/sessions/{code}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())
	code := model.NormalizeCode(mux.Vars(r)["code"])

	sess, err := h.lobbyController.JoinSession(r.Context(), code, participant.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.State(w, http.StatusOK, h.gameController.Project(sess, model.SideOne))
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())

	p, err := h.gameController.GetState(r.Context(), participant.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.State(w, http.StatusOK, *p)
}

// Events handles GET /api/v1/session/events, a server-sent event stream of
// game-state projections for the caller
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())

	var initial *push.Message
	p, err := h.gameController.GetState(r.Context(), participant.ID)
	switch {
	case err == nil:
		msg, err := push.NewMessage(model.EventGameState, p)
		if err != nil {
			WriteError(w, err)
			return
		}
		initial = &msg
	case !errors.Is(err, model.ErrSessionNotFound):
		WriteError(w, err)
		return
	}

	push.ServeSSE(w, r, h.hubManager, participant.ID, initial)
}
