package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/backgammon-go/internal/api/middleware"
	"github.com/mcoot/backgammon-go/internal/api/request"
	"github.com/mcoot/backgammon-go/internal/api/response"
	"github.com/mcoot/backgammon-go/internal/services/auth"
)

// ParticipantHandler handles participant endpoints
type ParticipantHandler struct {
	authService auth.ServiceInterface
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(authService auth.ServiceInterface) *ParticipantHandler {
	return &ParticipantHandler{
		authService: authService,
	}
}

// Create handles POST /api/v1/participants
func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session, err := h.authService.CreateGuestParticipant(r.Context(), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// GetMe handles GET /api/v1/participants/me
func (h *ParticipantHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	participant := middleware.MustGetParticipant(r.Context())
	response.JSON(w, http.StatusOK, response.ParticipantFromModel(participant))
}
