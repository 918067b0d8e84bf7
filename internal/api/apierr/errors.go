package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/auth"
	"github.com/mcoot/backgammon-go/internal/services/lobby"
	"github.com/mcoot/backgammon-go/internal/storage"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidDisplayName  = "INVALID_DISPLAY_NAME"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeInvalidJoinCode     = "INVALID_JOIN_CODE"
	CodeAlreadyStarted      = "ALREADY_STARTED"
	CodeAlreadyInSession    = "ALREADY_IN_SESSION"
	CodeWrongPhase          = "WRONG_PHASE"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeAlreadyRolled       = "ALREADY_ROLLED"
	CodeIllegalMove         = "ILLEGAL_MOVE"
	CodeConflict            = "CONFLICT"
	CodeUnavailable         = "UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Describe returns the status and client-facing error for err
func Describe(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Registry errors; AlreadyStarted wraps InvalidJoinCode so it goes first
	case errors.Is(err, model.ErrParticipantNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeParticipantNotFound, "Participant not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyStarted, "That game has already started"}}
	case errors.Is(err, model.ErrInvalidJoinCode):
		return &httpError{http.StatusNotFound, APIError{CodeInvalidJoinCode, "No game matches that code"}}
	case errors.Is(err, model.ErrSeatedElsewhere):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInSession, "Finish the game in progress first"}}
	case errors.Is(err, model.ErrAlreadyInSession):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInSession, "Already in this session"}}

	// Turn errors
	case errors.Is(err, model.ErrOpponentLeft):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Your opponent has moved on to another game"}}
	case errors.Is(err, model.ErrWrongPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Not allowed at this point of the game"}}
	case errors.Is(err, model.ErrOutOfTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrAlreadyRolled):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyRolled, "You have already rolled"}}
	case errors.Is(err, model.ErrIllegalMove):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeIllegalMove, err.Error()}}

	// Storage errors
	case errors.Is(err, storage.ErrConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Session changed concurrently, try again"}}
	case errors.Is(err, lobby.ErrNoFreeCode):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "No join code available, try again"}}

	// Auth errors
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrInvalidDisplayName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDisplayName, "Display name is too long"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
