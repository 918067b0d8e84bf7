package response

import (
	"time"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/auth"
)

// Participant represents a participant in API responses
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ParticipantFromModel converts a model.Participant to a response Participant
func ParticipantFromModel(p *model.Participant) Participant {
	return Participant{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
	}
}

// AuthResponse is the response for the participant creation endpoint
type AuthResponse struct {
	Participant  Participant `json:"participant"`
	SessionToken string      `json:"session_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from an auth session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Participant:  ParticipantFromModel(&s.Participant),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Connected is the payload of the connected event
type Connected struct {
	ParticipantID string `json:"participant_id"`
	SessionToken  string `json:"session_token,omitempty"`
}

// Health is the response of the health endpoint
type Health struct {
	Status string `json:"status"`
}
