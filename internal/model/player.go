package model

import "time"

// ParticipantID uniquely identifies a connected participant across the system
type ParticipantID string

// Participant represents someone who can create or join a session
type Participant struct {
	ID          ParticipantID
	DisplayName string
	CreatedAt   time.Time
}
