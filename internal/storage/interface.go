package storage

import (
	"context"
	"errors"

	"github.com/mcoot/backgammon-go/internal/model"
)

// ErrConflict is returned when an update keeps losing to concurrent writers
var ErrConflict = errors.New("session was modified concurrently")

// UpdateFunc transforms a session in place. Returning an error abandons the update.
type UpdateFunc func(s *model.Session) error

// Storage defines the interface for data persistence.
// Sessions are addressable both by join code and by any participant seated in them.
type Storage interface {
	// Participant operations
	SaveParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, id model.ParticipantID) (*model.Participant, error)
	// DeleteParticipant drops a participant and their seat index. Unknown ids are a no-op.
	DeleteParticipant(ctx context.Context, id model.ParticipantID) error

	// Session operations
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error)
	GetSessionByParticipant(ctx context.Context, id model.ParticipantID) (*model.Session, error)
	ReplaceSession(ctx context.Context, s *model.Session) error
	SessionExists(ctx context.Context, code model.SessionCode) (bool, error)

	// UpdateSession reads, transforms and writes back one session as a whole.
	// Concurrent updates of the same session never interleave.
	UpdateSession(ctx context.Context, code model.SessionCode, fn UpdateFunc) (*model.Session, error)
}

// NewlySeated returns participants present in after but not in before
func NewlySeated(before, after [2]model.ParticipantID) []model.ParticipantID {
	var out []model.ParticipantID
	for _, id := range after {
		if id == "" || id == before[0] || id == before[1] {
			continue
		}
		out = append(out, id)
	}
	return out
}
