package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/backgammon-go/internal/dependencies/clock"
	"github.com/mcoot/backgammon-go/internal/dependencies/random"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/storage"
)

const (
	// DefaultDisplayName is used when a participant does not pick one
	DefaultDisplayName = "Guest"
	// MaxDisplayNameLength is the longest display name accepted, in runes
	MaxDisplayNameLength = 32
)

// Errors
var (
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidDisplayName = errors.New("display name is too long")
)

// Session represents an authenticated participant
type Session struct {
	Token         string
	ParticipantID model.ParticipantID
	Participant   model.Participant
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Service issues guest participants and tracks their bearer tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new AuthService
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		random:          random,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// CreateGuestParticipant creates an anonymous participant and a token for it
func (s *Service) CreateGuestParticipant(ctx context.Context, displayName string) (*Session, error) {
	name, err := normalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	participant := &model.Participant{
		ID:          model.ParticipantID(uuid.NewString()),
		DisplayName: name,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SaveParticipant(ctx, participant); err != nil {
		return nil, err
	}

	return s.createSession(participant), nil
}

// ValidateSession checks if a token is valid and returns its session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// GetParticipant returns the participant behind a token
func (s *Service) GetParticipant(token string) (*model.Participant, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	return &session.Participant, nil
}

// CleanExpiredSessions drops expired tokens along with their guest
// participants, returning how many were removed
func (s *Service) CleanExpiredSessions(ctx context.Context) (int, error) {
	now := s.clock.Now()
	var expired []model.ParticipantID
	s.mu.Lock()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			expired = append(expired, session.ParticipantID)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range expired {
		if err := s.storage.DeleteParticipant(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return len(expired), errors.Join(errs...)
}

func (s *Service) createSession(participant *model.Participant) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:         s.random.Token("sess_"),
		ParticipantID: participant.ID,
		Participant:   *participant,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

func normalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDisplayName, nil
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

// Interface for dependency injection
type ServiceInterface interface {
	CreateGuestParticipant(ctx context.Context, displayName string) (*Session, error)
	ValidateSession(token string) (*Session, error)
	GetParticipant(token string) (*model.Participant, error)
}

var _ ServiceInterface = (*Service)(nil)
