package lobby

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/backgammon-go/internal/dependencies/clock"
	"github.com/mcoot/backgammon-go/internal/dependencies/random"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/dice"
	"github.com/mcoot/backgammon-go/internal/services/game"
	"github.com/mcoot/backgammon-go/internal/storage"
)

const (
	// SessionCodeLength is the length of generated join codes
	SessionCodeLength = 6
	// SessionCodeAlphabet is the characters used in join codes (avoid confusing chars)
	SessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// maxCodeAttempts bounds code generation when the store keeps reporting collisions
	maxCodeAttempts = 32
)

// ErrNoFreeCode is returned when no unused join code could be generated
var ErrNoFreeCode = errors.New("could not allocate a join code")

// Controller is the session registry: it creates sessions, seats the second
// participant and resolves sessions by participant or join code
type Controller struct {
	storage        storage.Storage
	gameController *game.Controller
	dice           *dice.Service
	clock          clock.Clock
	random         random.Random
	logger         *slog.Logger
}

// NewController creates a new LobbyController
func NewController(
	storage storage.Storage,
	gameController *game.Controller,
	diceService *dice.Service,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:        storage,
		gameController: gameController,
		dice:           diceService,
		clock:          clock,
		random:         random,
		logger:         logger.With(slog.String("component", "lobby")),
	}
}

// CreateSession allocates a session with the creator in the first seat.
// The opening dice are drawn now, distinct, and revealed later.
func (c *Controller) CreateSession(ctx context.Context, creator model.ParticipantID) (*model.Session, error) {
	if err := c.ensureUnseated(ctx, creator, ""); err != nil {
		return nil, err
	}
	initial := c.dice.DrawInitialRolls()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := model.SessionCode(c.random.String(SessionCodeLength, SessionCodeAlphabet))
		if code == "" {
			continue
		}
		exists, err := c.storage.SessionExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		sess := model.NewSession(code, creator, initial, c.clock.Now())
		if err := c.storage.CreateSession(ctx, sess); err != nil {
			if errors.Is(err, model.ErrSessionCodeTaken) {
				continue
			}
			return nil, err
		}

		c.logger.Info("session created",
			slog.String("session_code", string(code)),
			slog.String("participant_id", string(creator)))
		c.gameController.Announce(ctx, creator, model.EventSessionCode, model.CodeNotice{Code: code})
		c.gameController.Publish(ctx, sess)
		return sess, nil
	}

	return nil, ErrNoFreeCode
}

// GetSession returns the session a participant is seated in
func (c *Controller) GetSession(ctx context.Context, participantID model.ParticipantID) (*model.Session, error) {
	return c.storage.GetSessionByParticipant(ctx, participantID)
}

// GetSessionByCode returns a session by its join code
func (c *Controller) GetSessionByCode(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	return c.storage.GetSession(ctx, code)
}

// JoinSession seats a participant opposite the creator and starts the opening rolls
func (c *Controller) JoinSession(ctx context.Context, code model.SessionCode, participantID model.ParticipantID) (*model.Session, error) {
	if err := c.ensureUnseated(ctx, participantID, code); err != nil {
		return nil, err
	}
	sess, err := c.storage.UpdateSession(ctx, code, func(s *model.Session) error {
		if s.HasParticipant(participantID) {
			return model.ErrAlreadyInSession
		}
		if s.Phase != model.PhaseWaitingForOpponent || s.IsFull() {
			return model.ErrAlreadyStarted
		}
		s.Participants[model.SideOne] = participantID
		s.Phase = model.PhaseInitialRolls
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.ErrInvalidJoinCode
		}
		return nil, err
	}

	c.logger.Info("session joined",
		slog.String("session_code", string(code)),
		slog.String("participant_id", string(participantID)))
	c.gameController.Publish(ctx, sess)
	return sess, nil
}

// ensureUnseated rejects a participant still playing in another session.
// Their own session is left to the join checks.
func (c *Controller) ensureUnseated(ctx context.Context, participantID model.ParticipantID, joining model.SessionCode) error {
	current, err := c.storage.GetSessionByParticipant(ctx, participantID)
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return nil
	case err != nil:
		return err
	case current.Code == joining || current.Phase == model.PhaseFinished:
		return nil
	default:
		return model.ErrSeatedElsewhere
	}
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateSession(ctx context.Context, creator model.ParticipantID) (*model.Session, error)
	GetSession(ctx context.Context, participantID model.ParticipantID) (*model.Session, error)
	GetSessionByCode(ctx context.Context, code model.SessionCode) (*model.Session, error)
	JoinSession(ctx context.Context, code model.SessionCode, participantID model.ParticipantID) (*model.Session, error)
}

var _ ControllerInterface = (*Controller)(nil)
