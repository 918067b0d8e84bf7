package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/backgammon-go/internal/dependencies/clock"
	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/services/dice"
	"github.com/mcoot/backgammon-go/internal/services/rules"
	"github.com/mcoot/backgammon-go/internal/storage"
)

// DefaultBlockedTurnDelay is how long a blocked participant sees their roll before the turn passes
const DefaultBlockedTurnDelay = 2 * time.Second

// errStaleTurn aborts a scheduled pass whose turn has already moved on
var errStaleTurn = errors.New("turn already advanced")

// Config holds configuration for the game controller
type Config struct {
	BlockedTurnDelay time.Duration
}

// DefaultConfig returns default game configuration
func DefaultConfig() Config {
	return Config{
		BlockedTurnDelay: DefaultBlockedTurnDelay,
	}
}

// Controller runs the turn and phase state machine of a session
type Controller struct {
	storage  storage.Storage
	dice     *dice.Service
	rules    *rules.Engine
	clock    clock.Clock
	notifier Notifier
	logger   *slog.Logger
	cfg      Config

	// armed maps a session code to the turn number whose blocked pass is pending
	armed sync.Map
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	diceService *dice.Service,
	engine *rules.Engine,
	clock clock.Clock,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.BlockedTurnDelay <= 0 {
		cfg.BlockedTurnDelay = DefaultBlockedTurnDelay
	}
	return &Controller{
		storage:  storage,
		dice:     diceService,
		rules:    engine,
		clock:    clock,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "game")),
		cfg:      cfg,
	}
}

// GetState returns the caller's view of their current session
func (c *Controller) GetState(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error) {
	sess, err := c.storage.GetSessionByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	side, ok := sess.SideOf(participantID)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	c.scheduleBlockedPass(sess)
	p := c.Project(sess, side)
	return &p, nil
}

// Project builds the view of a session for one seat
func (c *Controller) Project(sess *model.Session, side model.Side) model.Projection {
	var moves []model.Move
	if sess.Phase == model.PhasePlay && sess.Turn == side && !sess.NeedsToRoll {
		moves = c.rules.ValidMoves(sess.Board, side, sess.MovesLeft)
	}
	return model.Project(sess, side, moves)
}

// Announce sends a one-off event to a participant
func (c *Controller) Announce(ctx context.Context, to model.ParticipantID, event model.EventType, payload any) {
	c.notifier.PublishEvent(ctx, to, event, payload)
}

// Publish pushes the current projection to every seated participant
func (c *Controller) Publish(ctx context.Context, sess *model.Session) {
	for i, id := range sess.Participants {
		if id == "" {
			continue
		}
		c.notifier.PublishState(ctx, id, c.Project(sess, model.Side(i)))
	}
}

// RollInitial reveals the caller's opening die. Once both are revealed the
// higher die takes the first turn and both dice become its moves.
// While the opponent has still to roll, the revealed die is also announced
// to the roller as initial-dice and to the opponent as opponent-initial-dice.
func (c *Controller) RollInitial(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error) {
	revealed := model.NoRoll
	announce := func(ctx context.Context, s *model.Session, side model.Side) {
		if revealed == model.NoRoll {
			return
		}
		c.Announce(ctx, s.Participants[side], model.EventInitialDice, revealed)
		c.Announce(ctx, s.Participants[side.Opponent()], model.EventOpponentInitialDice, revealed)
	}

	return c.applyAnnounced(ctx, participantID, func(s *model.Session, side model.Side) error {
		// fn may run again when a concurrent write forces a retry
		revealed = model.NoRoll
		if s.Phase != model.PhaseInitialRolls {
			return model.ErrWrongPhase
		}
		if s.InitialRolls[side].Rolled {
			return model.ErrAlreadyRolled
		}
		s.InitialRolls[side].Rolled = true

		if s.BothRolledInitial() {
			c.resolveInitialRolls(s)
			return nil
		}
		revealed = s.InitialRolls[side].Value
		return nil
	}, announce)
}

// Roll rolls the dice for the turn owner
func (c *Controller) Roll(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error) {
	return c.apply(ctx, participantID, func(s *model.Session, side model.Side) error {
		if s.Phase != model.PhasePlay {
			return model.ErrWrongPhase
		}
		if s.Turn != side {
			return model.ErrOutOfTurn
		}
		if !s.NeedsToRoll {
			return model.ErrAlreadyRolled
		}

		s.Dice, s.MovesLeft = c.dice.RollPair()
		s.NeedsToRoll = false
		c.refreshBlocked(s)
		return nil
	})
}

// Move plays one piece. The move is expressed in the caller's own orientation.
func (c *Controller) Move(ctx context.Context, participantID model.ParticipantID, move model.Move) (*model.Projection, error) {
	return c.apply(ctx, participantID, func(s *model.Session, side model.Side) error {
		if s.Phase != model.PhasePlay {
			return model.ErrWrongPhase
		}
		if s.Turn != side {
			return model.ErrOutOfTurn
		}
		if s.NeedsToRoll {
			return model.ErrMustRollFirst
		}

		canonical := model.UnprojectMove(move, side)
		idx, err := c.rules.Validate(s.Board, side, canonical, s.MovesLeft)
		if err != nil {
			return err
		}

		target := model.Clamp(canonical.To)
		if !model.IsPlayableSpike(target) {
			target = model.BorneOffSpike(side)
		}
		board := s.Board.ApplyMove(side, canonical.Piece, target)
		board, captured := board.ResolveCapture(side, target)
		s.Board = board
		s.MovesLeft = model.RemoveMove(s.MovesLeft, idx)

		if captured {
			c.logger.Info("piece captured",
				slog.String("session_code", string(s.Code)),
				slog.Int("side", int(side)),
				slog.Int("spike", target))
		}

		switch {
		case s.Board.IsGameOver():
			c.finish(s)
		case len(s.MovesLeft) == 0:
			endTurn(s)
		default:
			c.refreshBlocked(s)
		}
		return nil
	})
}

// Rematch resets a finished session for another game between the same participants
// It is refused once the opponent has started a game elsewhere.
func (c *Controller) Rematch(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error) {
	if err := c.ensureOpponentStayed(ctx, participantID); err != nil {
		return nil, err
	}
	return c.apply(ctx, participantID, func(s *model.Session, side model.Side) error {
		if s.Phase != model.PhaseFinished {
			return model.ErrWrongPhase
		}
		ResetForNewGame(s, c.dice.DrawInitialRolls())
		s.GamesPlayed++
		return nil
	})
}

func (c *Controller) ensureOpponentStayed(ctx context.Context, participantID model.ParticipantID) error {
	sess, err := c.storage.GetSessionByParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	side, ok := sess.SideOf(participantID)
	if !ok || sess.Phase != model.PhaseFinished {
		// apply reports these
		return nil
	}
	opponent := sess.Participants[side.Opponent()]
	theirs, err := c.storage.GetSessionByParticipant(ctx, opponent)
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return model.ErrOpponentLeft
	case err != nil:
		return err
	case theirs.Code != sess.Code:
		return model.ErrOpponentLeft
	}
	return nil
}

// ResetForNewGame puts a session back to the opening position with fresh opening dice
func ResetForNewGame(s *model.Session, initial [2]int) {
	s.Phase = model.PhaseInitialRolls
	s.Board = model.StartingBoard()
	s.Dice = model.NoDice()
	s.MovesLeft = nil
	s.NeedsToRoll = false
	s.Blocked = false
	s.Turn = model.SideZero
	s.Winner = model.NoSide
	s.InitialRolls = [2]model.InitialRoll{{Value: initial[0]}, {Value: initial[1]}}
}

// apply runs one accepted transition against the caller's session, then
// publishes the result and arms the blocked-turn timer if needed
func (c *Controller) apply(
	ctx context.Context,
	participantID model.ParticipantID,
	fn func(s *model.Session, side model.Side) error,
) (*model.Projection, error) {
	return c.applyAnnounced(ctx, participantID, fn, nil)
}

// applyAnnounced is apply with announce run on the committed session before
// the projections are published
func (c *Controller) applyAnnounced(
	ctx context.Context,
	participantID model.ParticipantID,
	fn func(s *model.Session, side model.Side) error,
	announce func(ctx context.Context, s *model.Session, side model.Side),
) (*model.Projection, error) {
	current, err := c.storage.GetSessionByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	// A pass lost with a previous process is re-armed by the next intent
	c.scheduleBlockedPass(current)

	side := model.NoSide
	updated, err := c.storage.UpdateSession(ctx, current.Code, func(s *model.Session) error {
		var ok bool
		side, ok = s.SideOf(participantID)
		if !ok {
			return model.ErrSessionNotFound
		}
		if err := fn(s, side); err != nil {
			return err
		}
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		c.logger.Debug("intent rejected",
			slog.String("session_code", string(current.Code)),
			slog.String("participant_id", string(participantID)),
			slog.String("error", err.Error()))
		return nil, err
	}

	if announce != nil {
		announce(ctx, updated, side)
	}
	c.Publish(ctx, updated)
	c.scheduleBlockedPass(updated)

	p := c.Project(updated, side)
	return &p, nil
}

func (c *Controller) resolveInitialRolls(s *model.Session) {
	zero, one := s.InitialRolls[model.SideZero].Value, s.InitialRolls[model.SideOne].Value
	if zero == one {
		fresh := c.dice.DrawInitialRolls()
		s.InitialRolls = [2]model.InitialRoll{{Value: fresh[0]}, {Value: fresh[1]}}
		c.logger.Info("initial rolls tied, rolling again",
			slog.String("session_code", string(s.Code)),
			slog.Int("value", zero))
		return
	}

	first := model.SideZero
	if one > zero {
		first = model.SideOne
	}

	// The opening dice keep their seat order whoever moves first
	s.Phase = model.PhasePlay
	s.Turn = first
	s.TurnNumber++
	s.Dice = model.Dice{zero, one}
	s.MovesLeft = []int{zero, one}
	s.NeedsToRoll = false
	c.refreshBlocked(s)

	c.logger.Info("game started",
		slog.String("session_code", string(s.Code)),
		slog.Int("first_side", int(first)))
}

func (c *Controller) finish(s *model.Session) {
	s.Phase = model.PhaseFinished
	s.Winner = s.Board.Winner()
	s.Dice = model.NoDice()
	s.MovesLeft = nil
	s.NeedsToRoll = false
	s.Blocked = false

	c.logger.Info("game finished",
		slog.String("session_code", string(s.Code)),
		slog.Int("winner", int(s.Winner)))
}

// refreshBlocked flags a turn owner who holds dice but cannot use any of them
func (c *Controller) refreshBlocked(s *model.Session) {
	s.Blocked = s.Phase == model.PhasePlay &&
		!s.NeedsToRoll &&
		len(s.MovesLeft) > 0 &&
		!c.rules.CanMove(s.Board, s.Turn, s.MovesLeft)
}

func endTurn(s *model.Session) {
	s.Turn = s.Turn.Opponent()
	s.TurnNumber++
	s.Dice = model.NoDice()
	s.MovesLeft = nil
	s.NeedsToRoll = true
	s.Blocked = false
}

// scheduleBlockedPass arms the pass of a blocked turn once per turn. Sessions
// outlive the process, so any read of a blocked session may arm it.
func (c *Controller) scheduleBlockedPass(s *model.Session) {
	if s.Phase != model.PhasePlay || !s.Blocked {
		return
	}
	code, turnNumber := s.Code, s.TurnNumber
	if prev, loaded := c.armed.Swap(code, turnNumber); loaded && prev.(int) == turnNumber {
		return
	}
	c.clock.AfterFunc(c.cfg.BlockedTurnDelay, func() {
		c.armed.CompareAndDelete(code, turnNumber)
		c.passBlockedTurn(context.Background(), code, turnNumber)
	})
}

// passBlockedTurn hands the turn over if the session is still stuck on the same turn
func (c *Controller) passBlockedTurn(ctx context.Context, code model.SessionCode, turnNumber int) {
	updated, err := c.storage.UpdateSession(ctx, code, func(s *model.Session) error {
		if s.Phase != model.PhasePlay || s.TurnNumber != turnNumber || !s.Blocked {
			return errStaleTurn
		}
		endTurn(s)
		s.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		if !errors.Is(err, errStaleTurn) {
			c.logger.Error("failed to pass blocked turn",
				slog.String("session_code", string(code)),
				slog.Any("error", err))
		}
		return
	}

	c.logger.Info("turn passed, no legal moves",
		slog.String("session_code", string(code)),
		slog.Int("turn_number", turnNumber))
	c.Publish(ctx, updated)
}

// Interface for dependency injection
type ControllerInterface interface {
	GetState(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error)
	RollInitial(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error)
	Roll(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error)
	Move(ctx context.Context, participantID model.ParticipantID, move model.Move) (*model.Projection, error)
	Rematch(ctx context.Context, participantID model.ParticipantID) (*model.Projection, error)
	Publish(ctx context.Context, sess *model.Session)
}

var _ ControllerInterface = (*Controller)(nil)
