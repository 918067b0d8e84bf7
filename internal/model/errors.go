package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Participant errors
	ErrParticipantNotFound = errors.New("participant not found")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidJoinCode  = errors.New("invalid join code")
	ErrAlreadyStarted   = fmt.Errorf("%w: session has already started", ErrInvalidJoinCode)
	ErrAlreadyInSession = errors.New("participant is already in this session")
	ErrSeatedElsewhere  = fmt.Errorf("%w: finish the game in progress first", ErrAlreadyInSession)
	ErrSessionCodeTaken = errors.New("session code already in use")
	ErrInvalidSession   = errors.New("stored session is invalid")

	// Turn errors
	ErrWrongPhase     = errors.New("action not allowed in the current phase")
	ErrOpponentLeft   = fmt.Errorf("%w: opponent has moved on to another game", ErrWrongPhase)
	ErrOutOfTurn      = errors.New("not this participant's turn")
	ErrAlreadyRolled  = errors.New("dice already rolled")
	ErrIllegalMove    = errors.New("illegal move")
	ErrMustRollFirst  = fmt.Errorf("%w: dice must be rolled first", ErrIllegalMove)
	ErrNoMovesLeft    = fmt.Errorf("%w: no moves left this turn", ErrIllegalMove)
	ErrUnknownPiece   = fmt.Errorf("%w: no such piece", ErrIllegalMove)
	ErrPieceBorneOff  = fmt.Errorf("%w: piece has already been borne off", ErrIllegalMove)
	ErrBlockedSpike   = fmt.Errorf("%w: destination is held by two or more opposing pieces", ErrIllegalMove)
	ErrEnterFromBar   = fmt.Errorf("%w: captured pieces must re-enter first", ErrIllegalMove)
	ErrNotAllHome     = fmt.Errorf("%w: all pieces must be in the home quadrant to bear off", ErrIllegalMove)
	ErrNotForward     = fmt.Errorf("%w: pieces only move toward home", ErrIllegalMove)
	ErrNoSuchDistance = fmt.Errorf("%w: no remaining die matches that distance", ErrIllegalMove)
)
