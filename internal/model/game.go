package model

import (
	"fmt"
	"time"
)

// Phase is the lifecycle stage of a session
type Phase string

const (
	PhaseNotStarted         Phase = "not_started"          // No session exists yet
	PhaseWaitingForOpponent Phase = "waiting_for_opponent" // Created, second seat empty
	PhaseInitialRolls       Phase = "initial_rolls"        // Both seated, rolling for first turn
	PhasePlay               Phase = "play"                 // Turns in progress
	PhaseFinished           Phase = "finished"             // A side has borne off every piece
)

// InitialRoll is one seat's pre-drawn opening die and whether it has been revealed
type InitialRoll struct {
	Value  int
	Rolled bool
}

// Session is the authoritative state of one match
type Session struct {
	Code         SessionCode
	Participants [2]ParticipantID // Indexed by Side; empty until the seat is taken
	Phase        Phase

	Board       Board
	Dice        Dice
	MovesLeft   []int
	NeedsToRoll bool
	Turn        Side
	TurnNumber  int  // Increases every time ownership changes hands
	Blocked     bool // Turn owner holds dice but has no legal move

	InitialRolls [2]InitialRoll
	Winner       Side
	GamesPlayed  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a session waiting for its second participant
func NewSession(code SessionCode, creator ParticipantID, initial [2]int, now time.Time) *Session {
	return &Session{
		Code:         code,
		Participants: [2]ParticipantID{creator, ""},
		Phase:        PhaseWaitingForOpponent,
		Board:        StartingBoard(),
		Dice:         NoDice(),
		Turn:         SideZero,
		InitialRolls: [2]InitialRoll{{Value: initial[0]}, {Value: initial[1]}},
		Winner:       NoSide,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SideOf returns the seat held by a participant
func (s *Session) SideOf(id ParticipantID) (Side, bool) {
	if id == "" {
		return NoSide, false
	}
	for i, p := range s.Participants {
		if p == id {
			return Side(i), true
		}
	}
	return NoSide, false
}

// HasParticipant reports whether id holds a seat
func (s *Session) HasParticipant(id ParticipantID) bool {
	_, ok := s.SideOf(id)
	return ok
}

// IsFull reports whether both seats are taken
func (s *Session) IsFull() bool {
	return s.Participants[SideZero] != "" && s.Participants[SideOne] != ""
}

// Opponent returns the participant in the other seat
func (s *Session) Opponent(id ParticipantID) ParticipantID {
	side, ok := s.SideOf(id)
	if !ok {
		return ""
	}
	return s.Participants[side.Opponent()]
}

// BothRolledInitial reports whether both opening dice have been revealed
func (s *Session) BothRolledInitial() bool {
	return s.InitialRolls[SideZero].Rolled && s.InitialRolls[SideOne].Rolled
}

// Clone returns a deep copy that shares no mutable state with s
func (s *Session) Clone() *Session {
	c := *s
	if s.MovesLeft != nil {
		c.MovesLeft = append([]int(nil), s.MovesLeft...)
	}
	return &c
}

// Validate checks the invariants a stored session must hold
func (s *Session) Validate() error {
	if s.Code == "" {
		return fmt.Errorf("%w: missing code", ErrInvalidSession)
	}
	if s.Participants[SideZero] == "" {
		return fmt.Errorf("%w: missing creator", ErrInvalidSession)
	}
	return s.Board.Validate()
}
