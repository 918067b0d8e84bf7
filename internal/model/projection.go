package model

// Move relocates one of the mover's pieces to a destination spike
type Move struct {
	Piece    int `json:"piece"`
	To       int `json:"to"`
	Distance int `json:"distance,omitempty"`
}

// Result describes how a finished game ended for one recipient
type Result string

const (
	ResultNone Result = ""
	ResultWon  Result = "won"
	ResultLost Result = "lost"
)

// Projection is one participant's view of a session. Pieces[0] are always the
// recipient's own pieces and both sequences are oriented so the recipient
// moves from -1 toward 24.
type Projection struct {
	Code                SessionCode `json:"code"`
	Phase               Phase       `json:"phase"`
	IsMyTurn            bool        `json:"isMyTurn"`
	NeedsToRoll         bool        `json:"needsToRoll"`
	Dice                Dice        `json:"dice"`
	MovesLeft           []int       `json:"movesLeft"`
	Pieces              Board       `json:"pieces"`
	MyInitialRoll       int         `json:"myInitialRoll"`
	OpponentInitialRoll int         `json:"opponentInitialRoll"`
	OpponentJoined      bool        `json:"opponentJoined"`
	Blocked             bool        `json:"blocked"`
	Result              Result      `json:"result,omitempty"`
	ValidMoves          []Move      `json:"validMoves"`
	GamesPlayed         int         `json:"gamesPlayed"`
}

// ProjectBoard orients a canonical board for a recipient. For side one the
// sequences swap places and every spike is mirrored.
func ProjectBoard(b Board, s Side) Board {
	if s != SideOne {
		return b
	}
	var out Board
	for i := 0; i < PiecesPerSide; i++ {
		out[0][i] = Mirror(b[SideOne][i])
		out[1][i] = Mirror(b[SideZero][i])
	}
	return out
}

// UnprojectBoard converts a recipient-oriented board back to canonical form
func UnprojectBoard(b Board, s Side) Board {
	return ProjectBoard(b, s)
}

// ProjectMove converts a canonical move of side s into that side's orientation
func ProjectMove(m Move, s Side) Move {
	if s == SideOne {
		m.To = Mirror(m.To)
	}
	return m
}

// UnprojectMove converts a move expressed in side s's orientation to canonical form
func UnprojectMove(m Move, s Side) Move {
	return ProjectMove(m, s)
}

// Project builds the view of a session for the participant seated at s.
// validMoves are canonical moves for the turn owner; they are only included
// for the owner, in the owner's orientation. needsToRoll describes the turn
// owner and is sent to both seats alike.
func Project(sess *Session, s Side, validMoves []Move) Projection {
	p := Projection{
		Code:                sess.Code,
		Phase:               sess.Phase,
		Dice:                sess.Dice,
		MovesLeft:           append([]int{}, sess.MovesLeft...),
		Pieces:              ProjectBoard(sess.Board, s),
		MyInitialRoll:       NoRoll,
		OpponentInitialRoll: NoRoll,
		NeedsToRoll:         sess.Phase == PhasePlay && sess.NeedsToRoll,
		OpponentJoined:      sess.IsFull(),
		Blocked:             sess.Blocked,
		ValidMoves:          []Move{},
		GamesPlayed:         sess.GamesPlayed,
	}

	if mine := sess.InitialRolls[s]; mine.Rolled {
		p.MyInitialRoll = mine.Value
	}
	if theirs := sess.InitialRolls[s.Opponent()]; theirs.Rolled {
		p.OpponentInitialRoll = theirs.Value
	}

	if sess.Phase == PhasePlay && sess.Turn == s {
		p.IsMyTurn = true
		for _, m := range validMoves {
			p.ValidMoves = append(p.ValidMoves, ProjectMove(m, s))
		}
	}

	if sess.Phase == PhaseFinished {
		if sess.Winner == s {
			p.Result = ResultWon
		} else if sess.Winner.Valid() {
			p.Result = ResultLost
		}
	}

	return p
}
