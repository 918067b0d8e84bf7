package rules

import (
	"fmt"
	"sort"

	"github.com/mcoot/backgammon-go/internal/model"
)

// ErrOverageNotRearmost rejects bearing off with a larger die while a piece sits farther back
var ErrOverageNotRearmost = fmt.Errorf("%w: a larger die may only bear off the rearmost piece", model.ErrIllegalMove)

// Engine decides which moves are legal. It holds no state, so the same
// inputs always produce the same answer.
type Engine struct{}

// New creates a new Engine
func New() *Engine {
	return &Engine{}
}

// ValidMoves lists every legal move for side, ordered by piece then distance.
// Moves reaching the same destination with the same piece are listed once,
// using the smallest die that gets there.
func (e *Engine) ValidMoves(b model.Board, s model.Side, movesLeft []int) []model.Move {
	distances := distinctAscending(movesLeft)
	moves := []model.Move{}
	seen := make(map[[2]int]bool)

	for piece := 0; piece < model.PiecesPerSide; piece++ {
		for _, d := range distances {
			to, err := e.destination(b, s, piece, d)
			if err != nil {
				continue
			}
			key := [2]int{piece, to}
			if seen[key] {
				continue
			}
			seen[key] = true
			moves = append(moves, model.Move{Piece: piece, To: to, Distance: d})
		}
	}
	return moves
}

// CanMove reports whether side has at least one legal move
func (e *Engine) CanMove(b model.Board, s model.Side, movesLeft []int) bool {
	distances := distinctAscending(movesLeft)
	for piece := 0; piece < model.PiecesPerSide; piece++ {
		for _, d := range distances {
			if _, err := e.destination(b, s, piece, d); err == nil {
				return true
			}
		}
	}
	return false
}

// Validate checks a single canonical move and returns the index into
// movesLeft of the die it consumes. The destination is clamped into the
// stored domain before checking.
func (e *Engine) Validate(b model.Board, s model.Side, m model.Move, movesLeft []int) (int, error) {
	if len(movesLeft) == 0 {
		return -1, model.ErrNoMovesLeft
	}
	if m.Piece < 0 || m.Piece >= model.PiecesPerSide {
		return -1, model.ErrUnknownPiece
	}

	from := model.Orient(s, b[s][m.Piece])
	if from >= model.OrientedBorneOff {
		return -1, model.ErrPieceBorneOff
	}
	to := model.Orient(s, model.Clamp(m.To))
	if to <= from {
		return -1, model.ErrNotForward
	}
	exact := to - from

	if to < model.OrientedBorneOff {
		idx := indexOf(movesLeft, exact)
		if idx < 0 {
			return -1, model.ErrNoSuchDistance
		}
		if _, err := e.destination(b, s, m.Piece, exact); err != nil {
			return -1, err
		}
		return idx, nil
	}

	// Bearing off: the exact die first, then larger ones
	var firstErr error
	for d := exact; d <= model.DieFaces; d++ {
		idx := indexOf(movesLeft, d)
		if idx < 0 {
			continue
		}
		if _, err := e.destination(b, s, m.Piece, d); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return idx, nil
	}
	if firstErr != nil {
		return -1, firstErr
	}
	return -1, model.ErrNoSuchDistance
}

// destination returns the canonical spike reached by moving piece d steps,
// or the rule that forbids it
func (e *Engine) destination(b model.Board, s model.Side, piece, d int) (int, error) {
	from := model.Orient(s, b[s][piece])
	if from >= model.OrientedBorneOff {
		return 0, model.ErrPieceBorneOff
	}
	if from != model.OrientedEntry && hasPieceOnEntry(b, s) {
		return 0, model.ErrEnterFromBar
	}

	target := from + d
	if target < model.OrientedBorneOff {
		spike := model.Unorient(s, target)
		if b.CountAt(s.Opponent(), spike) >= 2 {
			return 0, model.ErrBlockedSpike
		}
		return spike, nil
	}

	if !allHome(b, s) {
		return 0, model.ErrNotAllHome
	}
	if target > model.OrientedBorneOff && hasPieceBehind(b, s, from) {
		return 0, ErrOverageNotRearmost
	}
	return model.BorneOffSpike(s), nil
}

func hasPieceOnEntry(b model.Board, s model.Side) bool {
	for _, p := range b[s] {
		if model.Orient(s, p) == model.OrientedEntry {
			return true
		}
	}
	return false
}

func allHome(b model.Board, s model.Side) bool {
	for _, p := range b[s] {
		if model.Orient(s, p) < model.HomeQuadrantStart {
			return false
		}
	}
	return true
}

func hasPieceBehind(b model.Board, s model.Side, from int) bool {
	for _, p := range b[s] {
		if model.Orient(s, p) < from {
			return true
		}
	}
	return false
}

func distinctAscending(values []int) []int {
	out := make([]int, 0, len(values))
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if v < 1 || v > model.DieFaces || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func indexOf(values []int, v int) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

// Interface for dependency injection
type EngineInterface interface {
	ValidMoves(b model.Board, s model.Side, movesLeft []int) []model.Move
	CanMove(b model.Board, s model.Side, movesLeft []int) bool
	Validate(b model.Board, s model.Side, m model.Move, movesLeft []int) (int, error)
}

var _ EngineInterface = (*Engine)(nil)
