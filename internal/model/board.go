package model

import "fmt"

const (
	// PiecesPerSide is the number of pieces each side starts with
	PiecesPerSide = 15
	// SpikeCount is the number of playable spikes on the board
	SpikeCount = 24

	// MinSpike and MaxSpike bound every stored piece position
	MinSpike = -1
	MaxSpike = SpikeCount

	// HomeQuadrantStart is the first oriented spike of a side's home quadrant
	HomeQuadrantStart = 18
	// OrientedEntry is where a piece waiting to (re-)enter sits, in oriented coordinates
	OrientedEntry = -1
	// OrientedBorneOff is where a finished piece sits, in oriented coordinates
	OrientedBorneOff = 24
)

// Per-side sentinels. A captured piece returns to its side's entry spike; a
// finished piece rests on its side's borne-off spike. The numbers coincide
// across sides (one side's entry is the other's borne-off), the concepts do not.
const (
	SideZeroEntry    = -1
	SideZeroBorneOff = 24
	SideOneEntry     = 24
	SideOneBorneOff  = -1
)

// Side is one of the two seats at the board
type Side int

const (
	NoSide   Side = -1
	SideZero Side = 0
	SideOne  Side = 1
)

// Valid reports whether s is a real seat
func (s Side) Valid() bool {
	return s == SideZero || s == SideOne
}

// Opponent returns the other seat
func (s Side) Opponent() Side {
	if s == SideZero {
		return SideOne
	}
	return SideZero
}

// EntrySpike returns the spike a captured piece of this side is sent back to
func EntrySpike(s Side) int {
	if s == SideOne {
		return SideOneEntry
	}
	return SideZeroEntry
}

// BorneOffSpike returns the spike a finished piece of this side rests on
func BorneOffSpike(s Side) int {
	if s == SideOne {
		return SideOneBorneOff
	}
	return SideZeroBorneOff
}

// Orient converts a canonical spike into the side's distance-toward-home
// coordinates. Side one runs downward, so its spikes are mirrored. The
// mapping is its own inverse and sends -1 to 24 and back.
func Orient(s Side, spike int) int {
	if s == SideOne {
		return Mirror(spike)
	}
	return spike
}

// Unorient converts oriented coordinates back to a canonical spike
func Unorient(s Side, oriented int) int {
	return Orient(s, oriented)
}

// Mirror flips a spike to the opposite direction of travel
func Mirror(spike int) int {
	return SpikeCount - 1 - spike
}

// Clamp forces a spike into the stored domain
func Clamp(spike int) int {
	if spike < MinSpike {
		return MinSpike
	}
	if spike > MaxSpike {
		return MaxSpike
	}
	return spike
}

// IsPlayableSpike reports whether a spike is on the board rather than a sentinel
func IsPlayableSpike(spike int) bool {
	return spike >= 0 && spike < SpikeCount
}

// Board holds the spike of every piece, indexed by side then piece.
// It is a value: every operation returns a new Board.
type Board [2][PiecesPerSide]int

// StartingBoard returns the standard opening layout
func StartingBoard() Board {
	var b Board
	layout := []struct {
		spike int
		count int
	}{
		{0, 2},
		{11, 5},
		{16, 3},
		{18, 5},
	}

	i := 0
	for _, l := range layout {
		for n := 0; n < l.count; n++ {
			b[SideZero][i] = l.spike
			b[SideOne][i] = Mirror(l.spike)
			i++
		}
	}
	return b
}

// ApplyMove relocates a piece without any legality check.
// The target is clamped into the stored domain rather than rejected.
func (b Board) ApplyMove(s Side, piece int, target int) Board {
	if piece < 0 || piece >= PiecesPerSide {
		return b
	}
	b[s][piece] = Clamp(target)
	return b
}

// CountAt returns how many pieces of a side sit on a spike
func (b Board) CountAt(s Side, spike int) int {
	n := 0
	for _, p := range b[s] {
		if p == spike {
			n++
		}
	}
	return n
}

// CapturesOpponent reports whether landing on target hits a lone opposing piece
func (b Board) CapturesOpponent(s Side, target int) bool {
	if !IsPlayableSpike(target) {
		return false
	}
	return b.CountAt(s.Opponent(), target) == 1
}

// ResolveCapture sends a lone opposing piece on target back to its entry spike.
// It reports whether a piece was captured.
func (b Board) ResolveCapture(s Side, target int) (Board, bool) {
	if !b.CapturesOpponent(s, target) {
		return b, false
	}
	opp := s.Opponent()
	for i, p := range b[opp] {
		if p == target {
			b[opp][i] = EntrySpike(opp)
			break
		}
	}
	return b, true
}

// BorneOffCount returns how many of a side's pieces have finished
func (b Board) BorneOffCount(s Side) int {
	return b.CountAt(s, BorneOffSpike(s))
}

// HasFinished reports whether every piece of the side is borne off
func (b Board) HasFinished(s Side) bool {
	return b.BorneOffCount(s) == PiecesPerSide
}

// IsGameOver reports whether either side has borne off all its pieces
func (b Board) IsGameOver() bool {
	return b.HasFinished(SideZero) || b.HasFinished(SideOne)
}

// Winner returns the side that has borne off every piece, or NoSide
func (b Board) Winner() Side {
	switch {
	case b.HasFinished(SideZero):
		return SideZero
	case b.HasFinished(SideOne):
		return SideOne
	default:
		return NoSide
	}
}

// Validate checks every position lies in the stored domain
func (b Board) Validate() error {
	for s := range b {
		for i, p := range b[s] {
			if p < MinSpike || p > MaxSpike {
				return fmt.Errorf("%w: side %d piece %d at spike %d", ErrInvalidSession, s, i, p)
			}
		}
	}
	return nil
}
