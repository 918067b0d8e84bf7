package model

const (
	// DieFaces is the number of faces on a die
	DieFaces = 6
	// NoRoll marks a die that has not been rolled
	NoRoll = -1
)

// Dice is the pair of values rolled for the current turn
type Dice [2]int

// NoDice returns the pair shown before anything is rolled
func NoDice() Dice {
	return Dice{NoRoll, NoRoll}
}

// IsRolled reports whether the pair holds real values
func (d Dice) IsRolled() bool {
	return d[0] != NoRoll && d[1] != NoRoll
}

// IsDouble reports whether both dice show the same value
func (d Dice) IsDouble() bool {
	return d.IsRolled() && d[0] == d[1]
}

// MovesFor derives the distances a roll grants. Doubles are played four times.
func MovesFor(d Dice) []int {
	if !d.IsRolled() {
		return nil
	}
	if d.IsDouble() {
		return []int{d[0], d[0], d[0], d[0]}
	}
	return []int{d[0], d[1]}
}

// RemoveMove returns movesLeft without the entry at idx
func RemoveMove(movesLeft []int, idx int) []int {
	if idx < 0 || idx >= len(movesLeft) {
		return append([]int(nil), movesLeft...)
	}
	out := make([]int, 0, len(movesLeft)-1)
	out = append(out, movesLeft[:idx]...)
	return append(out, movesLeft[idx+1:]...)
}
