package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allAt(spike int) [PiecesPerSide]int {
	var seq [PiecesPerSide]int
	for i := range seq {
		seq[i] = spike
	}
	return seq
}

func TestStartingBoard(t *testing.T) {
	b := StartingBoard()

	assert.Equal(t, 2, b.CountAt(SideZero, 0))
	assert.Equal(t, 5, b.CountAt(SideZero, 11))
	assert.Equal(t, 3, b.CountAt(SideZero, 16))
	assert.Equal(t, 5, b.CountAt(SideZero, 18))

	assert.Equal(t, 2, b.CountAt(SideOne, 23))
	assert.Equal(t, 5, b.CountAt(SideOne, 12))
	assert.Equal(t, 3, b.CountAt(SideOne, 7))
	assert.Equal(t, 5, b.CountAt(SideOne, 5))

	require.NoError(t, b.Validate())
	assert.False(t, b.IsGameOver())
}

func TestSentinelsAreDistinctPerSide(t *testing.T) {
	assert.Equal(t, -1, EntrySpike(SideZero))
	assert.Equal(t, 24, BorneOffSpike(SideZero))
	assert.Equal(t, 24, EntrySpike(SideOne))
	assert.Equal(t, -1, BorneOffSpike(SideOne))

	for _, s := range []Side{SideZero, SideOne} {
		assert.Equal(t, OrientedEntry, Orient(s, EntrySpike(s)))
		assert.Equal(t, OrientedBorneOff, Orient(s, BorneOffSpike(s)))
	}
}

func TestApplyMoveClampsAndCopies(t *testing.T) {
	original := StartingBoard()

	tests := []struct {
		name   string
		target int
		want   int
	}{
		{"in range", 4, 4},
		{"above range", 31, 24},
		{"below range", -7, -1},
		{"borne off", 24, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moved := original.ApplyMove(SideZero, 0, tt.target)
			assert.Equal(t, tt.want, moved[SideZero][0])
			assert.Equal(t, 0, original[SideZero][0], "original board must not change")
		})
	}
}

func TestApplyMoveIgnoresUnknownPiece(t *testing.T) {
	b := StartingBoard()
	assert.Equal(t, b, b.ApplyMove(SideZero, PiecesPerSide, 3))
	assert.Equal(t, b, b.ApplyMove(SideZero, -1, 3))
}

func TestCapturesOpponent(t *testing.T) {
	b := StartingBoard()
	b[SideOne][0] = 3

	assert.True(t, b.CapturesOpponent(SideZero, 3), "lone piece")
	assert.False(t, b.CapturesOpponent(SideZero, 5), "stacked point")
	assert.False(t, b.CapturesOpponent(SideZero, 2), "empty spike")
	assert.False(t, b.CapturesOpponent(SideZero, 24), "sentinel")
	assert.False(t, b.CapturesOpponent(SideZero, -1), "sentinel")
}

func TestResolveCaptureSendsPieceToItsEntry(t *testing.T) {
	b := StartingBoard()
	b[SideOne][0] = 3
	b = b.ApplyMove(SideZero, 0, 3)

	after, captured := b.ResolveCapture(SideZero, 3)
	require.True(t, captured)
	assert.Equal(t, SideOneEntry, after[SideOne][0])
	assert.Equal(t, 1, after.CountAt(SideZero, 3))
	assert.Equal(t, 0, after.CountAt(SideOne, 3))

	again, capturedAgain := after.ResolveCapture(SideZero, 3)
	assert.False(t, capturedAgain)
	assert.Equal(t, after, again)
}

func TestResolveCaptureBySideOne(t *testing.T) {
	b := StartingBoard()
	b[SideZero][1] = 9

	after, captured := b.ResolveCapture(SideOne, 9)
	require.True(t, captured)
	assert.Equal(t, SideZeroEntry, after[SideZero][1])
}

func TestIsGameOver(t *testing.T) {
	tests := []struct {
		name   string
		zero   [PiecesPerSide]int
		one    [PiecesPerSide]int
		over   bool
		winner Side
	}{
		{"side zero finished", allAt(SideZeroBorneOff), allAt(10), true, SideZero},
		{"side one finished", allAt(10), allAt(SideOneBorneOff), true, SideOne},
		{"neither finished", allAt(20), allAt(3), false, NoSide},
		{"side zero all captured is not finished", allAt(SideZeroEntry), allAt(3), false, NoSide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Board{tt.zero, tt.one}
			assert.Equal(t, tt.over, b.IsGameOver())
			assert.Equal(t, tt.winner, b.Winner())
		})
	}
}

func TestIsGameOverOneShortOfFinishing(t *testing.T) {
	zero := allAt(SideZeroBorneOff)
	zero[14] = 23
	b := Board{zero, allAt(5)}
	assert.False(t, b.IsGameOver())
}

func TestValidateRejectsOutOfDomain(t *testing.T) {
	b := StartingBoard()
	b[SideOne][4] = 25
	assert.ErrorIs(t, b.Validate(), ErrInvalidSession)
}

func TestProjectionRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var b Board
		for s := range b {
			for p := range b[s] {
				b[s][p] = r.Intn(26) - 1
			}
		}
		for _, side := range []Side{SideZero, SideOne} {
			require.Equal(t, b, UnprojectBoard(ProjectBoard(b, side), side))
		}
	}
}

func TestProjectBoardForSideOne(t *testing.T) {
	b := StartingBoard()
	p := ProjectBoard(b, SideOne)

	// Side one sees its own pieces first, laid out exactly like side zero's
	assert.Equal(t, b[SideZero], p[0])
	assert.Equal(t, b[SideOne], p[1])
	assert.Equal(t, b, ProjectBoard(b, SideZero))
}

func TestMovesFor(t *testing.T) {
	assert.Equal(t, []int{5, 2}, MovesFor(Dice{5, 2}))
	assert.Equal(t, []int{4, 4, 4, 4}, MovesFor(Dice{4, 4}))
	assert.Nil(t, MovesFor(NoDice()))
}

func TestRemoveMove(t *testing.T) {
	moves := []int{3, 3, 3, 3}
	assert.Equal(t, []int{3, 3, 3}, RemoveMove(moves, 0))
	assert.Equal(t, []int{3, 3, 3, 3}, moves)
	assert.Equal(t, []int{5}, RemoveMove([]int{2, 5}, 0))
}
