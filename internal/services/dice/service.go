package dice

import (
	"github.com/mcoot/backgammon-go/internal/dependencies/random"
	"github.com/mcoot/backgammon-go/internal/model"
)

// maxInitialRedraws bounds the retry loop for distinct opening dice
const maxInitialRedraws = 64

// Service rolls dice
type Service struct {
	random random.Random
}

// New creates a new dice Service
func New(random random.Random) *Service {
	return &Service{
		random: random,
	}
}

// RollOne returns a uniformly random face in [1, 6]
func (s *Service) RollOne() int {
	return s.random.Intn(model.DieFaces) + 1
}

// RollPair rolls two independent dice and the distances they grant
func (s *Service) RollPair() (model.Dice, []int) {
	d := model.Dice{s.RollOne(), s.RollOne()}
	return d, model.MovesFor(d)
}

// DrawInitialRolls draws one opening die per seat, redrawing the second until they differ
func (s *Service) DrawInitialRolls() [2]int {
	first := s.RollOne()
	for i := 0; i < maxInitialRedraws; i++ {
		if second := s.RollOne(); second != first {
			return [2]int{first, second}
		}
	}
	// A source that keeps repeating itself still has to produce a decision
	return [2]int{first, first%model.DieFaces + 1}
}

// Interface for dependency injection
type ServiceInterface interface {
	RollOne() int
	RollPair() (model.Dice, []int)
	DrawInitialRolls() [2]int
}

var _ ServiceInterface = (*Service)(nil)
