package factory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/push"
	"github.com/mcoot/backgammon-go/internal/storage"
	"github.com/mcoot/backgammon-go/internal/storage/memory"
	redisstorage "github.com/mcoot/backgammon-go/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	newStore func() storage.Storage
	app      *TestApp
	ctx      context.Context
}

func TestIntegrationSuiteMemory(t *testing.T) {
	suite.Run(t, &IntegrationSuite{
		newStore: func() storage.Storage { return memory.New() },
	})
}

func TestIntegrationSuiteRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	suite.Run(t, &IntegrationSuite{
		newStore: func() storage.Storage {
			mr.FlushAll()
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			return redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
		},
	})
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithStorage(s.newStore())
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

// awaitState reads game-state events until one satisfies match
func (s *IntegrationSuite) awaitState(sub *push.Subscriber, match func(model.Projection) bool) model.Projection {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-sub.Messages():
			s.Require().True(ok, "subscriber closed")
			if msg.Event != model.EventGameState {
				continue
			}
			var p model.Projection
			s.Require().NoError(json.Unmarshal(msg.Data, &p))
			if match(p) {
				return p
			}
		case <-deadline:
			s.FailNow("no matching game-state event")
			return model.Projection{}
		}
	}
}

// Test: a full match from participant creation through a rematch
func (s *IntegrationSuite) TestCompleteGameFlow() {
	alice, err := s.app.AuthService.CreateGuestParticipant(s.ctx, "Alice")
	s.Require().NoError(err)
	bob, err := s.app.AuthService.CreateGuestParticipant(s.ctx, "Bob")
	s.Require().NoError(err)
	aliceID, bobID := alice.ParticipantID, bob.ParticipantID

	_, aliceSub := s.app.HubManager.Subscribe(aliceID, push.TransportWebSocket)
	_, bobSub := s.app.HubManager.Subscribe(bobID, push.TransportWebSocket)

	// Step 1: Alice creates a session
	s.app.MockRandom.QueueString("GAME01")
	s.app.MockRandom.QueueDice(5, 2)
	sess, err := s.app.LobbyController.CreateSession(s.ctx, aliceID)
	s.Require().NoError(err)
	s.Equal(model.SessionCode("GAME01"), sess.Code)
	s.awaitState(aliceSub, func(p model.Projection) bool { return p.Phase == model.PhaseWaitingForOpponent })

	// Step 2: Bob joins with the code as typed
	_, err = s.app.LobbyController.JoinSession(s.ctx, model.NormalizeCode(" game01 "), bobID)
	s.Require().NoError(err)
	s.awaitState(bobSub, func(p model.Projection) bool { return p.Phase == model.PhaseInitialRolls })

	// Step 3: Opening rolls, Alice's 5 beats Bob's 2
	_, err = s.app.GameController.RollInitial(s.ctx, aliceID)
	s.Require().NoError(err)
	_, err = s.app.GameController.RollInitial(s.ctx, bobID)
	s.Require().NoError(err)

	aliceView := s.awaitState(aliceSub, func(p model.Projection) bool { return p.Phase == model.PhasePlay })
	s.True(aliceView.IsMyTurn)
	s.Equal([]int{5, 2}, aliceView.MovesLeft)
	s.Equal(5, aliceView.MyInitialRoll)
	s.Equal(2, aliceView.OpponentInitialRoll)

	// Step 4: Alice plays both dice
	_, err = s.app.GameController.Move(s.ctx, aliceID, model.Move{Piece: 0, To: 2})
	s.Require().NoError(err)
	_, err = s.app.GameController.Move(s.ctx, aliceID, model.Move{Piece: 2, To: 16})
	s.Require().NoError(err)

	bobView := s.awaitState(bobSub, func(p model.Projection) bool { return p.IsMyTurn })
	s.True(bobView.NeedsToRoll)
	// Bob sees Alice's pieces mirrored
	s.Equal(model.Mirror(2), bobView.Pieces[1][0])
	s.Equal(model.Mirror(16), bobView.Pieces[1][2])

	// Step 5: Bob rolls and moves in their own orientation
	s.app.MockRandom.QueueDice(6, 5)
	_, err = s.app.GameController.Roll(s.ctx, bobID)
	s.Require().NoError(err)
	_, err = s.app.GameController.Move(s.ctx, bobID, model.Move{Piece: 0, To: 6})
	s.Require().NoError(err)
	_, err = s.app.GameController.Move(s.ctx, bobID, model.Move{Piece: 2, To: 16})
	s.Require().NoError(err)

	aliceView = s.awaitState(aliceSub, func(p model.Projection) bool { return p.IsMyTurn && p.NeedsToRoll })
	s.Equal(model.Mirror(6), aliceView.Pieces[1][0])

	stored, err := s.app.LobbyController.GetSessionByCode(s.ctx, sess.Code)
	s.Require().NoError(err)
	s.Equal(model.Mirror(6), stored.Board[model.SideOne][0])
	s.Equal(3, stored.TurnNumber)

	// Step 6: Jump to Alice's last piece and bear it off
	_, err = s.app.Storage.UpdateSession(s.ctx, sess.Code, func(sess *model.Session) error {
		for i := range sess.Board[model.SideZero] {
			sess.Board[model.SideZero][i] = model.SideZeroBorneOff
		}
		sess.Board[model.SideZero][0] = 23
		return nil
	})
	s.Require().NoError(err)

	s.app.MockRandom.QueueDice(1, 3)
	_, err = s.app.GameController.Roll(s.ctx, aliceID)
	s.Require().NoError(err)
	final, err := s.app.GameController.Move(s.ctx, aliceID, model.Move{Piece: 0, To: model.SideZeroBorneOff})
	s.Require().NoError(err)
	s.Equal(model.PhaseFinished, final.Phase)
	s.Equal(model.ResultWon, final.Result)

	bobView = s.awaitState(bobSub, func(p model.Projection) bool { return p.Phase == model.PhaseFinished })
	s.Equal(model.ResultLost, bobView.Result)

	// Step 7: Rematch
	s.app.MockRandom.QueueDice(2, 6)
	rematch, err := s.app.GameController.Rematch(s.ctx, bobID)
	s.Require().NoError(err)
	s.Equal(model.PhaseInitialRolls, rematch.Phase)
	s.Equal(1, rematch.GamesPlayed)
	s.Equal(model.StartingBoard(), rematch.Pieces)
}

// Test: the registry rejects late joiners and unknown codes
func (s *IntegrationSuite) TestJoinRejections() {
	s.app.MockRandom.QueueString("GAME01")
	sess, err := s.app.LobbyController.CreateSession(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.app.LobbyController.JoinSession(s.ctx, "NOPE00", "bob")
	s.ErrorIs(err, model.ErrInvalidJoinCode)

	_, err = s.app.LobbyController.JoinSession(s.ctx, sess.Code, "bob")
	s.Require().NoError(err)

	_, err = s.app.LobbyController.JoinSession(s.ctx, sess.Code, "carol")
	s.ErrorIs(err, model.ErrAlreadyStarted)
}

// Test: a participant with no legal entry has the turn passed for them
func (s *IntegrationSuite) TestBlockedTurnIsPassed() {
	s.app.MockRandom.QueueString("GAME01")
	s.app.MockRandom.QueueDice(5, 2)
	sess, err := s.app.LobbyController.CreateSession(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.app.LobbyController.JoinSession(s.ctx, sess.Code, "bob")
	s.Require().NoError(err)

	_, err = s.app.Storage.UpdateSession(s.ctx, sess.Code, func(sess *model.Session) error {
		sess.Phase = model.PhasePlay
		sess.Turn = model.SideZero
		sess.NeedsToRoll = true
		sess.InitialRolls[0].Rolled = true
		sess.InitialRolls[1].Rolled = true
		sess.Board[model.SideZero][0] = model.SideZeroEntry
		for i := 0; i < 12; i++ {
			sess.Board[model.SideOne][i] = i / 2
		}
		return nil
	})
	s.Require().NoError(err)

	s.app.MockRandom.QueueDice(6, 5)
	p, err := s.app.GameController.Roll(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(p.Blocked)

	s.app.MockClock.Advance(2 * time.Second)

	bob, err := s.app.GameController.GetState(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(bob.IsMyTurn)
	s.True(bob.NeedsToRoll)
}

// Test: the cleanup sweep stops idle hubs and drops expired guests on the app clock
func (s *IntegrationSuite) TestCleanupSweepsIdleGuests() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.app.StartCleanup(ctx, 5*time.Minute)

	var guests []model.ParticipantID
	for i := 0; i < 50; i++ {
		guest, err := s.app.AuthService.CreateGuestParticipant(s.ctx, "")
		s.Require().NoError(err)
		hub, sub := s.app.HubManager.Subscribe(guest.ParticipantID, push.TransportWebSocket)
		hub.Unsubscribe(sub)
		guests = append(guests, guest.ParticipantID)
	}
	s.app.HubManager.Subscribe("keeper", push.TransportSSE)
	s.Eventually(func() bool {
		for _, id := range guests {
			if s.app.HubManager.GetHub(id).SubscriberCount() != 0 {
				return false
			}
		}
		return true
	}, time.Second, time.Millisecond)
	s.Equal(51, s.app.HubManager.HubCount())

	s.app.MockClock.Advance(5 * time.Minute)
	s.Equal(1, s.app.HubManager.HubCount())
	s.NotNil(s.app.HubManager.GetHub("keeper"))
	_, err := s.app.Storage.GetParticipant(s.ctx, guests[0])
	s.NoError(err)

	s.app.MockClock.Advance(25 * time.Hour)
	for _, id := range guests {
		_, err := s.app.Storage.GetParticipant(s.ctx, id)
		s.ErrorIs(err, model.ErrParticipantNotFound)
	}

	cancel()
	s.app.MockClock.Advance(5 * time.Minute)
	s.Zero(s.app.MockClock.PendingTimers())
}
