// Package storagetest holds behaviour every storage.Storage implementation must share.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/storage"
)

// Suite runs the shared storage contract. Embed it and set Storage in SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) newSession(code model.SessionCode, creator model.ParticipantID) *model.Session {
	return model.NewSession(code, creator, [2]int{5, 2}, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
}

func (s *Suite) TestSaveAndGetParticipant() {
	p := &model.Participant{ID: "p-1", DisplayName: "Alice", CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.Require().NoError(s.Storage.SaveParticipant(s.Ctx, p))

	got, err := s.Storage.GetParticipant(s.Ctx, "p-1")
	s.Require().NoError(err)
	s.Equal(p.DisplayName, got.DisplayName)
	s.True(p.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetParticipantNotFound() {
	_, err := s.Storage.GetParticipant(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *Suite) TestDeleteParticipantDropsSeat() {
	p := &model.Participant{ID: "alice", DisplayName: "Alice"}
	s.Require().NoError(s.Storage.SaveParticipant(s.Ctx, p))
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, s.newSession("ABC123", "alice")))

	s.Require().NoError(s.Storage.DeleteParticipant(s.Ctx, "alice"))

	_, err := s.Storage.GetParticipant(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrParticipantNotFound)
	_, err = s.Storage.GetSessionByParticipant(s.Ctx, "alice")
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.Storage.GetSession(s.Ctx, "ABC123")
	s.NoError(err)
}

func (s *Suite) TestDeleteUnknownParticipant() {
	s.NoError(s.Storage.DeleteParticipant(s.Ctx, "nobody"))
}

func (s *Suite) TestCreateAndGetSession() {
	sess := s.newSession("ABC123", "alice")
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, sess))

	byCode, err := s.Storage.GetSession(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(sess.Board, byCode.Board)
	s.Equal(model.PhaseWaitingForOpponent, byCode.Phase)
	s.Equal(model.NoDice(), byCode.Dice)
	s.Equal(model.NoSide, byCode.Winner)

	byParticipant, err := s.Storage.GetSessionByParticipant(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.SessionCode("ABC123"), byParticipant.Code)

	exists, err := s.Storage.SessionExists(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestCreateSessionRejectsDuplicateCode() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, s.newSession("ABC123", "alice")))
	err := s.Storage.CreateSession(s.Ctx, s.newSession("ABC123", "bob"))
	s.ErrorIs(err, model.ErrSessionCodeTaken)
}

func (s *Suite) TestCreateSessionRejectsInvalidBoard() {
	sess := s.newSession("ABC123", "alice")
	sess.Board[0][0] = 40
	s.ErrorIs(s.Storage.CreateSession(s.Ctx, sess), model.ErrInvalidSession)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "NOPE00")
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.Storage.GetSessionByParticipant(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrSessionNotFound)

	exists, err := s.Storage.SessionExists(s.Ctx, "NOPE00")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestReplaceSession() {
	sess := s.newSession("ABC123", "alice")
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, sess))

	sess.Participants[model.SideOne] = "bob"
	sess.Phase = model.PhaseInitialRolls
	s.Require().NoError(s.Storage.ReplaceSession(s.Ctx, sess))

	got, err := s.Storage.GetSessionByParticipant(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Equal(model.PhaseInitialRolls, got.Phase)
}

func (s *Suite) TestReplaceMissingSession() {
	err := s.Storage.ReplaceSession(s.Ctx, s.newSession("GHOST1", "alice"))
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestUpdateSessionAppliesAndIndexes() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, s.newSession("ABC123", "alice")))

	updated, err := s.Storage.UpdateSession(s.Ctx, "ABC123", func(sess *model.Session) error {
		sess.Participants[model.SideOne] = "bob"
		sess.Phase = model.PhaseInitialRolls
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.PhaseInitialRolls, updated.Phase)

	got, err := s.Storage.GetSessionByParticipant(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Equal(model.SessionCode("ABC123"), got.Code)
}

func (s *Suite) TestUpdateSessionErrorLeavesStateUnchanged() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, s.newSession("ABC123", "alice")))
	boom := errors.New("boom")

	_, err := s.Storage.UpdateSession(s.Ctx, "ABC123", func(sess *model.Session) error {
		sess.Phase = model.PhaseFinished
		sess.Board[0][0] = 12
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.Storage.GetSession(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.PhaseWaitingForOpponent, got.Phase)
	s.Equal(model.StartingBoard(), got.Board)
}

func (s *Suite) TestUpdateMissingSession() {
	_, err := s.Storage.UpdateSession(s.Ctx, "NOPE00", func(*model.Session) error { return nil })
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestReturnedSessionsDoNotAliasStoredState() {
	sess := s.newSession("ABC123", "alice")
	sess.MovesLeft = []int{3, 4}
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, sess))

	sess.MovesLeft[0] = 6
	got, err := s.Storage.GetSession(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal([]int{3, 4}, got.MovesLeft)

	got.MovesLeft[1] = 1
	again, err := s.Storage.GetSession(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal([]int{3, 4}, again.MovesLeft)
}

func (s *Suite) TestConcurrentUpdatesDoNotInterleave() {
	s.Require().NoError(s.Storage.CreateSession(s.Ctx, s.newSession("ABC123", "alice")))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.UpdateSession(s.Ctx, "ABC123", func(sess *model.Session) error {
				sess.TurnNumber++
				return nil
			})
			if err != nil && !errors.Is(err, storage.ErrConflict) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	got, err := s.Storage.GetSession(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Positive(got.TurnNumber)
	s.LessOrEqual(got.TurnNumber, writers)
}
