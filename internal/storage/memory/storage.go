package memory

import (
	"context"
	"sync"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/storage"
)

// entry guards a single session so writers of different sessions never contend
type entry struct {
	mu      sync.Mutex
	session *model.Session
}

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	participants sync.Map // model.ParticipantID -> *model.Participant
	sessions     sync.Map // model.SessionCode -> *entry
	seats        sync.Map // model.ParticipantID -> model.SessionCode
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	cp := *p
	s.participants.Store(p.ID, &cp)
	return nil
}

func (s *Storage) GetParticipant(ctx context.Context, id model.ParticipantID) (*model.Participant, error) {
	v, ok := s.participants.Load(id)
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	cp := *v.(*model.Participant)
	return &cp, nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, id model.ParticipantID) error {
	s.participants.Delete(id)
	s.seats.Delete(id)
	return nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, sess *model.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	e := &entry{session: sess.Clone()}
	if _, loaded := s.sessions.LoadOrStore(sess.Code, e); loaded {
		return model.ErrSessionCodeTaken
	}
	s.seat(sess.Code, sess.Participants[:]...)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	e, ok := s.load(code)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

func (s *Storage) GetSessionByParticipant(ctx context.Context, id model.ParticipantID) (*model.Session, error) {
	v, ok := s.seats.Load(id)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s.GetSession(ctx, v.(model.SessionCode))
}

func (s *Storage) ReplaceSession(ctx context.Context, sess *model.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	e, ok := s.load(sess.Code)
	if !ok {
		return model.ErrSessionNotFound
	}
	e.mu.Lock()
	e.session = sess.Clone()
	e.mu.Unlock()
	s.seat(sess.Code, sess.Participants[:]...)
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	_, ok := s.sessions.Load(code)
	return ok, nil
}

func (s *Storage) UpdateSession(ctx context.Context, code model.SessionCode, fn storage.UpdateFunc) (*model.Session, error) {
	e, ok := s.load(code)
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.session.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	if err := work.Validate(); err != nil {
		return nil, err
	}

	added := storage.NewlySeated(e.session.Participants, work.Participants)
	e.session = work
	s.seat(code, added...)
	return work.Clone(), nil
}

func (s *Storage) load(code model.SessionCode) (*entry, bool) {
	v, ok := s.sessions.Load(code)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (s *Storage) seat(code model.SessionCode, ids ...model.ParticipantID) {
	for _, id := range ids {
		if id != "" {
			s.seats.Store(id, code)
		}
	}
}
