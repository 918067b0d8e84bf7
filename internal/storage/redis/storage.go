package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/backgammon-go/internal/model"
	"github.com/mcoot/backgammon-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxUpdateRetries <= 0 {
		cfg.MaxUpdateRetries = DefaultConfig().MaxUpdateRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, participantKey(p.ID), data, s.cfg.ParticipantTTL).Err()
}

func (s *Storage) GetParticipant(ctx context.Context, id model.ParticipantID) (*model.Participant, error) {
	data, err := s.client.Get(ctx, participantKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, err
	}

	var p model.Participant
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, id model.ParticipantID) error {
	return s.client.Del(ctx, participantKey(id), seatIndexKey(id)).Err()
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, sess *model.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, sessionKey(sess.Code), data, s.cfg.SessionTTL).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrSessionCodeTaken
	}

	pipe := s.client.Pipeline()
	s.seat(ctx, pipe, sess.Code, sess.Participants[:]...)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return decodeSession(data)
}

func (s *Storage) GetSessionByParticipant(ctx context.Context, id model.ParticipantID) (*model.Session, error) {
	code, err := s.client.Get(ctx, seatIndexKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return s.GetSession(ctx, model.SessionCode(code))
}

func (s *Storage) ReplaceSession(ctx context.Context, sess *model.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	// XX: only replace a session that still exists
	pipe := s.client.TxPipeline()
	setCmd := pipe.SetArgs(ctx, sessionKey(sess.Code), data, redis.SetArgs{Mode: "XX", TTL: s.cfg.SessionTTL})
	s.seat(ctx, pipe, sess.Code, sess.Participants[:]...)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if setCmd.Err() != nil {
		if errors.Is(setCmd.Err(), redis.Nil) {
			return model.ErrSessionNotFound
		}
		return setCmd.Err()
	}
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateSession applies fn under WATCH and retries when another writer got there first
func (s *Storage) UpdateSession(ctx context.Context, code model.SessionCode, fn storage.UpdateFunc) (*model.Session, error) {
	key := sessionKey(code)

	for attempt := 0; attempt < s.cfg.MaxUpdateRetries; attempt++ {
		var result *model.Session

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return model.ErrSessionNotFound
				}
				return err
			}

			sess, err := decodeSession(data)
			if err != nil {
				return err
			}
			before := sess.Participants

			if err := fn(sess); err != nil {
				return err
			}
			if err := sess.Validate(); err != nil {
				return err
			}
			out, err := json.Marshal(sess)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, s.cfg.SessionTTL)
				s.seat(ctx, pipe, code, storage.NewlySeated(before, sess.Participants)...)
				s.touchSeats(ctx, pipe, before[:]...)
				return nil
			})
			if err != nil {
				return err
			}
			result = sess
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, storage.ErrConflict
}

func (s *Storage) seat(ctx context.Context, pipe redis.Pipeliner, code model.SessionCode, ids ...model.ParticipantID) {
	for _, id := range ids {
		if id != "" {
			pipe.Set(ctx, seatIndexKey(id), string(code), s.cfg.SessionTTL)
		}
	}
}

// touchSeats extends the index TTL of participants already seated. It never
// repoints an index, so a participant who has moved on to another session keeps it.
func (s *Storage) touchSeats(ctx context.Context, pipe redis.Pipeliner, ids ...model.ParticipantID) {
	// EXPIRE with a zero TTL would delete the key
	if s.cfg.SessionTTL <= 0 {
		return
	}
	for _, id := range ids {
		if id != "" {
			pipe.Expire(ctx, seatIndexKey(id), s.cfg.SessionTTL)
		}
	}
}

func decodeSession(data []byte) (*model.Session, error) {
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	return &sess, nil
}
