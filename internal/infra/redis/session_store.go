package redis

import (
	"context"
	"encoding/json"
	"time"

	"quizgate/internal/session"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists attempt records in Redis so an attempt survives
// a process restart: SET quiz:session:{quizID} {record json} EX ttl.
// One record per quiz id; a second attempt under the same id overwrites
// the first (last write wins).
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, quizID string, rec session.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(quizID), raw, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, quizID string) (session.Record, bool, error) {
	raw, err := s.client.Get(ctx, s.key(quizID)).Bytes()
	if err == redis.Nil {
		return session.Record{}, false, nil
	}
	if err != nil {
		return session.Record{}, false, err
	}
	var rec session.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return session.Record{}, false, err
	}
	return rec, true, nil
}

func (s *SessionStore) Clear(ctx context.Context, quizID string) error {
	return s.client.Del(ctx, s.key(quizID)).Err()
}

func (s *SessionStore) key(quizID string) string {
	return "quiz:session:" + quizID
}
