package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "hacknet:session:"

// RedisStore keeps sessions as expiring Redis keys.
type RedisStore struct {
	rdb    *redis.Client
	sealer *Sealer
	ttl    time.Duration
}

func NewRedisStore(rdb *redis.Client, sealer *Sealer, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, sealer: sealer, ttl: ttl}
}

type redisRecord struct {
	TokenSealed string    `json:"token_sealed"`
	Subject     string    `json:"subject"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *RedisStore) Create(ctx context.Context, token string) (Record, error) {
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return Record{}, fmt.Errorf("sealing token: %w", err)
	}
	now := time.Now().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		Token:     token,
		Subject:   SubjectOf(token),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(redisRecord{
		TokenSealed: sealed,
		Subject:     rec.Subject,
		CreatedAt:   rec.CreatedAt,
		ExpiresAt:   rec.ExpiresAt,
	})
	if err != nil {
		return Record{}, fmt.Errorf("encoding session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+rec.ID, data, s.ttl).Err(); err != nil {
		return Record{}, fmt.Errorf("storing session: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	data, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading session: %w", err)
	}
	var rr redisRecord
	if err := json.Unmarshal(data, &rr); err != nil {
		return Record{}, drop(ctx, s, id, err)
	}
	token, err := s.sealer.Open(rr.TokenSealed)
	if err != nil {
		return Record{}, drop(ctx, s, id, err)
	}
	return Record{
		ID:        id,
		Token:     token,
		Subject:   rr.Subject,
		CreatedAt: rr.CreatedAt,
		ExpiresAt: rr.ExpiresAt,
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Check implements health.Checker.
func (s *RedisStore) Check(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
