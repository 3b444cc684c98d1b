package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "sessions:"

// RedisStore keeps one user's session in a Redis hash. It exists for
// server-side hosts that handle many end users concurrently: each user gets
// their own RedisStore keyed by their identifier, so no two users ever share
// session state. The hash is written in a transaction pipeline, so a
// concurrent reader sees either the whole previous session or the whole new
// one.
type RedisStore struct {
	client *goredis.Client
	userID string
	ctx    context.Context
}

// NewRedisStore creates a session store for the given end user. The caller
// keeps ownership of the client.
func NewRedisStore(ctx context.Context, client *goredis.Client, userID string) *RedisStore {
	return &RedisStore{client: client, userID: userID, ctx: ctx}
}

func (s *RedisStore) key() string {
	return sessionKeyPrefix + s.userID
}

func (s *RedisStore) Read() (Session, error) {
	if s.client == nil {
		return Session{}, ErrStoreUnavailable
	}
	values, err := s.client.HGetAll(s.ctx, s.key()).Result()
	if err != nil {
		return Session{}, fmt.Errorf("read session hash: %w", err)
	}
	if len(values) == 0 {
		return Session{}, nil
	}
	sess := Session{
		AccessToken:  values[AccessTokenKey],
		RefreshToken: values[RefreshTokenKey],
	}
	if raw, ok := values[TokenExpiryKey]; ok && raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && unix > 0 {
			sess.AccessExpiry = time.Unix(unix, 0)
		}
	}
	return sess, nil
}

func (s *RedisStore) Write(t Tokens) error {
	if s.client == nil {
		return ErrStoreUnavailable
	}
	fields := map[string]interface{}{
		AccessTokenKey:  t.Access,
		RefreshTokenKey: t.Refresh,
	}
	if expiry := expiryFrom(t, NowTimeFunc()); !expiry.IsZero() {
		fields[TokenExpiryKey] = expiry.Unix()
	}

	pipe := s.client.TxPipeline()
	pipe.Del(s.ctx, s.key())
	pipe.HSet(s.ctx, s.key(), fields)
	if _, err := pipe.Exec(s.ctx); err != nil {
		return fmt.Errorf("write session hash: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	if s.client == nil {
		return ErrStoreUnavailable
	}
	if err := s.client.Del(s.ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear session hash: %w", err)
	}
	return nil
}
