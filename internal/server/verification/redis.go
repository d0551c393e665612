package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "verification:"

// consumeScript deletes the key only if it still holds the presented code.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRegistry stores codes in Redis with a native TTL. It owns the client
// and closes it on Close.
type RedisRegistry struct {
	client redis.UniversalClient
	opts   options
}

var _ Registry = (*RedisRegistry)(nil)

func NewRedisRegistry(client redis.UniversalClient, opts ...Option) *RedisRegistry {
	return &RedisRegistry{client: client, opts: newOptions(opts)}
}

// NewRedisClient connects to a single Redis node and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func redisKey(purpose Purpose, email string) string {
	return keyPrefix + string(purpose) + ":" + email
}

func (r *RedisRegistry) Issue(ctx context.Context, purpose Purpose, email string) (string, error) {
	code, err := r.opts.generate()
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, redisKey(purpose, email), code, r.opts.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

func (r *RedisRegistry) Verify(ctx context.Context, purpose Purpose, email, code string) error {
	stored, err := r.client.Get(ctx, redisKey(purpose, email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return common.ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to get verification code: %w", err)
	}
	if !codesEqual(stored, code) {
		return common.ErrInvalidOrExpiredCode
	}
	return nil
}

func (r *RedisRegistry) Consume(ctx context.Context, purpose Purpose, email, code string) error {
	n, err := consumeScript.Run(ctx, r.client, []string{redisKey(purpose, email)}, code).Int()
	if err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	if n == 0 {
		return common.ErrInvalidOrExpiredCode
	}
	return nil
}

func (r *RedisRegistry) Invalidate(ctx context.Context, purpose Purpose, email string) error {
	if err := r.client.Del(ctx, redisKey(purpose, email)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
