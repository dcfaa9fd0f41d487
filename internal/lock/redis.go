package lock

import (
	"context"
	"fmt"
	"time"

	"clinic-queue-dashboard/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultRetryInterval = 50 * time.Millisecond

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisLocker is a SET NX PX lock shared by every process using the same key.
// The TTL bounds how long a crashed holder can block other writers.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
	local  *LocalLocker
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
		retry:  defaultRetryInterval,
		local:  NewLocalLocker(),
		logger: logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	releaseLocal, err := l.local.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			releaseLocal()
			return nil, fmt.Errorf("failed to acquire writer lock: %w", err)
		}
		if ok {
			return func() {
				// Release must work even when the caller's context has already expired
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil {
					l.logger.Warn("failed to release writer lock", zap.String("key", l.key), zap.Error(err))
				}
				releaseLocal()
			}, nil
		}

		select {
		case <-ctx.Done():
			releaseLocal()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
