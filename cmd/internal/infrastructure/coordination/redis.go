package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hseqaudit/cmd/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix     = "hseq:lock:"
	sequencePrefix = "hseq:seq:"
)

// raiseTo sets KEYS[1] to ARGV[1] unless it already holds a larger value.
var raiseTo = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return current
`)

func NewRedisClient(ctx context.Context, address, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
		PoolSize: 20,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", address, err)
	}
	config.GetLogger().Infof("connected to redis (addr=%s)", address)
	return client, nil
}

type RedisLocker struct {
	locker *redislock.Client
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{locker: redislock.New(client)}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.locker.Obtain(ctx, lockPrefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockBackoff), lockRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// The request context may already be gone when the deferred release runs.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.GetLogger().Warnf("failed to release redis lock %s: %v", key, err)
		}
	}, nil
}

type RedisSequencer struct {
	client redis.UniversalClient
	floor  FloorFunc
}

func NewRedisSequencer(client redis.UniversalClient, floor FloorFunc) *RedisSequencer {
	return &RedisSequencer{client: client, floor: floor}
}

// Next increments the counter of scope. A freshly created counter is first
// aligned with the codes already stored in the database.
func (s *RedisSequencer) Next(ctx context.Context, scope string) (int64, error) {
	key := sequencePrefix + scope
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n != 1 || s.floor == nil {
		return n, nil
	}

	highest, err := s.floor(scope)
	if err != nil {
		return 0, err
	}
	if highest == 0 {
		return n, nil
	}
	return s.client.IncrBy(ctx, key, highest).Result()
}

func (s *RedisSequencer) Resync(ctx context.Context, scope string) error {
	if s.floor == nil {
		return nil
	}

	highest, err := s.floor(scope)
	if err != nil {
		return err
	}
	return raiseTo.Run(ctx, s.client, []string{sequencePrefix + scope}, highest).Err()
}
