package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/domain"
)

const (
	redisLockRetryInterval = 100 * time.Millisecond
	redisLockTimeout       = 2 * time.Second
	redisScanCount         = 100
)

// Deletes the lock only while it still carries our owner value.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRegistry struct {
	client redis.UniversalClient
	cfg    *config.RedisConfig
	owner  string
	logger zerolog.Logger
}

var _ Registry = (*RedisRegistry)(nil)

func NewRedisRegistry(client redis.UniversalClient, cfg *config.RedisConfig, owner string, logger zerolog.Logger) *RedisRegistry {
	return &RedisRegistry{
		client: client,
		cfg:    cfg,
		owner:  owner,
		logger: logger,
	}
}

func (rr *RedisRegistry) prefix() string {
	return strings.TrimRight(rr.cfg.KeyPrefix, ":")
}

func (rr *RedisRegistry) stateKey(addressID, category string) string {
	return fmt.Sprintf("%s:state:%s:%s", rr.prefix(), addressID, category)
}

func (rr *RedisRegistry) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", rr.prefix(), key)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// Publish writes the sensor state, expiring it after StateTTL when set.
func (rr *RedisRegistry) Publish(ctx context.Context, s *domain.SensorState) error {
	value, err := marshalState(s, rr.owner)
	if err != nil {
		return err
	}
	key := rr.stateKey(s.AddressID, s.CategoryKey)
	if err := rr.client.Set(ctx, key, value, seconds(rr.cfg.StateTTL)).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	rr.logger.Debug().Msgf("[redis_registry] Published %s", s.Render())
	return nil
}

func (rr *RedisRegistry) Remove(ctx context.Context, s *domain.SensorState) error {
	key := rr.stateKey(s.AddressID, s.CategoryKey)
	if err := rr.client.Del(ctx, key).Err(); err != nil {
		rr.logger.Warn().Err(err).Msgf("[redis_registry] Failed to delete key %s", key)
		return err
	}
	rr.logger.Info().Msgf("[redis_registry] Deleted key %s", key)
	return nil
}

// List scans every state key of the address.
func (rr *RedisRegistry) List(ctx context.Context, addressID string) ([]*domain.SensorState, error) {
	keyPrefix := fmt.Sprintf("%s:state:%s:", rr.prefix(), addressID)
	var states []*domain.SensorState
	iter := rr.client.Scan(ctx, 0, keyPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		category := strings.TrimPrefix(key, keyPrefix)
		if category == "" || strings.Contains(category, ":") {
			rr.logger.Warn().Msgf("[redis_registry] Ignoring unexpected key: %s", key)
			continue
		}
		raw, err := rr.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET.
			continue
		}
		if err != nil {
			return nil, err
		}
		s, err := unmarshalState(addressID, category, raw)
		if err != nil {
			rr.logger.Error().Err(err).Msgf("[redis_registry] Failed to parse key: %s", key)
			continue
		}
		states = append(states, s)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

// LockTransaction takes a SET NX lock per key, runs fn and releases the locks
// in reverse order.
func (rr *RedisRegistry) LockTransaction(ctx context.Context, keys []string, fn func() error) error {
	held := make([]string, 0, len(keys))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseLockScript.Run(context.WithoutCancel(ctx), rr.client, []string{held[i]}, rr.owner).Err(); err != nil {
				rr.logger.Warn().Err(err).Msgf("failed to release lock %s", held[i])
			}
		}
	}()

	for _, key := range keys {
		lockKey := rr.lockKey(key)
		if err := rr.acquire(ctx, lockKey); err != nil {
			return fmt.Errorf("failed to acquire lock on %s: %w", key, err)
		}
		held = append(held, lockKey)
	}
	return fn()
}

var errLockTimeout = errors.New("lock timeout")

func (rr *RedisRegistry) acquire(ctx context.Context, lockKey string) error {
	deadline := time.Now().Add(redisLockTimeout)
	for {
		ok, err := rr.client.SetNX(ctx, lockKey, rr.owner, seconds(rr.cfg.LockTTL)).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errLockTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(redisLockRetryInterval):
		}
	}
}

func (rr *RedisRegistry) Close() error {
	return rr.client.Close()
}
