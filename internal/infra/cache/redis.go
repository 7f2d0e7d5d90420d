package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"cybercrush-seeder/internal/domain"
	"cybercrush-seeder/internal/infra/metrics"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock реализует domain.RunLock через SETNX.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ domain.RunLock = (*RedisLock)(nil)

// NewRedisLock создаёт блокировку запуска.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// Acquire захватывает блокировку от имени owner. false - блокировка уже занята.
func (l *RedisLock) Acquire(ctx context.Context, owner string) (bool, error) {
	start := time.Now()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
	metrics.ObserveNetworkRequest("redis", "lock_acquire", l.key, start, err)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release снимает блокировку, только если она принадлежит owner.
func (l *RedisLock) Release(ctx context.Context, owner string) error {
	start := time.Now()
	err := releaseScript.Run(ctx, l.client, []string{l.key}, owner).Err()
	metrics.ObserveNetworkRequest("redis", "lock_release", l.key, start, err)
	return err
}
