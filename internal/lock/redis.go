// Package lock реализует эксклюзивные блокировки по ключу: распределенную в redis и локальную в памяти процесса.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

const DefaultTTL = 30 * time.Second

// releaseScript удаляет ключ только если его значение совпадает с токеном владельца, чтобы не снять
// блокировку, которую после истечения TTL захватил другой процесс.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировка через SET NX с TTL.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// TryLock захватывает key без ожидания. Если ключ занят, возвращает domain.ErrLockNotAcquired.
func (r *RedisLocker) TryLock(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("[lock] set `%s`: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockNotAcquired
	}

	return func(c context.Context) error {
		if runErr := releaseScript.Run(c, r.client, []string{key}, token).Err(); runErr != nil {
			return fmt.Errorf("[lock] release `%s`: %w", key, runErr)
		}
		return nil
	}, nil
}
