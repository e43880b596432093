package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTTL        = 15 * time.Second
	defaultRetryEvery = 50 * time.Millisecond
)

// Удаляем ключ, только если он всё ещё наш
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Продлеваем TTL, только если ключ всё ещё наш
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker распределённая блокировка на SET NX PX.
// Пока ключ удерживается, TTL продлевается каждую треть TTL; если процесс упал,
// ключ истекает не позже чем через TTL.
type RedisLocker struct {
	rdb        *redis.Client
	logger     *zap.Logger
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
}

func NewRedisLocker(rdb *redis.Client, logger *zap.Logger, prefix string, ttl time.Duration) *RedisLocker {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "lock"
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{
		rdb:        rdb,
		logger:     logger,
		prefix:     prefix,
		ttl:        ttl,
		retryEvery: defaultRetryEvery,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + ":" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", redisKey, ctx.Err())
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	go keepAlive(stop, l.ttl/3, func() (bool, error) {
		extendCtx, cancel := context.WithTimeout(context.Background(), l.retryEvery*10)
		defer cancel()
		n, err := extendScript.Run(extendCtx, l.rdb, []string{redisKey}, token, l.ttl.Milliseconds()).Int64()
		return n == 1, err
	}, func(err error) {
		l.logger.Warn("Failed to extend lock",
			zap.String("key", redisKey),
			zap.Error(err),
		)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)

			// Отпускаем даже если ctx вызывающего уже отменён
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("Failed to release lock",
					zap.String("key", redisKey),
					zap.Error(err),
				)
			}
		})
	}, nil
}

var errLockLost = errors.New("lock key expired or taken over")

// keepAlive вызывает extend каждые every, пока не закрыт stop.
// Выходит, если ключ потерян; ошибки сети только логируются, следующая попытка через every.
func keepAlive(stop <-chan struct{}, every time.Duration, extend func() (bool, error), onFail func(error)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ok, err := extend()
		if err != nil {
			onFail(err)
			continue
		}
		if !ok {
			onFail(errLockLost)
			return
		}
	}
}
