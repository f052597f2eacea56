package redisad

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Counters implements ratelimit.CounterStore on redis. Fixed windows are
// INCR+EXPIRE keys, sliding windows are sorted sets scored by nanosecond
// timestamps, blocks are plain keys whose TTL is the block duration.
// Atomicity of increment-and-check comes from redis itself.
type Counters struct{ c *redis.Client }

func NewCounters(addr, pass string, db int) *Counters {
	return &Counters{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Counters) GetBlock(ctx context.Context, key string) (bool, time.Time, error) {
	n, err := r.c.Exists(ctx, key).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	if n == 0 {
		return false, time.Time{}, nil
	}
	ttl, err := r.c.PTTL(ctx, key).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	return true, time.Now().Add(ttl), nil
}

func (r *Counters) SetBlock(ctx context.Context, key, reason string, ttl time.Duration) error {
	return r.c.Set(ctx, key, reason, ttl).Err()
}

func (r *Counters) IncrFixedWindow(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	pipe := r.c.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	return incr.Val(), time.Now().Add(pttl.Val()), nil
}

func (r *Counters) IncrSlidingWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	pipe := r.c.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}
