package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mines_wager/internal/domain"

	redis "github.com/redis/go-redis/v9"
)

const (
	defaultOutboxKey = "mines:orders"
	deadLetterSuffix = ":dead"
	popTimeout       = time.Second
)

// RedisOutbox queues order reports in a Redis list so they survive restarts
type RedisOutbox struct {
	rdb     *redis.Client
	key     string
	deadKey string
}

func NewRedisOutbox(rdb *redis.Client, key string) *RedisOutbox {
	if key == "" {
		key = defaultOutboxKey
	}
	return &RedisOutbox{rdb: rdb, key: key, deadKey: key + deadLetterSuffix}
}

func (o *RedisOutbox) Enqueue(ctx context.Context, report domain.OrderReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return o.rdb.LPush(ctx, o.key, b).Err()
}

// Dequeue blocks until a report is available or ctx is done
func (o *RedisOutbox) Dequeue(ctx context.Context) (*domain.OrderReport, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := o.rdb.BRPop(ctx, popTimeout, o.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		// res[0] is the key, res[1] the value
		var report domain.OrderReport
		if err := json.Unmarshal([]byte(res[1]), &report); err != nil {
			return nil, err
		}
		return &report, nil
	}
}

func (o *RedisOutbox) DeadLetter(ctx context.Context, report domain.OrderReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return o.rdb.LPush(ctx, o.deadKey, b).Err()
}

// Pending returns the number of queued and dead-lettered reports
func (o *RedisOutbox) Pending(ctx context.Context) (queued, dead int64, err error) {
	if queued, err = o.rdb.LLen(ctx, o.key).Result(); err != nil {
		return 0, 0, err
	}
	if dead, err = o.rdb.LLen(ctx, o.deadKey).Result(); err != nil {
		return 0, 0, err
	}
	return queued, dead, nil
}
