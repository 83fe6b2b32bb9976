package repository

import (
	"context"
	"testing"
	"time"

	"mines_wager/internal/domain"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutbox(t *testing.T) *RedisOutbox {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisOutbox(rdb, "test:orders")
}

func TestRedisOutboxFIFO(t *testing.T) {
	ctx := context.Background()
	o := newTestOutbox(t)

	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, o.Enqueue(ctx, domain.OrderReport{
			CorrelationID: id,
			PlayerID:      "p1",
			BetAmount:     decimal.NewFromInt(10),
			WonAmount:     decimal.NewFromInt(15),
			Odds:          decimal.RequireFromString("1.5"),
			Status:        domain.OrderStatusWin,
		}))
	}

	first, err := o.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c1", first.CorrelationID)
	assert.True(t, first.Odds.Equal(decimal.RequireFromString("1.5")))

	second, err := o.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c2", second.CorrelationID)
}

func TestRedisOutboxDequeueHonoursContext(t *testing.T) {
	o := newTestOutbox(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := o.Dequeue(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisOutboxDeadLetter(t *testing.T) {
	ctx := context.Background()
	o := newTestOutbox(t)

	require.NoError(t, o.Enqueue(ctx, domain.OrderReport{CorrelationID: "live"}))
	require.NoError(t, o.DeadLetter(ctx, domain.OrderReport{CorrelationID: "dead", Attempts: 5}))

	queued, dead, err := o.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
	assert.Equal(t, int64(1), dead)
}
