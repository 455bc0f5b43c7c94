package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConfirmationGuard serializes confirmations per booking so two concurrent
// requests cannot both reach the calendar-event creation step.
type ConfirmationGuard interface {
	Acquire(ctx context.Context, bookingID string) (bool, error)
	Release(ctx context.Context, bookingID string)
}

// guardTTL bounds how long a crashed confirmation can hold the guard.
const guardTTL = 2 * time.Minute

// RedisConfirmationGuard implements ConfirmationGuard with SETNX.
type RedisConfirmationGuard struct {
	Client *redis.Client
}

func guardKey(bookingID string) string {
	return "confirm:" + bookingID
}

func (g *RedisConfirmationGuard) Acquire(ctx context.Context, bookingID string) (bool, error) {
	ok, err := g.Client.SetNX(ctx, guardKey(bookingID), time.Now().UnixNano(), guardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire confirmation guard for %s: %w", bookingID, err)
	}
	return ok, nil
}

func (g *RedisConfirmationGuard) Release(ctx context.Context, bookingID string) {
	g.Client.Del(ctx, guardKey(bookingID))
}
