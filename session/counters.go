package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// IncrWindow adds one to the fixed-window counter at key and returns the new
// count. The window opens on the first hit and the counter expires with it.
// key is used verbatim, without KeyPrefix.
//
//	Performance: INCR, plus EXPIRE on the first hit.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, unavailable(err)
		}
	}
	return count, nil
}

// Counter reads the counter at key. A missing key reads as zero.
func (c *Client) Counter(ctx context.Context, key string) (int64, error) {
	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	count, err := rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, unavailable(err)
	}
	return count, nil
}

// ResetCounters deletes the given counters.
func (c *Client) ResetCounters(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rdb, release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
