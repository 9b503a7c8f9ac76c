package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const calendarPrefix = "cal:"

// CalendarCache caches month-availability payloads. The calendar is a coarse
// day-level signal that ignores individual bookings, so entries only need to
// be dropped when rules or blocked dates change.
type CalendarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCalendarCache(client *redis.Client, ttl time.Duration) *CalendarCache {
	return &CalendarCache{client: client, ttl: ttl}
}

func (c *CalendarCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, calendarPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *CalendarCache) Set(ctx context.Context, key string, data []byte) error {
	return c.client.Set(ctx, calendarPrefix+key, data, c.ttl).Err()
}

// Invalidate drops every cached month. Called when availability rules or
// blocked dates are mutated by an admin.
func (c *CalendarCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, calendarPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
	}
	return iter.Err()
}
