package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Badge totals are a cache over the Postgres ledger: short TTL, invalidated
// on every increment/reset. Subscriptions expire with the browser's own
// subscription lifetime.
const (
	unreadTotalTTL  = 30 * time.Second
	subscriptionTTL = 30 * 24 * time.Hour
	maxSubsPerTech  = 10
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func unreadKey(technicianID string) string { return "unread_total:" + technicianID }
func subsKey(technicianID string) string   { return "push:subs:" + technicianID }

func (c *Client) GetUnreadTotal(ctx context.Context, technicianID string) (int, bool, error) {
	val, err := c.cli.Get(ctx, unreadKey(technicianID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (c *Client) SetUnreadTotal(ctx context.Context, technicianID string, total int) error {
	return c.cli.Set(ctx, unreadKey(technicianID), total, unreadTotalTTL).Err()
}

func (c *Client) InvalidateUnreadTotal(ctx context.Context, technicianID string) error {
	return c.cli.Del(ctx, unreadKey(technicianID)).Err()
}

// AddSubscription stores a Web Push subscription keyed by its endpoint.
// Oldest entries are evicted once maxSubsPerTech is exceeded.
func (c *Client) AddSubscription(ctx context.Context, technicianID, endpoint, payload string) error {
	key := subsKey(technicianID)
	if err := c.cli.HSet(ctx, key, endpoint, payload).Err(); err != nil {
		return err
	}
	if n, err := c.cli.HLen(ctx, key).Result(); err == nil && n > maxSubsPerTech {
		fields, err := c.cli.HKeys(ctx, key).Result()
		if err == nil && len(fields) > maxSubsPerTech {
			c.cli.HDel(ctx, key, fields[:len(fields)-maxSubsPerTech]...)
		}
	}
	return c.cli.Expire(ctx, key, subscriptionTTL).Err()
}

func (c *Client) RemoveSubscription(ctx context.Context, technicianID, endpoint string) error {
	return c.cli.HDel(ctx, subsKey(technicianID), endpoint).Err()
}

func (c *Client) ListSubscriptions(ctx context.Context, technicianID string) ([]string, error) {
	vals, err := c.cli.HVals(ctx, subsKey(technicianID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	return vals, err
}
