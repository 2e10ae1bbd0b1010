package memory

import (
	"context"
	"sync"
	"time"
)

const (
	unreadTotalTTL = 30 * time.Second
	maxSubsPerTech = 10
)

type totalItem struct {
	val int
	exp time.Time
}

// Client is the in-process storage.Store used by -dev mode and tests.
type Client struct {
	mu     sync.RWMutex
	totals map[string]totalItem
	subs   map[string]map[string]string
}

func New() *Client {
	return &Client{
		totals: make(map[string]totalItem),
		subs:   make(map[string]map[string]string),
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) GetUnreadTotal(ctx context.Context, technicianID string) (int, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.totals[technicianID]
	if !ok || time.Now().After(v.exp) {
		return 0, false, nil
	}
	return v.val, true, nil
}

func (c *Client) SetUnreadTotal(ctx context.Context, technicianID string, total int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals[technicianID] = totalItem{val: total, exp: time.Now().Add(unreadTotalTTL)}
	return nil
}

func (c *Client) InvalidateUnreadTotal(ctx context.Context, technicianID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.totals, technicianID)
	return nil
}

func (c *Client) AddSubscription(ctx context.Context, technicianID, endpoint, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.subs[technicianID]
	if !ok {
		m = make(map[string]string)
		c.subs[technicianID] = m
	}
	if len(m) >= maxSubsPerTech {
		return nil
	}
	m[endpoint] = payload
	return nil
}

func (c *Client) RemoveSubscription(ctx context.Context, technicianID, endpoint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.subs[technicianID]; ok {
		delete(m, endpoint)
	}
	return nil
}

func (c *Client) ListSubscriptions(ctx context.Context, technicianID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.subs[technicianID]
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out, nil
}
