package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnreadTotalRoundTrip(t *testing.T) {
	req := require.New(t)
	c := New()
	ctx := context.Background()

	_, ok, err := c.GetUnreadTotal(ctx, "t1")
	req.NoError(err)
	req.False(ok)

	req.NoError(c.SetUnreadTotal(ctx, "t1", 5))
	total, ok, err := c.GetUnreadTotal(ctx, "t1")
	req.NoError(err)
	req.True(ok)
	req.Equal(5, total)

	req.NoError(c.InvalidateUnreadTotal(ctx, "t1"))
	_, ok, err = c.GetUnreadTotal(ctx, "t1")
	req.NoError(err)
	req.False(ok)
}

func TestSubscriptions(t *testing.T) {
	req := require.New(t)
	c := New()
	ctx := context.Background()

	req.NoError(c.AddSubscription(ctx, "t1", "https://push/a", `{"endpoint":"a"}`))
	req.NoError(c.AddSubscription(ctx, "t1", "https://push/b", `{"endpoint":"b"}`))
	subs, err := c.ListSubscriptions(ctx, "t1")
	req.NoError(err)
	req.Len(subs, 2)

	// re-adding the same endpoint replaces, not duplicates
	req.NoError(c.AddSubscription(ctx, "t1", "https://push/a", `{"endpoint":"a2"}`))
	subs, err = c.ListSubscriptions(ctx, "t1")
	req.NoError(err)
	req.Len(subs, 2)

	req.NoError(c.RemoveSubscription(ctx, "t1", "https://push/a"))
	subs, err = c.ListSubscriptions(ctx, "t1")
	req.NoError(err)
	req.Len(subs, 1)
	req.Equal(`{"endpoint":"b"}`, subs[0])
}

func TestSubscriptionCap(t *testing.T) {
	req := require.New(t)
	c := New()
	ctx := context.Background()

	for i := 0; i < maxSubsPerTech+5; i++ {
		req.NoError(c.AddSubscription(ctx, "t1", fmt.Sprintf("https://push/%d", i), "{}"))
	}
	subs, err := c.ListSubscriptions(ctx, "t1")
	req.NoError(err)
	req.Len(subs, maxSubsPerTech)
}
