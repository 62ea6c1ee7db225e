package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/claim_alert.lua
var claimAlertScript string

//go:embed scripts/release_alert.lua
var releaseAlertScript string

type Client struct {
	rdb           *redis.Client
	claimScript   *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		claimScript:   redis.NewScript(claimAlertScript),
		releaseScript: redis.NewScript(releaseAlertScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func alertKey(productID int64, alertType string) string {
	return fmt.Sprintf("alert:%s:%d", alertType, productID)
}

// ClaimAlert atomically takes the right to raise an alert for a product at
// now. An existing claim blocks it while the claim's expiry (its own now plus
// window) is after now, the same rule the alert store applies to created_at.
// The key itself is evicted window after it is written.
func (c *Client) ClaimAlert(ctx context.Context, productID int64, alertType, token string, now time.Time, window time.Duration) (bool, error) {
	result, err := c.claimScript.Run(ctx, c.rdb,
		[]string{alertKey(productID, alertType)},
		token, now.UnixMilli(), now.Add(window).UnixMilli(), window.Milliseconds()).Result()
	if err != nil {
		return false, fmt.Errorf("claim alert script failed: %w", err)
	}

	claimed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return claimed == 1, nil
}

// ReleaseAlert drops a claim, but only if token still owns it
func (c *Client) ReleaseAlert(ctx context.Context, productID int64, alertType, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{alertKey(productID, alertType)}, token).Result()
	if err != nil {
		return fmt.Errorf("release alert script failed: %w", err)
	}

	return nil
}

// ClaimTTL returns the remaining lifetime of a claim, or 0 if none exists
func (c *Client) ClaimTTL(ctx context.Context, productID int64, alertType string) (time.Duration, error) {
	ttl, err := c.rdb.PTTL(ctx, alertKey(productID, alertType)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
