package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

var claimNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func TestClaimAlert(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	claimed, err := client.ClaimAlert(ctx, 1, "Critical", "token-a", claimNow, time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = client.ClaimAlert(ctx, 1, "Critical", "token-b", claimNow, time.Hour)
	require.NoError(t, err)
	assert.False(t, claimed)

	// different product, independent claim
	claimed, err = client.ClaimAlert(ctx, 2, "Critical", "token-b", claimNow, time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestClaimAlertFollowsCallerClock(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	window := 7 * 24 * time.Hour

	claimed, err := client.ClaimAlert(ctx, 1, "Critical", "token-a", claimNow, window)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = client.ClaimAlert(ctx, 1, "Critical", "token-b", claimNow.Add(window-time.Millisecond), window)
	require.NoError(t, err)
	assert.False(t, claimed, "claim is live until its expiry")

	claimed, err = client.ClaimAlert(ctx, 1, "Critical", "token-c", claimNow.Add(window), window)
	require.NoError(t, err)
	assert.True(t, claimed, "claim expires exactly window after it was taken")

	claimed, err = client.ClaimAlert(ctx, 1, "Critical", "token-d", claimNow.Add(window+24*time.Hour), window)
	require.NoError(t, err)
	assert.False(t, claimed, "token-c now holds the claim")
}

func TestClaimAlertKeyEvicted(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	claimed, err := client.ClaimAlert(ctx, 1, "Critical", "token-a", claimNow, 7*24*time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	ttl, err := client.ClaimTTL(ctx, 1, "Critical")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, ttl)

	mr.FastForward(7*24*time.Hour + time.Second)
	assert.False(t, mr.Exists("alert:Critical:1"))

	claimed, err = client.ClaimAlert(ctx, 1, "Critical", "token-b", claimNow, time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestReleaseAlertRequiresOwner(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	_, err := client.ClaimAlert(ctx, 1, "Critical", "token-a", claimNow, time.Hour)
	require.NoError(t, err)

	require.NoError(t, client.ReleaseAlert(ctx, 1, "Critical", "token-b"))
	assert.True(t, mr.Exists("alert:Critical:1"))

	require.NoError(t, client.ReleaseAlert(ctx, 1, "Critical", "token-a"))
	assert.False(t, mr.Exists("alert:Critical:1"))

	ttl, err := client.ClaimTTL(ctx, 1, "Critical")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}
