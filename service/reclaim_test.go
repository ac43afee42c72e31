package service

import (
	"context"
	"testing"
	"time"

	"agentrouter/domain"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
)

func TestReclaimer_SweepStaleMappings_RemovesOnlyOldEntries(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := time.Hour
	backends := []domain.Backend{{Addr: "10.0.0.1"}}

	store.seed(domain.BackendKey("10.0.0.1"), "stale", float64(now.Add(-2*ttl).UnixMilli()))
	store.seed(domain.BackendKey("10.0.0.1"), "fresh", float64(now.UnixMilli()))

	r := NewReclaimer(store, backends, ttl, fixedClock(now), log.NewNopLogger(), nil)
	r.sweepStaleMappings(context.Background())

	count, err := store.ZCount(context.Background(), domain.BackendKey("10.0.0.1"), float64(now.Add(-ttl).UnixMilli()), float64(now.UnixMilli()))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.Len(t, store.sortedSets[domain.BackendKey("10.0.0.1")], 1)
	_, ok := store.sortedSets[domain.BackendKey("10.0.0.1")]["fresh"]
	assert.True(t, ok)
}

func TestReclaimer_SweepLogoutTokens_RemovesElapsedEntries(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.seed(domain.LogoutTokensKey, "elapsed", float64(now.Add(-time.Minute).Unix()))
	store.seed(domain.LogoutTokensKey, "future", float64(now.Add(time.Hour).Unix()))

	r := NewReclaimer(store, []domain.Backend{{Addr: "10.0.0.1"}}, time.Hour, fixedClock(now), log.NewNopLogger(), nil)
	r.sweepLogoutTokens(context.Background())

	assert.Len(t, store.sortedSets[domain.LogoutTokensKey], 1)
	_, ok := store.sortedSets[domain.LogoutTokensKey]["future"]
	assert.True(t, ok)
}

func TestReclaimer_Start_StopsOnContextCancel(t *testing.T) {
	store := newFakeStore()
	r := NewReclaimer(store, []domain.Backend{{Addr: "10.0.0.1"}}, time.Hour, fixedClock(time.Now()), log.NewNopLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()
	// No assertion beyond "does not hang or panic"; the loops select on
	// ctx.Done() and return promptly.
	time.Sleep(10 * time.Millisecond)
}
