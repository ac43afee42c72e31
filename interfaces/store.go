package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when the key does not exist. Adapters
// translate their driver's "missing key" sentinel (e.g. redis.Nil) to this
// error so callers never depend on a specific driver.
var ErrNotFound = errors.New("key not found")

// Store is the small capability interface the router uses against the
// external coordination store (a Redis-compatible key/value + sorted-set
// service). It exposes exactly the primitives the routing state manager
// needs: set-with-expiry, get, a pipelined set-with-expiry + sorted-set-add
// used to atomically record a new mapping, sorted-set removal by member,
// sorted-set counting within a score range, sorted-set removal within a
// score range (used by both reclaimers), and a startup ping.
//
// Implemented by adapters/redisstore. Called from service.RoutingState and
// service.Reclaimer.
//
//go:generate moq -stub -out mock/store.go -pkg mock . Store
type Store interface {
	// SetEX writes value at key with the given expiry.
	// Returns: nil on success; error on a store failure.
	// Not called by the router itself: RecordActive issues its own SET inside
	// its pipeline. Exposed standalone for completeness.
	SetEX(ctx context.Context, key string, value string, ttl time.Duration) error

	// Get reads the value at key.
	// Returns: (value, nil) when present; ("", ErrNotFound) when the key is
	// missing; ("", error) on any other store failure.
	// Called from service.RoutingState.GetOrAssignBackend and GetClientBackend.
	Get(ctx context.Context, key string) (string, error)

	// RecordActive atomically (pipelined) sets clientKey = backendAddr with
	// the given ttl and adds member to the sorted set at backendKey with
	// the given score. Both operations are issued in a single pipeline;
	// a failure of either is reported but the other's effect is not rolled
	// back (see spec §4.4 failure semantics — the reclaimer normalizes
	// partial state over time).
	// Returns: nil when both pipelined commands succeed; error otherwise
	// (wrapping whichever command failed).
	// Called from service.RoutingState.RecordActiveRequest.
	RecordActive(ctx context.Context, clientKey, backendAddr string, ttl time.Duration, backendKey, member string, score float64) error

	// ZRem removes member from the sorted set at key.
	// Returns: nil on success (including when member was already absent —
	// the underlying ZREM simply reports zero removed); error on failure.
	// Called from service.RoutingState.ClearActiveRequest.
	ZRem(ctx context.Context, key string, member string) error

	// ZCount counts members of the sorted set at key whose score lies in
	// [min, max] inclusive.
	// Returns: (count, nil) on success; (0, error) on failure.
	// Called from service.RoutingState.SelectLeastLoaded for each backend.
	ZCount(ctx context.Context, key string, min, max float64) (int64, error)

	// ZRemRangeByScore removes members of the sorted set at key whose score
	// lies in [min, max] inclusive, returning the number removed.
	// Returns: (removed, nil) on success; (0, error) on failure.
	// Called from service.Reclaimer's stale-mapping and logout-token sweeps.
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) (int64, error)

	// Ping verifies connectivity to the store.
	// Returns: nil when reachable; error otherwise.
	// Not called by the router itself: cmd/main pings the underlying redis
	// client once at startup, before wrapping it, and aborts on failure.
	Ping(ctx context.Context) error
}
