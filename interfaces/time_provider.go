package interfaces

import "time"

// TimeProvider supplies the current time for TTL/score calculations.
// Injected so tests can use a fixed clock instead of racing time.Now().
//
// Used by service.RoutingState when scoring a new active-set entry and
// when computing the live window [now-TTL, now] for selection, and by
// service.Reclaimer for its sweep cutoffs. Constructed in cmd/main as a
// func literal wrapping
// time.Now().UTC.
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns current time (UTC in prod; a fixed value in tests, for
	// deterministic TTL-window and reclamation assertions).
	// Parameters: none.
	// Returns: time.Time — "now" for score/TTL comparisons.
	// Called from service.RoutingState.SelectLeastLoaded, RecordActiveRequest,
	// and service.Reclaimer's sweep loops.
	Now() time.Time
}

// TimeProviderFunc adapts a plain func() time.Time to TimeProvider.
type TimeProviderFunc func() time.Time

// Now calls the wrapped function.
func (f TimeProviderFunc) Now() time.Time { return f() }
