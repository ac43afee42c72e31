package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"agentrouter/domain"
	"agentrouter/helpers"
	"agentrouter/interfaces"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// clientIDHeader is the request header clients use to present a previously
// minted clientID. Case-insensitive per spec §4.4 (net/http canonicalizes
// header lookups already).
const clientIDHeader = "X-Client-Id"

// RoutingState implements the data-model operations of spec §4.4 against a
// Store: deriving/minting a clientID, assigning or looking up a backend,
// picking the least-loaded backend under the soft cap, and recording or
// clearing a client's membership in a backend's active set.
type RoutingState struct {
	store    interfaces.Store
	backends []domain.Backend
	maxPerBackend int
	ttl      time.Duration
	clock    interfaces.TimeProvider

	admissions      *prometheus.CounterVec
	activeSessions  *prometheus.GaugeVec
}

// NewRoutingState creates a RoutingState. Panics on nil store/clock or an
// empty backend list.
func NewRoutingState(store interfaces.Store, backends []domain.Backend, maxPerBackend int, ttl time.Duration, clock interfaces.TimeProvider, reg prometheus.Registerer) *RoutingState {
	helpers.NilPanic(store, "service.routing.go: store is required")
	helpers.NilPanic(clock, "service.routing.go: clock is required")
	if len(backends) == 0 {
		panic("service.routing.go: at least one backend is required")
	}

	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_admissions_total",
		Help: "Backend admission decisions by result.",
	}, []string{"result"})
	activeSessions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "router_active_sessions",
		Help: "Approximate live session count per backend (best-effort, not authoritative).",
	}, []string{"backend"})
	if reg != nil {
		reg.MustRegister(admissions, activeSessions)
	}

	return &RoutingState{
		store:          store,
		backends:       backends,
		maxPerBackend:  maxPerBackend,
		ttl:            ttl,
		clock:          clock,
		admissions:     admissions,
		activeSessions: activeSessions,
	}
}

// DeriveClientID returns the X-Client-Id request header if present and
// non-empty; otherwise mints a fresh UUID.
func (rs *RoutingState) DeriveClientID(r *http.Request) string {
	if id := r.Header.Get(clientIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

// GetOrAssignBackend returns the backend already mapped to clientID
// (sticky routing), or picks and returns the least-loaded backend if no
// mapping exists yet. Any store error other than "not found" is surfaced.
func (rs *RoutingState) GetOrAssignBackend(ctx context.Context, clientID string) (string, error) {
	addr, err := rs.store.Get(ctx, domain.ClientKey(clientID))
	if err == nil {
		return addr, nil
	}
	if err != interfaces.ErrNotFound {
		return "", fmt.Errorf("get client backend: %w", err)
	}
	return rs.SelectLeastLoaded(ctx)
}

// GetClientBackend returns the backend mapped to clientID. Absence of a
// mapping is an error (used only on stop, per spec §4.4).
func (rs *RoutingState) GetClientBackend(ctx context.Context, clientID string) (string, error) {
	addr, err := rs.store.Get(ctx, domain.ClientKey(clientID))
	if err != nil {
		return "", fmt.Errorf("get client backend: %w", err)
	}
	return addr, nil
}

// SelectLeastLoaded returns the backend with the strictly smallest live
// count that is also strictly less than maxPerBackend, breaking ties by
// iteration order over the configured backend list. The live count for a
// backend is the number of its active-set members whose score lies in
// [now-ttl, now]. Fails with a "no available backend" error if every
// backend is at or above the cap.
func (rs *RoutingState) SelectLeastLoaded(ctx context.Context) (string, error) {
	now := rs.clock.Now()
	minScore := float64(now.Add(-rs.ttl).UnixMilli())
	maxScore := float64(now.UnixMilli())

	best := ""
	bestCount := int64(rs.maxPerBackend)
	for _, b := range rs.backends {
		count, err := rs.store.ZCount(ctx, domain.BackendKey(b.Addr), minScore, maxScore)
		if err != nil {
			return "", fmt.Errorf("count active sessions for backend %s: %w", b.Addr, err)
		}
		if count < bestCount {
			bestCount = count
			best = b.Addr
		}
	}
	if best == "" {
		rs.admissions.WithLabelValues("saturated").Inc()
		return "", fmt.Errorf("no available backend")
	}
	rs.admissions.WithLabelValues("assigned").Inc()
	return best, nil
}

// RecordActiveRequest atomically sets the forward mapping client:{clientID}
// -> backend (expiring after the configured TTL) and adds clientID to the
// backend's active set, scored by the current time in milliseconds.
func (rs *RoutingState) RecordActiveRequest(ctx context.Context, backend, clientID string) error {
	score := float64(rs.clock.Now().UnixMilli())
	err := rs.store.RecordActive(ctx, domain.ClientKey(clientID), backend, rs.ttl, domain.BackendKey(backend), clientID, score)
	if err != nil {
		return fmt.Errorf("record active request: %w", err)
	}
	rs.activeSessions.WithLabelValues(backend).Inc()
	return nil
}

// ClearActiveRequest removes clientID from the backend's active set. The
// forward mapping is left to expire via its TTL, per spec §4.4.
func (rs *RoutingState) ClearActiveRequest(ctx context.Context, backend, clientID string) error {
	if err := rs.store.ZRem(ctx, domain.BackendKey(backend), clientID); err != nil {
		return fmt.Errorf("clear active request: %w", err)
	}
	rs.activeSessions.WithLabelValues(backend).Dec()
	return nil
}
