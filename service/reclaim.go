package service

import (
	"context"
	"time"

	"agentrouter/domain"
	"agentrouter/helpers"
	"agentrouter/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

// Reclaimer runs the two background sweeps of spec §4.6: the stale-mapping
// cleaner over each backend's active set, and the expired-token cleaner
// over logout_tokens. Both are cancellable ticker loops, in the shape of
// the teacher's connectionPool.refreshLoop, so shutdown can stop them
// cleanly instead of leaking goroutines past process exit.
type Reclaimer struct {
	store    interfaces.Store
	backends []domain.Backend
	ttl      time.Duration
	clock    interfaces.TimeProvider
	logger   log.Logger

	sweeps  *prometheus.CounterVec
	removed *prometheus.CounterVec
}

// NewReclaimer creates a Reclaimer. Panics on nil store/clock/logger.
func NewReclaimer(store interfaces.Store, backends []domain.Backend, ttl time.Duration, clock interfaces.TimeProvider, logger log.Logger, reg prometheus.Registerer) *Reclaimer {
	helpers.NilPanic(store, "service.reclaim.go: store is required")
	helpers.NilPanic(clock, "service.reclaim.go: clock is required")
	logger = log.WithPrefix(helpers.NilPanic(logger, "service.reclaim.go: logger is required"), "component", "reclaimer")

	sweeps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_reclaim_sweeps_total",
		Help: "Reclamation sweeps run, by worker.",
	}, []string{"worker"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "router_reclaim_removed_total",
		Help: "Entries removed by a reclamation sweep, by worker.",
	}, []string{"worker"})
	if reg != nil {
		reg.MustRegister(sweeps, removed)
	}

	return &Reclaimer{
		store:    store,
		backends: backends,
		ttl:      ttl,
		clock:    clock,
		logger:   logger,
		sweeps:   sweeps,
		removed:  removed,
	}
}

// Start launches both sweep loops in their own goroutines. Both exit when
// ctx is cancelled.
func (r *Reclaimer) Start(ctx context.Context) {
	go r.staleMappingLoop(ctx, 5*time.Minute)
	go r.logoutTokenLoop(ctx, time.Hour)
}

// staleMappingLoop removes entries older than the TTL from every backend's
// active set, per spec §4.6.
func (r *Reclaimer) staleMappingLoop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepStaleMappings(ctx)
		}
	}
}

func (r *Reclaimer) sweepStaleMappings(ctx context.Context) {
	r.sweeps.WithLabelValues("stale_mappings").Inc()
	max := float64(r.clock.Now().Add(-r.ttl).UnixMilli())
	for _, b := range r.backends {
		removed, err := r.store.ZRemRangeByScore(ctx, domain.BackendKey(b.Addr), 0, max)
		if err != nil {
			level.Warn(r.logger).Log("msg", "stale mapping sweep failed", "backend", b.Addr, "err", err)
			continue
		}
		if removed > 0 {
			r.removed.WithLabelValues("stale_mappings").Add(float64(removed))
			level.Info(r.logger).Log("msg", "swept stale mappings", "backend", b.Addr, "removed", removed)
		}
	}
}

// logoutTokenLoop removes entries from logout_tokens whose score (in
// seconds) has already elapsed. Nothing in this router populates that set;
// the sweep is retained for schema compatibility (spec §9).
func (r *Reclaimer) logoutTokenLoop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepLogoutTokens(ctx)
		}
	}
}

func (r *Reclaimer) sweepLogoutTokens(ctx context.Context) {
	r.sweeps.WithLabelValues("logout_tokens").Inc()
	max := float64(r.clock.Now().Unix())
	removed, err := r.store.ZRemRangeByScore(ctx, domain.LogoutTokensKey, 0, max)
	if err != nil {
		level.Warn(r.logger).Log("msg", "logout token sweep failed", "err", err)
		return
	}
	if removed > 0 {
		r.removed.WithLabelValues("logout_tokens").Add(float64(removed))
		level.Info(r.logger).Log("msg", "swept logout tokens", "removed", removed)
	}
}
