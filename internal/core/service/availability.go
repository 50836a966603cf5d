package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

const (
	defaultCacheWindow  = 10 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// Clock supplies the current time; injectable so tests can drive cache expiry
// deterministically.
type Clock func() time.Time

// Monitor is the process-wide availability gate in front of the backend. It
// caches probe results for a fixed window so a dead dependency is not hammered
// on every request, and flips the URL scheme as a fallback for misconfigured
// or edge-rewritten base URLs.
//
// State starts as "up" so the very first request is never falsely degraded.
type Monitor struct {
	prober       ports.HealthProber
	targets      []string
	cacheWindow  time.Duration
	probeTimeout time.Duration
	now          Clock
	log          zerolog.Logger

	mu        sync.Mutex
	serverUp  bool
	lastCheck time.Time
	probing   bool
}

// MonitorOption customises a Monitor.
type MonitorOption func(*Monitor)

// WithClock substitutes the time source.
func WithClock(now Clock) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// WithCacheWindow overrides how long a probe result is trusted.
func WithCacheWindow(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.cacheWindow = d }
}

// WithProbeTimeout bounds a single health probe.
func WithProbeTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.probeTimeout = d }
}

// NewMonitor creates a Monitor probing backendURL (and its scheme-flipped
// twin) through prober.
func NewMonitor(backendURL string, prober ports.HealthProber, log zerolog.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		prober:       prober,
		targets:      fallbackTargets(backendURL),
		cacheWindow:  defaultCacheWindow,
		probeTimeout: defaultProbeTimeout,
		now:          time.Now,
		log:          log,
		serverUp:     true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check reports whether the backend is currently degraded. Within the cache
// window it answers from the recorded state without any network call; past
// the window it probes each candidate target once, stopping at the first
// success. While a probe is already in flight, concurrent callers get the
// last known state immediately — Check never blocks the request that
// triggered it, and never returns an error.
func (m *Monitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	if m.now().Sub(m.lastCheck) < m.cacheWindow || m.probing {
		degraded := !m.serverUp
		m.mu.Unlock()
		return degraded
	}
	m.probing = true
	m.mu.Unlock()

	up := m.probeAll(ctx)

	m.mu.Lock()
	m.serverUp = up
	// A failed probe refreshes the timestamp too; otherwise failures would
	// re-probe on every request and defeat the cache.
	m.lastCheck = m.now()
	m.probing = false
	m.mu.Unlock()

	return !up
}

func (m *Monitor) probeAll(ctx context.Context) bool {
	for _, target := range m.targets {
		probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
		err := m.prober.Probe(probeCtx, target)
		cancel()

		if err == nil {
			return true
		}
		m.log.Error().Err(err).Str("target", target).Msg("backend health check failed")
	}
	return false
}

// fallbackTargets returns the configured base URL followed by its
// scheme-flipped twin, deduplicated, preserving order.
func fallbackTargets(backendURL string) []string {
	primary := strings.TrimRight(backendURL, "/")
	targets := []string{primary}

	switch {
	case strings.HasPrefix(primary, "https://"):
		targets = append(targets, "http://"+strings.TrimPrefix(primary, "https://"))
	case strings.HasPrefix(primary, "http://"):
		targets = append(targets, "https://"+strings.TrimPrefix(primary, "http://"))
	}

	if len(targets) == 2 && targets[0] == targets[1] {
		return targets[:1]
	}
	return targets
}
