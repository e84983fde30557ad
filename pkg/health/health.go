// Package health exposes liveness and readiness probes for the API server.
//
// Probes run on a shared background ticker. A probe flips to unhealthy only
// after failing failureThreshold times in a row and recovers after a single
// success, so one slow database ping does not take the service out of
// rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// probe couples a check with its flap-damping state. The counters are owned
// by the single ticker goroutine; healthy and lastErr are shared with the
// HTTP handlers through atomics.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	fails int
	oks   int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

func (p *probe) tick(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.check(probeCtx); err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.oks = 0
		if p.fails++; p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}

	p.lastErr.Store(nil)
	p.fails = 0
	if p.oks++; p.oks >= successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Service runs registered probes and serves their state. The zero value is
// not usable; construct with New. It starts not ready: call SetReady(true)
// after initialization and SetReady(false) to drain during shutdown.
type Service struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates an empty probe service.
func New() *Service {
	return &Service{}
}

// AddLiveness registers a liveness probe, answering "is this process worth
// keeping alive". Goroutine or GC pressure checks belong here.
func (s *Service) AddLiveness(name string, timeout time.Duration, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newProbe(name, timeout, check))
}

// AddReadiness registers a readiness probe, answering "can this process serve
// traffic right now". Database connectivity belongs here.
func (s *Service) AddReadiness(name string, timeout time.Duration, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newProbe(name, timeout, check))
}

// Start launches one goroutine per registered probe, each running its check
// every interval until ctx is cancelled or Stop is called. Register all
// probes before calling Start.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := make([]*probe, 0, len(s.liveness)+len(s.readiness))
	probes = append(probes, s.liveness...)
	probes = append(probes, s.readiness...)
	s.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			// First tick immediately so /readyz is meaningful at boot.
			p.tick(ctx)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.tick(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// passes.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	return len(s.snapshot(&s.readiness)) == 0
}

func (s *Service) snapshot(probes *[]*probe) map[string]string {
	s.mu.RLock()
	snap := make([]*probe, len(*probes))
	copy(snap, *probes)
	s.mu.RUnlock()

	failures := map[string]string{}
	for _, p := range snap {
		if msg, failed := p.failure(); failed {
			failures[p.name] = msg
		}
	}
	return failures
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes, 503
// with the failing checks otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbeStatus(w, s.snapshot(&s.liveness))
}

// ReadyEndpoint serves /readyz: 200 while the manual gate is open and every
// readiness probe passes, 503 with details otherwise.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := s.snapshot(&s.readiness)
	if !s.ready.Load() {
		failures["_gate"] = "service is not ready"
	}
	writeProbeStatus(w, failures)
}

func writeProbeStatus(w http.ResponseWriter, failures map[string]string) {
	resp := probeResponse{Status: "ok"}
	status := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
