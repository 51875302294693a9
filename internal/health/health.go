package health

import (
	"context"
	"sync"
	"time"
)

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// ProbeRunner runs registered checkers with a per-probe timeout and caches
// the combined result briefly so the readiness endpoint cannot be used to
// hammer the dependencies.
type ProbeRunner struct {
	timeout  time.Duration
	cacheTTL time.Duration

	mu         sync.Mutex
	checkers   []Checker
	lastRun    time.Time
	lastReady  bool
	lastResult []CheckResult
}

func NewProbeRunner(timeout, cacheTTL time.Duration) *ProbeRunner {
	return &ProbeRunner{timeout: timeout, cacheTTL: cacheTTL}
}

func (p *ProbeRunner) Register(c Checker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkers = append(p.checkers, c)
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastResult != nil && time.Since(p.lastRun) < p.cacheTTL {
		return p.lastReady, p.lastResult
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ready := true
	results := make([]CheckResult, 0, len(p.checkers))
	for _, c := range p.checkers {
		res := c.Check(ctx)
		if !res.Healthy {
			ready = false
		}
		results = append(results, res)
	}

	p.lastRun = time.Now()
	p.lastReady = ready
	p.lastResult = results
	return ready, results
}
