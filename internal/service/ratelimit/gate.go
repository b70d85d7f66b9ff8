package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate bounds outbound vendor requests two ways at once: at most
// maxConcurrent requests in flight, and at most perMinute request
// starts inside any trailing 60-second window. Do blocks until both
// constraints admit the call.
type Gate struct {
	slots     chan struct{}
	perMinute int
	window    time.Duration

	mu     sync.Mutex
	starts []time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate creates a gate admitting maxConcurrent in-flight requests and
// perMinute request starts per trailing minute. Non-positive values
// fall back to 1.
func NewGate(maxConcurrent, perMinute int) *Gate {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Gate{
		slots:     make(chan struct{}, maxConcurrent),
		perMinute: perMinute,
		window:    time.Minute,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Do runs fn once both limits admit it. The concurrency slot is always
// released, whether fn returns, panics, or the context is cancelled
// mid-wait.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slots }()

	if err := g.waitWindow(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

// Wait blocks until both limits admit one request start, without
// running anything. Callers that need the slot held across a request
// should prefer Do.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slots }()
	return g.waitWindow(ctx)
}

// waitWindow blocks until the sliding window has room, then records
// the request start.
func (g *Gate) waitWindow(ctx context.Context) error {
	for {
		g.mu.Lock()
		now := g.now()
		g.prune(now)
		if len(g.starts) < g.perMinute {
			g.starts = append(g.starts, now)
			g.mu.Unlock()
			return nil
		}
		// Window full: the oldest start decides how long until a
		// slot opens.
		wait := g.window - now.Sub(g.starts[0])
		g.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (g *Gate) prune(now time.Time) {
	cutoff := now.Add(-g.window)
	i := 0
	for i < len(g.starts) && !g.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.starts = append(g.starts[:0], g.starts[i:]...)
	}
}

// InFlight returns the number of requests currently holding a slot.
func (g *Gate) InFlight() int {
	return len(g.slots)
}

// WindowCount returns how many request starts the trailing window holds.
func (g *Gate) WindowCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune(g.now())
	return len(g.starts)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
