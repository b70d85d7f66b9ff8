package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateLimitsConcurrency(t *testing.T) {
	g := NewGate(2, 1000)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Do(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt64(&inFlight, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				return nil
			})
			if err != nil {
				t.Errorf("Do returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if p := atomic.LoadInt64(&peak); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestGateSlidingWindow(t *testing.T) {
	g := NewGate(10, 3)

	clock := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var slept time.Duration
	g.now = func() time.Time { return clock }
	g.sleep = func(ctx context.Context, d time.Duration) error {
		slept += d
		clock = clock.Add(d)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if slept != 0 {
		t.Fatalf("first %d requests slept %v, want 0", 3, slept)
	}
	if got := g.WindowCount(); got != 3 {
		t.Fatalf("WindowCount = %d, want 3", got)
	}

	// Fourth request must wait until the oldest start ages out.
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if slept != time.Minute {
		t.Errorf("slept %v, want %v", slept, time.Minute)
	}
}

func TestGateWindowPrunesOldStarts(t *testing.T) {
	g := NewGate(10, 2)

	clock := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	if err := g.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := g.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(61 * time.Second)
	if got := g.WindowCount(); got != 0 {
		t.Errorf("WindowCount after window elapsed = %d, want 0", got)
	}
	if err := g.Wait(context.Background()); err != nil {
		t.Errorf("Wait after window elapsed: %v", err)
	}
}

func TestGateRespectsContextCancel(t *testing.T) {
	g := NewGate(1, 100)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Do(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do with cancelled context = %v, want context.Canceled", err)
	}
	close(release)
}

func TestGateReleasesSlotOnError(t *testing.T) {
	g := NewGate(1, 100)

	wantErr := errors.New("fetch failed")
	if err := g.Do(context.Background(), func(ctx context.Context) error {
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("Do = %v, want %v", err, wantErr)
	}
	if n := g.InFlight(); n != 0 {
		t.Errorf("InFlight after error = %d, want 0", n)
	}
}
