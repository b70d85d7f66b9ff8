package signal

import (
	"math"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// NotificationThrottle deduplicates per-instrument emissions within a
// calendar day: a signal goes out only when the instrument has no
// prior signal today, the type changed, or strength moved by more
// than the configured delta.
type NotificationThrottle struct {
	mu        sync.Mutex
	delta     float64
	last      map[string]emitted
	lastReset time.Time
}

type emitted struct {
	sigType  models.SignalType
	strength float64
}

func NewNotificationThrottle(strengthDelta float64) *NotificationThrottle {
	return &NotificationThrottle{
		delta: strengthDelta,
		last:  make(map[string]emitted),
	}
}

// Consider reports whether sig should be emitted and, when it should,
// records it. Rollover reset, the decision, and the memory overwrite
// happen under one lock so same-instrument decisions never interleave.
func (t *NotificationThrottle) Consider(sig *models.Signal, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !util.SameDay(t.lastReset, now) {
		t.last = make(map[string]emitted)
		t.lastReset = now
	}

	prev, ok := t.last[sig.Symbol]
	if ok && prev.sigType == sig.Type && math.Abs(prev.strength-sig.Strength) <= t.delta {
		return false
	}

	t.last[sig.Symbol] = emitted{sigType: sig.Type, strength: sig.Strength}
	return true
}
