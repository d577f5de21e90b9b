package lifecycle

import (
	"sync"
	"time"
)

// countdown tracks the wall-clock expiry of a pending transaction
//
// It is an independent termination path from polling: even if every poll
// is delayed or the gateway never reports a terminal status, the
// countdown ends the waiting phase when ExpiresAt passes. The remaining
// time is always recomputed from the wall clock, so a countdown resumed
// from a persisted record is exact.
type countdown struct {
	expiresAt time.Time
	onExpire  func()

	stop     chan struct{}
	stopOnce sync.Once
}

func newCountdown(expiresAt time.Time, onExpire func()) *countdown {
	return &countdown{
		expiresAt: expiresAt,
		onExpire:  onExpire,
		stop:      make(chan struct{}),
	}
}

func (c *countdown) start() {
	go c.run()
}

func (c *countdown) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if c.Remaining() == 0 {
			c.onExpire()
			return
		}
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
	}
}

// Remaining returns the time left until expiry, floored at zero
func (c *countdown) Remaining() time.Duration {
	rem := time.Until(c.expiresAt)
	if rem < 0 {
		return 0
	}
	return rem
}

// Stop cancels the countdown
func (c *countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
