package service

import (
	"sync"
	"time"
)

// refresher coalesces bursts of recompute triggers into a single refresh.
// The upstream data source fires separate notifications for directory,
// entitlement, and transaction changes; rebuilding the snapshot once per
// burst is enough.
type refresher struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	refresh func()
}

func newRefresher(delay time.Duration, refresh func()) *refresher {
	if delay <= 0 {
		delay = 250 * time.Millisecond
	}
	return &refresher{delay: delay, refresh: refresh}
}

// Trigger schedules a refresh after the debounce delay, restarting the clock
// if one is already pending.
func (r *refresher) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, r.refresh)
}
