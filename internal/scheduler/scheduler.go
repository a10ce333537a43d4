// Package scheduler provides the fire-once delayed task capability the
// chat registry needs for deferred deliveries.
package scheduler

import (
	"sync"
	"time"
)

// Timers schedules fire-once callbacks on top of the runtime timer
// wheel. Tasks run on the timer goroutine; callers that need tick
// serialization marshal the work back themselves.
type Timers struct {
	mu      sync.Mutex
	seq     int
	pending map[int]*time.Timer
	stopped bool
}

func New() *Timers {
	return &Timers{pending: make(map[int]*time.Timer)}
}

// Schedule runs task once after delay. Scheduling on a stopped Timers
// is a no-op.
func (t *Timers) Schedule(delay time.Duration, task func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	id := t.seq
	t.seq++
	t.pending[id] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		task()
	})
}

// Stop cancels every outstanding task and refuses new ones.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}
