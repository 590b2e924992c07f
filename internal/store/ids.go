package store

import (
	"fmt"
	"sync"
	"time"
)

// idClock issues time-derived record ids ("task-1756713600000"). The ids are
// opaque to callers; the millisecond base only makes them readable in the
// persisted files.
//
// Two creates landing in the same millisecond (or a wall clock stepping
// backwards) would collide, so the clock never reissues a value at or below
// the last one - it bumps forward instead. Monotonic per process, which is
// all the single-process store needs.
//
// Thread-safety: guarded by a mutex, safe from any goroutine.
type idClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newIDClock(now func() time.Time) *idClock {
	return &idClock{now: now}
}

func (c *idClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

// TaskID returns a fresh task id.
func (c *idClock) TaskID() string {
	return fmt.Sprintf("task-%d", c.next())
}

// ProjectID returns a fresh project id.
func (c *idClock) ProjectID() string {
	return fmt.Sprintf("proj-%d", c.next())
}
