package arbitration

import (
	"sync/atomic"
)

// sessionLimiter caps the number of active (non-terminal) sessions.
// It is a lock-free counting semaphore: acquire increments and backs
// out when over the limit, release decrements on terminal transition.
// The counter is deliberately separate from the session-table lock so
// admission never contends with per-session work.
type sessionLimiter struct {
	limit   int64
	current int64
}

func newSessionLimiter(limit int) *sessionLimiter {
	return &sessionLimiter{limit: int64(limit)}
}

// acquire claims an admission slot. Returns false when the cap is
// reached; a successful acquire must be paired with exactly one
// release when the session terminates.
func (l *sessionLimiter) acquire() bool {
	current := atomic.AddInt64(&l.current, 1)
	if current > l.limit {
		atomic.AddInt64(&l.current, -1)
		return false
	}
	return true
}

func (l *sessionLimiter) release() {
	atomic.AddInt64(&l.current, -1)
}

func (l *sessionLimiter) active() int64 {
	return atomic.LoadInt64(&l.current)
}
