package jobsearch

import (
	"sync"
	"time"
)

const DefaultThrottleWindow = 3 * time.Second

// Throttle suppresses repeated (session, input) calls inside a short window.
// One Throttle is shared by every request in the process.
type Throttle struct {
	window time.Duration
	now    func() time.Time
	mu     sync.Mutex
	last   map[string]time.Time
}

func NewThrottle(window time.Duration) *Throttle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	return &Throttle{window: window, now: time.Now, last: make(map[string]time.Time)}
}

// Seen reports whether the same call was recorded within the window. When
// it was not, the call is recorded now.
func (t *Throttle) Seen(sessionID, input string) bool {
	key := sessionID + ":" + input
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if at, ok := t.last[key]; ok && now.Sub(at) < t.window {
		return true
	}
	t.last[key] = now
	t.pruneLocked(now)
	return false
}

func (t *Throttle) pruneLocked(now time.Time) {
	for key, at := range t.last {
		if now.Sub(at) >= t.window {
			delete(t.last, key)
		}
	}
}
