package middleware

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	reset time.Time
}

// MemoryLimiter keeps fixed-window counters in process. Expired windows
// restart on the next hit and are swept every sweepEvery hits.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	hits    int
	now     func() time.Time
}

const sweepEvery = 1024

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

func (l *MemoryLimiter) Hit(_ context.Context, key string, span time.Duration) (int, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.hits++
	if l.hits%sweepEvery == 0 {
		for k, w := range l.windows {
			if !now.Before(w.reset) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(span)}
		l.windows[key] = w
	}
	w.count++
	return w.count, w.reset.Sub(now), nil
}
