package points

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const DefaultCooldown = 10 * time.Second

type cooldownKey struct {
	userID snowflake.ID
	action string
}

type expiry struct {
	key cooldownKey
	at  time.Time
}

// expiryHeap is a min-heap ordered by expiry time. It may hold stale entries
// for keys that were recorded again; Sweep skips those.
type expiryHeap []expiry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)        { *h = append(*h, x.(expiry)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type CooldownOpt func(*CooldownTracker)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) CooldownOpt {
	return func(t *CooldownTracker) {
		t.now = now
	}
}

// CooldownTracker rate-limits repeated actions per (user, action) pair.
// State is process-local and lost on restart.
type CooldownTracker struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[cooldownKey]time.Time
	expiry  expiryHeap
}

func NewCooldownTracker(window time.Duration, opts ...CooldownOpt) *CooldownTracker {
	t := &CooldownTracker{
		window:  window,
		now:     time.Now,
		entries: make(map[cooldownKey]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *CooldownTracker) Window() time.Duration {
	return t.window
}

// Check reports whether the pair is still cooling down and for how long.
func (t *CooldownTracker) Check(userID snowflake.ID, action string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.check(cooldownKey{userID, action}, t.now())
}

func (t *CooldownTracker) Record(userID snowflake.ID, action string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(cooldownKey{userID, action}, t.now())
}

// Acquire is Check followed by Record under a single lock. It returns false and
// the remaining wait when the pair is blocked, in which case nothing is recorded.
func (t *CooldownTracker) Acquire(userID snowflake.ID, action string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := cooldownKey{userID, action}
	now := t.now()
	if blocked, remaining := t.check(key, now); blocked {
		return false, remaining
	}
	t.record(key, now)
	return true, 0
}

func (t *CooldownTracker) check(key cooldownKey, now time.Time) (bool, time.Duration) {
	last, ok := t.entries[key]
	if !ok {
		return false, 0
	}
	elapsed := now.Sub(last)
	if elapsed < t.window {
		return true, t.window - elapsed
	}
	return false, 0
}

func (t *CooldownTracker) record(key cooldownKey, now time.Time) {
	t.entries[key] = now
	heap.Push(&t.expiry, expiry{key: key, at: now.Add(t.window)})
}

// Sweep drops every entry whose window has passed and returns how many were removed.
func (t *CooldownTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for t.expiry.Len() > 0 && !t.expiry[0].at.After(now) {
		e := heap.Pop(&t.expiry).(expiry)
		last, ok := t.entries[e.key]
		if !ok || !last.Add(t.window).Equal(e.at) {
			// recorded again since this expiry was pushed
			continue
		}
		delete(t.entries, e.key)
		removed++
	}
	return removed
}

// Len is the number of tracked pairs, including ones not yet swept.
func (t *CooldownTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *CooldownTracker) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := t.Sweep(); n > 0 {
					slog.Debug("Swept expired cooldowns",
						slog.String("type", "sys"),
						slog.Int("removed", n),
						slog.Int("remaining", t.Len()))
				}
			}
		}
	}()
}
