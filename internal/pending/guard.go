package pending

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultGuardSize = 10_000
	defaultGuardTTL  = time.Hour
)

// Guard remembers the last record replayed per session so a record that outlives its delete is
// not added twice. Entries are bounded and expire; a new deferral for the session clears its entry.
type Guard struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, string]
}

// NewGuard keeps at most size sessions for ttl each. Non-positive values fall back to defaults.
func NewGuard(size int, ttl time.Duration) *Guard {
	if size <= 0 {
		size = defaultGuardSize
	}
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &Guard{seen: expirable.NewLRU[string, string](size, nil, ttl)}
}

// claim records raw as the session's last processed record, reporting false if it already was.
func (g *Guard) claim(session, raw string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.seen.Get(session); ok && last == raw {
		return false
	}
	g.seen.Add(session, raw)
	return true
}

// Forget drops the session's entry; the next record it reconciles is always processed.
func (g *Guard) Forget(session string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen.Remove(session)
}

// Len reports how many sessions are currently remembered.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen.Len()
}
