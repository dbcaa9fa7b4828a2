package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// budget is a fixed per-owner request allowance per window. Item mutations
// get a wide budget, checkout a narrow one.
type budget struct {
	name  string
	limit int
}

var (
	itemBudget     = budget{name: "items", limit: 100}
	checkoutBudget = budget{name: "checkout", limit: 10}
)

// rateLimiter keeps one counter per (budget, owner) in an expiring LRU.
// The entry TTL is the window, so stale counters vanish on their own
// instead of needing a sweeper goroutine.
type rateLimiter struct {
	mu     sync.Mutex
	counts *expirable.LRU[string, *counter]
}

type counter struct{ n int }

func newRateLimiter(window time.Duration) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		counts: expirable.NewLRU[string, *counter](4096, nil, window),
	}
}

func (l *rateLimiter) allow(owner uuid.UUID, b budget) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := b.name + ":" + owner.String()
	c, ok := l.counts.Get(key)
	if !ok {
		c = &counter{}
		l.counts.Add(key, c)
	}
	if c.n >= b.limit {
		return false
	}
	c.n++
	return true
}
