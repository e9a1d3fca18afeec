// Package security screens inbound updates before they reach subscribers.
package security

import (
	"sync"
	"time"

	"github.com/hybridz/tgstream/internal/config"
)

// Verdict represents the outcome of a guard check.
type Verdict int

const (
	Allow Verdict = iota
	Deny
	RateLimited
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case RateLimited:
		return "rate_limited"
	}
	return "unknown"
}

// bucket tracks rate limit state for a single sender.
type bucket struct {
	tokens    int
	windowEnd time.Time
}

// Guard enforces a sender allowlist and per-sender rate limiting, keyed by
// Telegram user ID.
type Guard struct {
	mode       string
	allowed    map[int64]bool
	rateLimit  int
	rateWindow time.Duration
	now        func() time.Time
	mu         sync.Mutex
	buckets    map[int64]*bucket
}

// New creates a Guard from the security config.
func New(cfg config.SecurityConfig) *Guard {
	allowed := make(map[int64]bool, len(cfg.AllowedUsers))
	for _, id := range cfg.AllowedUsers {
		allowed[id] = true
	}

	return &Guard{
		mode:       cfg.Mode,
		allowed:    allowed,
		rateLimit:  cfg.RateLimit,
		rateWindow: time.Duration(cfg.RateWindow) * time.Second,
		now:        time.Now,
		buckets:    make(map[int64]*bucket),
	}
}

// Check returns Allow, Deny, or RateLimited for the given sender.
// A zero sender ID (service updates, anonymous channel posts) is never
// rate limited; in allowlist mode it is denied.
func (g *Guard) Check(userID int64) Verdict {
	if g.mode == "allowlist" && !g.allowed[userID] {
		return Deny
	}
	if g.rateLimit <= 0 || userID == 0 {
		return Allow
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	b, ok := g.buckets[userID]
	if !ok || now.After(b.windowEnd) {
		g.buckets[userID] = &bucket{
			tokens:    g.rateLimit - 1,
			windowEnd: now.Add(g.rateWindow),
		}
		return Allow
	}

	if b.tokens <= 0 {
		return RateLimited
	}
	b.tokens--
	return Allow
}
