package analytics

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const authGuardSize = 4096

// authGuard throttles failed token checks per client IP with a token
// bucket: burst failures are allowed, then one more every per/burst.
// Limiters live in an LRU so a flood of distinct IPs cannot grow it.
type authGuard struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newAuthGuard(burst int, per time.Duration) *authGuard {
	c, err := lru.New[string, *rate.Limiter](authGuardSize)
	if err != nil {
		panic(err)
	}
	return &authGuard{
		limiters: c,
		limit:    rate.Every(per / time.Duration(burst)),
		burst:    burst,
	}
}

func (g *authGuard) limiter(ip string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(g.limit, g.burst)
	g.limiters.Add(ip, l)
	return l
}

// blocked reports whether ip has used up its failed attempts.
func (g *authGuard) blocked(ip string) bool {
	return g.limiter(ip).Tokens() < 1
}

// fail spends one attempt for ip.
func (g *authGuard) fail(ip string) {
	g.limiter(ip).Allow()
}
