package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleTTL is how long an untouched client bucket is kept. A bucket refills
// completely within a minute, so dropping it after that changes nothing.
const idleTTL = time.Minute

type clientBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter gives every client a token bucket of perMinute requests that refills over one minute.
type Limiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perMinute int
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter allows perMinute requests per client; zero or less disables limiting.
func NewLimiter(perMinute int) *Limiter {
	return &Limiter{
		clients:   make(map[string]*clientBucket),
		perMinute: perMinute,
		now:       time.Now,
	}
}

// Allow takes one token for key. When none is left it reports how long until one is.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if l.perMinute <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.clients[key]
	if !ok {
		every := time.Minute / time.Duration(l.perMinute)
		b = &clientBucket{lim: rate.NewLimiter(rate.Every(every), l.perMinute)}
		l.clients[key] = b
	}
	b.lastSeen = now

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if d := r.DelayFrom(now); d > 0 {
		// rejected requests do not consume the token they waited for
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// sweep drops buckets idle for idleTTL, at most once per idleTTL. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleTTL {
		return
	}
	l.lastSweep = now
	for k, b := range l.clients {
		if now.Sub(b.lastSeen) >= idleTTL {
			delete(l.clients, k)
		}
	}
}

// Middleware rejects clients over the limit with 429, keyed by client IP.
// The client IP only honours forwarding headers from the engine's trusted proxies.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.Allow(c.ClientIP())
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			util.Error(c, http.StatusTooManyRequests, util.CodeTooManyRequests, "too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
