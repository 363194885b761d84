package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/park285/guesswho/pkg/guessdto"
	"golang.org/x/time/rate"
)

// bucketIdleTTL is how long an identity's bucket survives without traffic.
const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// chatLimiter holds one token bucket per identity for chat turns.
type chatLimiter struct {
	mu        sync.Mutex
	perMin    int
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newChatLimiter(perMin int) *chatLimiter {
	if perMin <= 0 {
		return nil
	}
	return &chatLimiter{perMin: perMin, buckets: make(map[string]*bucket), now: time.Now}
}

func (l *chatLimiter) Allow(id string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= bucketIdleTTL {
		l.sweep(now)
	}
	b, ok := l.buckets[id]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.buckets[id] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

func (l *chatLimiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) >= bucketIdleTTL {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}

func (l *chatLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *chatLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(identity(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, guessdto.ErrorResponse{Error: "too many messages", Code: "rate_limited", Retryable: true})
			return
		}
		c.Next()
	}
}
