package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/loresync/pkg/cmap"
)

// limiterIdleTimeout is how long a client's bucket survives without
// requests. A bucket idle that long is full again, so dropping it loses
// nothing.
const limiterIdleTimeout = 3 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// limiters holds one token bucket per client address. Buckets idle for
// longer than idle are swept at most once per idle period, so the table
// is bounded by the clients seen in the last two periods.
type limiters struct {
	perSecond int
	idle      time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
	buckets   *cmap.Map[string, *bucket]
}

func newLimiters(perSecond int) *limiters {
	l := &limiters{
		perSecond: perSecond,
		idle:      limiterIdleTimeout,
		now:       time.Now,
		buckets:   cmap.New[string, *bucket](),
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// get returns the bucket for client, creating it on first use. Burst
// equals the per-second rate.
func (l *limiters) get(client string) *rate.Limiter {
	now := l.now().UnixNano()
	l.sweep(now)

	b, ok := l.buckets.Get(client)
	if !ok {
		fresh := &bucket{lim: rate.NewLimiter(rate.Limit(l.perSecond), l.perSecond)}
		fresh.lastSeen.Store(now)
		if l.buckets.SetIfAbsent(client, fresh) {
			return fresh.lim
		}
		if b, ok = l.buckets.Get(client); !ok {
			return fresh.lim
		}
	}
	b.lastSeen.Store(now)
	return b.lim
}

// sweep drops buckets idle for longer than l.idle.
func (l *limiters) sweep(now int64) {
	last := l.lastSweep.Load()
	if now-last < int64(l.idle) || !l.lastSweep.CompareAndSwap(last, now) {
		return
	}

	var stale []string
	l.buckets.Range(func(client string, b *bucket) bool {
		if now-b.lastSeen.Load() > int64(l.idle) {
			stale = append(stale, client)
		}
		return true
	})
	for _, client := range stale {
		l.buckets.Delete(client)
	}
}

// RateLimit rejects requests beyond perSecond per client address with
// 429. A non-positive perSecond disables limiting.
func RateLimit(perSecond int) Middleware {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiters(perSecond)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.get(clientAddr(r)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.Header().Set("X-Error-Code", "LS-RATE-4290")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":       "LS-RATE-4290",
					"message":    "too many requests",
					"request_id": GetRequestIDFromContext(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
