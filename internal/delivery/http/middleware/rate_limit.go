package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"momo-storefront/pkg/logger"
	"momo-storefront/pkg/utils"

	"golang.org/x/time/rate"
)

// Limit is a token bucket: Rate per second refill, Burst capacity.
// A zero Rate disables the bucket.
type Limit struct {
	Rate  rate.Limit
	Burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles each client IP and each cart session separately.
// Many buyers can share one IP behind a carrier NAT, so the IP bucket is
// the loose outer bound and the session bucket the tight one.
type RateLimiter struct {
	perIP      Limit
	perSession Limit
	idle       time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRateLimiter starts a limiter whose idle buckets are swept every
// sweepEvery and dropped after idle without requests.
func NewRateLimiter(ctx context.Context, perIP, perSession Limit, sweepEvery, idle time.Duration) *RateLimiter {
	rl := &RateLimiter{
		perIP:      perIP,
		perSession: perSession,
		idle:       idle,
		buckets:    make(map[string]*bucket),
	}
	rl.ctx, rl.cancel = context.WithCancel(ctx)
	go rl.sweepLoop(sweepEvery)
	return rl
}

// Middleware must run inside the session middleware to see the session id.
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := rl.reserve(getClientIP(r), SessionID(r.Context())); !ok {
				logger.WithContext(r.Context()).Debug().Dur("retry_after", wait).Msg("RateLimit: request throttled")
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// reserve checks the session bucket before the IP bucket, so a throttled
// session does not spend tokens other buyers behind the same IP need.
// Granted tokens are not refunded.
func (rl *RateLimiter) reserve(ip, sessionID string) (time.Duration, bool) {
	for _, sc := range rl.scopes(ip, sessionID) {
		if sc.limit.Rate == 0 {
			continue
		}
		res := rl.limiter(sc.key, sc.limit).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			return delay, false
		}
	}
	return 0, true
}

type scope struct {
	key   string
	limit Limit
}

func (rl *RateLimiter) scopes(ip, sessionID string) []scope {
	var scopes []scope
	if sessionID != "" {
		scopes = append(scopes, scope{key: "session:" + sessionID, limit: rl.perSession})
	}
	return append(scopes, scope{key: "ip:" + ip, limit: rl.perIP})
}

func (rl *RateLimiter) limiter(key string, lim Limit) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(lim.Rate, lim.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

func (rl *RateLimiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if time.Since(b.lastSeen) > rl.idle {
			delete(rl.buckets, key)
		}
	}
}

// Shutdown stops the sweeper.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}
