package middleware

import (
	"hash/fnv"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kushch-a/car-service-crm/internal/model"
)

const rateLimitShards = 64

// RateLimiter counts requests per client in fixed, non-overlapping windows.
// Keys are spread over independently locked shards so that one busy client
// never blocks another.
type RateLimiter struct {
	shards     [rateLimitShards]rateShard
	limit      int
	window     time.Duration
	idleTTL    time.Duration
	trustProxy bool
	now        func() time.Time
	stopOnce   sync.Once
	stopChan   chan struct{}
}

type rateShard struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
}

// clientWindow only counts requests in [windowStart, windowStart+window)
type clientWindow struct {
	count       int
	windowStart time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Requests int           // Requests per window (default 30)
	Window   time.Duration // Window length (default 2s)
	IdleTTL  time.Duration // Evict windows idle this long (default 1m, never below Window)
	Cleanup  time.Duration // Eviction interval (default 1m)

	// TrustProxyHeaders keys clients by X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites them.
	TrustProxyHeaders bool

	Now func() time.Time
}

// Decision is the outcome of a single admission check
type Decision struct {
	Allowed    bool
	Count      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // whole seconds, set on rejection only
}

// NewRateLimiter creates a rate limiter and starts its eviction loop
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 30
	}
	if cfg.Window <= 0 {
		cfg.Window = 2 * time.Second
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Minute
	}
	if cfg.IdleTTL < cfg.Window {
		cfg.IdleTTL = cfg.Window
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &RateLimiter{
		limit:      cfg.Requests,
		window:     cfg.Window,
		idleTTL:    cfg.IdleTTL,
		trustProxy: cfg.TrustProxyHeaders,
		now:        cfg.Now,
		stopChan:   make(chan struct{}),
	}
	for i := range rl.shards {
		rl.shards[i].windows = make(map[string]*clientWindow)
	}

	go rl.cleanupLoop(cfg.Cleanup)

	return rl
}

// Stop stops the eviction loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

// Limit returns the number of requests admitted per window
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Admit records one request from key at now and decides whether it may
// proceed. A window that is W or more old starts over; otherwise the count
// grows, and keeps growing past the limit while the client persists.
func (rl *RateLimiter) Admit(key string, now time.Time) Decision {
	s := rl.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	switch {
	case !ok:
		w = &clientWindow{count: 1, windowStart: now}
		s.windows[key] = w
	case now.Sub(w.windowStart) >= rl.window:
		w.count = 1
		w.windowStart = now
	default:
		w.count++
	}

	d := Decision{
		Allowed:   w.count <= rl.limit,
		Count:     w.count,
		Remaining: max(rl.limit-w.count, 0),
		ResetAt:   w.windowStart.Add(rl.window),
	}
	if !d.Allowed {
		d.RetryAfter = retryAfterSeconds(d.ResetAt.Sub(now))
	}
	return d
}

// retryAfterSeconds rounds up so a client that waits the hint lands in the next window
func retryAfterSeconds(until time.Duration) int {
	secs := int((until + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (rl *RateLimiter) shard(key string) *rateShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &rl.shards[h.Sum32()%rateLimitShards]
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(rl.now())
		case <-rl.stopChan:
			return
		}
	}
}

// evictIdle drops windows idle for at least idleTTL. Since idleTTL >= window,
// an evicted window would have been reset by its next request anyway.
func (rl *RateLimiter) evictIdle(now time.Time) int {
	evicted := 0
	for i := range rl.shards {
		s := &rl.shards[i]
		s.mu.Lock()
		for key, w := range s.windows {
			if now.Sub(w.windowStart) >= rl.idleTTL {
				delete(s.windows, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	if evicted > 0 {
		slog.Debug("rate limit windows evicted", slog.Int("count", evicted))
	}
	return evicted
}

// size reports the number of tracked clients
func (rl *RateLimiter) size() int {
	n := 0
	for i := range rl.shards {
		s := &rl.shards[i]
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}

// ClientKey identifies the client of r by network address
func (rl *RateLimiter) ClientKey(r *http.Request) string {
	if rl.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects requests over the limit before they reach any handler
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.ClientKey(r)
			d := limiter.Admit(key, limiter.now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.Int("count", d.Count),
					slog.Int("retry_after", d.RetryAfter),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				model.NewRateLimitError(d.RetryAfter).WriteJSON(w, GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
