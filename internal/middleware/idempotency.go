package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kushch-a/car-service-crm/internal/model"
)

const (
	// IdempotencyKeyHeader is the client-supplied key for a mutating intent
	IdempotencyKeyHeader = "Idempotency-Key"

	// ReplayedHeader marks a response served from a stored outcome
	ReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255
	idempotencyShards    = 32
)

// IdempotencyMode declares whether a route insists on a key
type IdempotencyMode int

const (
	IdempotencyOptional IdempotencyMode = iota
	IdempotencyRequired
)

// Outcome is a completed response as it will be replayed
type Outcome struct {
	Status int
	Header http.Header
	Body   []byte
}

// IdempotencyGuard runs an operation at most once per key and replays its
// outcome to every later caller with the same key.
type IdempotencyGuard struct {
	shards   [idempotencyShards]idempotencyShard
	ttl      time.Duration
	perShard int
	now      func() time.Time
	stopOnce sync.Once
	stopChan chan struct{}
}

type idempotencyShard struct {
	mu      sync.Mutex
	records map[string]*idempotencyRecord
}

// idempotencyRecord is in flight until done is closed. A stored record is
// never modified again.
type idempotencyRecord struct {
	done      chan struct{}
	outcome   Outcome
	stored    bool
	expiresAt time.Time
}

// IdempotencyConfig holds configuration for the idempotency guard
type IdempotencyConfig struct {
	TTL        time.Duration // How long to keep outcomes (default 24h)
	Cleanup    time.Duration // Expiry sweep interval (default 1h)
	MaxEntries int           // Upper bound on stored outcomes (default 100000)
	Now        func() time.Time
}

// NewIdempotencyGuard creates a guard and starts its expiry loop
func NewIdempotencyGuard(cfg IdempotencyConfig) *IdempotencyGuard {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	g := &IdempotencyGuard{
		ttl:      cfg.TTL,
		perShard: (cfg.MaxEntries + idempotencyShards - 1) / idempotencyShards,
		now:      cfg.Now,
		stopChan: make(chan struct{}),
	}
	for i := range g.shards {
		g.shards[i].records = make(map[string]*idempotencyRecord)
	}

	go g.cleanupLoop(cfg.Cleanup)

	return g
}

// Stop stops the expiry loop
func (g *IdempotencyGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

// Execute returns the stored outcome for key if there is one. Otherwise it
// runs op and stores the result. Concurrent callers with the same unseen key
// wait for the first one and receive its outcome.
//
// Server errors (5xx) and panics are not stored, so the next caller with
// the key runs op again. The returned bool reports a replay.
func (g *IdempotencyGuard) Execute(ctx context.Context, key string, op func() Outcome) (Outcome, bool, error) {
	s := g.shard(key)
	for {
		s.mu.Lock()
		rec, ok := s.records[key]
		if ok && rec.stored && !g.now().Before(rec.expiresAt) {
			delete(s.records, key)
			ok = false
		}

		if !ok {
			rec = &idempotencyRecord{done: make(chan struct{})}
			g.makeRoom(s)
			s.records[key] = rec
			s.mu.Unlock()
			return g.run(s, key, rec, op), false, nil
		}
		s.mu.Unlock()

		select {
		case <-rec.done:
		case <-ctx.Done():
			return Outcome{}, false, ctx.Err()
		}
		if rec.stored {
			return rec.outcome, true, nil
		}
		// The first attempt was discarded; try to become the runner
	}
}

func (g *IdempotencyGuard) run(s *idempotencyShard, key string, rec *idempotencyRecord, op func() Outcome) Outcome {
	completed := false
	defer func() {
		if !completed {
			g.complete(s, key, rec, Outcome{}, false)
		}
	}()

	out := op()
	completed = true
	g.complete(s, key, rec, out, out.Status < http.StatusInternalServerError)
	return out
}

func (g *IdempotencyGuard) complete(s *idempotencyShard, key string, rec *idempotencyRecord, out Outcome, keep bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep {
		rec.outcome = out
		rec.stored = true
		rec.expiresAt = g.now().Add(g.ttl)
	} else if s.records[key] == rec {
		delete(s.records, key)
	}
	close(rec.done)
}

// makeRoom evicts the stored outcome closest to expiry when the shard is
// full. In-flight records are never evicted. Caller holds s.mu.
func (g *IdempotencyGuard) makeRoom(s *idempotencyShard) {
	if len(s.records) < g.perShard {
		return
	}
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, rec := range s.records {
		if !rec.stored {
			continue
		}
		if oldestKey == "" || rec.expiresAt.Before(oldest) {
			oldestKey, oldest = k, rec.expiresAt
		}
	}
	if oldestKey != "" {
		delete(s.records, oldestKey)
	}
}

func (g *IdempotencyGuard) shard(key string) *idempotencyShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &g.shards[h.Sum32()%idempotencyShards]
}

func (g *IdempotencyGuard) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.expire(g.now())
		case <-g.stopChan:
			return
		}
	}
}

func (g *IdempotencyGuard) expire(now time.Time) int {
	expired := 0
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		for key, rec := range s.records {
			if rec.stored && !now.Before(rec.expiresAt) {
				delete(s.records, key)
				expired++
			}
		}
		s.mu.Unlock()
	}
	if expired > 0 {
		slog.Debug("idempotency records expired", slog.Int("count", expired))
	}
	return expired
}

// scopeKey binds a client key to the caller and the route, so two callers
// choosing the same key never see each other's responses
func scopeKey(r *http.Request, key string) string {
	subject := "anonymous"
	if caller := GetCaller(r.Context()); caller != nil {
		subject = strconv.FormatInt(caller.SubjectID, 10)
	}

	h := sha256.New()
	for _, part := range []string{subject, r.Method, r.URL.Path, key} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// bufferedResponse holds a handler's response until it has been stored
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) outcome() Outcome {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	return Outcome{
		Status: status,
		Header: b.header.Clone(),
		Body:   bytes.Clone(b.body.Bytes()),
	}
}

func writeOutcome(w http.ResponseWriter, out Outcome, replayed bool) {
	for k, v := range out.Header {
		w.Header()[k] = append([]string(nil), v...)
	}
	if replayed {
		w.Header().Set(ReplayedHeader, "true")
	}
	w.WriteHeader(out.Status)
	_, _ = w.Write(out.Body)
}

// Idempotency deduplicates retries of a mutating route. With
// IdempotencyRequired a request without a key is rejected before the
// handler runs.
func Idempotency(guard *IdempotencyGuard, mode IdempotencyMode) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if key == "" {
				if mode == IdempotencyRequired {
					model.NewIdempotencyKeyMissingError().WriteJSON(w, GetRequestID(r.Context()))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				model.NewBadRequestError("Idempotency-Key must be at most 255 characters").WriteJSON(w, GetRequestID(r.Context()))
				return
			}

			out, replayed, err := guard.Execute(r.Context(), scopeKey(r, key), func() Outcome {
				buf := newBufferedResponse()
				next.ServeHTTP(buf, r)
				return buf.outcome()
			})
			if err != nil {
				slog.Warn("gave up waiting for in-flight request",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				model.NewConflictError("A request with this Idempotency-Key is still in progress").WriteJSON(w, GetRequestID(r.Context()))
				return
			}

			writeOutcome(w, out, replayed)
		})
	}
}
