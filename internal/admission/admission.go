// internal/admission/admission.go
//
// Per-address connection admission for the game server.
// Responsibilities:
//   - Decide whether a newly accepted connection may start a session.
//   - Local: a token bucket per remote IP (golang.org/x/time/rate).
//   - Redis: a fixed window per remote IP shared by every server process.
//
// Both limiters fail open: an admission backend that is unreachable never
// keeps players out.

package admission

import (
	"context"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/robalobadob/battleship/internal/metrics"
)

// Admitter decides whether a connection from ip may proceed.
type Admitter interface {
	Admit(ctx context.Context, ip string) bool
}

// AllowAll admits every connection.
type AllowAll struct{}

func (AllowAll) Admit(context.Context, string) bool {
	metrics.Admissions.WithLabelValues("allowed").Inc()
	return true
}

// Local keeps one token bucket per remote IP in memory.
type Local struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLocal admits perMinute connections per IP per minute, with bursts of
// the same size.
func NewLocal(perMinute int) *Local {
	return &Local{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *Local) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *Local) Admit(_ context.Context, ip string) bool {
	return record(l.limiter(ip).Allow())
}

// Redis counts connections per IP in a fixed window with INCR/EXPIRE.
// Keys look like "bs:adm:<window seconds>:<ip>".
type Redis struct {
	client *redis.Client
	max    int64
	window time.Duration
	log    zerolog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, perWindow int, window time.Duration, log zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		max:    int64(perWindow),
		window: window,
		log:    log.With().Str("component", "admission").Logger(),
	}
}

// DialRedis connects to addr and pings it. It returns nil when the server
// cannot be reached so callers can fall back to local admission.
func DialRedis(addr, password string, db int, log zerolog.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, using local admission")
		_ = client.Close()
		return nil
	}
	return client
}

func (r *Redis) key(ip string) string {
	return "bs:adm:" + strconv.FormatInt(int64(r.window.Seconds()), 10) + ":" + ip
}

func (r *Redis) Admit(ctx context.Context, ip string) bool {
	key := r.key(ip)
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("ip", ip).Msg("admission check failed, allowing")
		metrics.Admissions.WithLabelValues("error").Inc()
		return true
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("set admission window expiry")
		}
	}
	return record(n <= r.max)
}

func record(ok bool) bool {
	if ok {
		metrics.Admissions.WithLabelValues("allowed").Inc()
	} else {
		metrics.Admissions.WithLabelValues("rejected").Inc()
	}
	return ok
}
