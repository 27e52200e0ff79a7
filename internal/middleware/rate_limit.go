package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// KeyPrefix namespaces the counters of one limiter
	KeyPrefix string
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time

	refund func(ctx context.Context) error
}

// Refund gives back the request counted by an allowed Decision.
func (d Decision) Refund(ctx context.Context) error {
	if d.refund == nil {
		return nil
	}
	return d.refund(ctx)
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Config() RateLimitConfig
}

// refundScript decrements a window counter only while it still exists, so a
// late refund never leaves a negative key without a TTL behind.
var refundScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

func NewRedisLimiter(redisClient *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{redis: redisClient, config: config, now: time.Now}
}

func (rl *RedisLimiter) Config() RateLimitConfig { return rl.config }

// Allow increments the caller's counter for the current window.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Allowed:   count <= rl.config.Limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(rl.config.Window),
	}
	if d.Allowed {
		d.refund = func(ctx context.Context) error {
			return refundScript.Run(ctx, rl.redis, []string{redisKey}).Err()
		}
	}
	return d, nil
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per key, used when redis is not configured.
// A bucket left idle for a whole window has refilled completely, so it is
// dropped on the next sweep and recreated on demand.
type LocalLimiter struct {
	config    RateLimitConfig
	mu        sync.Mutex
	buckets   map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{config: config, buckets: make(map[string]*localBucket), now: time.Now}
}

func (ll *LocalLimiter) Config() RateLimitConfig { return ll.config }

func (ll *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := ll.now()

	ll.mu.Lock()
	ll.sweep(now)
	bucket, ok := ll.buckets[key]
	if !ok {
		every := rate.Every(ll.config.Window / time.Duration(ll.config.Limit))
		bucket = &localBucket{limiter: rate.NewLimiter(every, ll.config.Limit)}
		ll.buckets[key] = bucket
	}
	bucket.lastSeen = now
	ll.mu.Unlock()

	reservation := bucket.limiter.ReserveN(now, 1)
	allowed := reservation.OK() && reservation.DelayFrom(now) == 0
	if !allowed {
		reservation.CancelAt(now)
	}

	remaining := int(bucket.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(ll.config.Window),
	}
	if allowed {
		d.refund = func(context.Context) error {
			reservation.CancelAt(now)
			return nil
		}
	}
	return d, nil
}

// sweep drops buckets idle for at least one window. Callers hold ll.mu.
func (ll *LocalLimiter) sweep(now time.Time) {
	if now.Sub(ll.lastSweep) < ll.config.Window {
		return
	}
	for key, bucket := range ll.buckets {
		if now.Sub(bucket.lastSeen) >= ll.config.Window {
			delete(ll.buckets, key)
		}
	}
	ll.lastSweep = now
}

// RecipeCreationLimit limits how many recipes one user may publish per hour.
func RecipeCreationLimit(limit int) RateLimitConfig {
	return RateLimitConfig{
		Window:    time.Hour,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_creation",
	}
}

// RateLimit enforces limiter per authenticated user. Only requests that succeed
// count: when the handler answers with an error status the request is refunded.
// Limiter failures are logged and the request is let through.
func RateLimit(limiter Limiter, scope string, collector metrics.MetricsCollector, baseLog *logger.Logger) gin.HandlerFunc {
	log := baseLog.With("middleware", "RateLimit", "scope", scope)
	cfg := limiter.Config()
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		key := c.ClientIP()
		if !actor.Anonymous() {
			key = actor.UserID.String()
		}

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("Rate limit check failed", "error", err)
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			collector.RecordRateLimited(scope)
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"errors": fmt.Sprintf("Превышен лимит: не более %d запросов за %v", cfg.Limit, cfg.Window),
			})
			return
		}
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := decision.Refund(c.Request.Context()); err != nil {
				log.Warn("Rate limit refund failed", "error", err)
			}
		}
	}
}
