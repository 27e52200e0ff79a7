package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type stubValidator struct {
	tokens map[string]*types.TokenClaims
	err    error
}

func (s stubValidator) ValidateToken(_ context.Context, token string) (*types.TokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if claims, ok := s.tokens[token]; ok {
		return claims, nil
	}
	return nil, service.Detail(service.ErrUnauthenticated, "Недопустимый токен")
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func serve(r *gin.Engine, method, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	validator := stubValidator{tokens: map[string]*types.TokenClaims{
		"good":  {UserID: userID, Username: "chef"},
		"admin": {UserID: uuid.New(), IsStaff: true},
	}}

	r := newEngine(Authenticate(validator, logger.Nop()))
	r.GET("/whoami", func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"anonymous": actor.Anonymous(), "user_id": actor.UserID, "staff": actor.IsStaff})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous", "", http.StatusOK, `"anonymous":true`},
		{"bearer", "Bearer good", http.StatusOK, userID.String()},
		{"token prefix", "Token good", http.StatusOK, userID.String()},
		{"staff", "Token admin", http.StatusOK, `"staff":true`},
		{"bad format", "good", http.StatusUnauthorized, `"errors"`},
		{"unknown scheme", "Basic good", http.StatusUnauthorized, `"errors"`},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "Недопустимый токен"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, http.MethodGet, "/whoami", tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestAuthenticateValidatorFailure(t *testing.T) {
	r := newEngine(Authenticate(stubValidator{err: assert.AnError}, logger.Nop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, http.MethodGet, "/", "Bearer whatever")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAuthAndStaff(t *testing.T) {
	r := newEngine()
	r.GET("/private", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	withActor := func(actor service.Actor) *gin.Engine {
		e := newEngine(func(c *gin.Context) { SetActor(c, actor) })
		e.GET("/private", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		e.GET("/admin", RequireStaff(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return e
	}

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", "").Code)

	user := withActor(service.Actor{UserID: uuid.New()})
	assert.Equal(t, http.StatusNoContent, serve(user, http.MethodGet, "/private", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(user, http.MethodGet, "/admin", "").Code)

	staff := withActor(service.Actor{UserID: uuid.New(), IsStaff: true})
	assert.Equal(t, http.StatusNoContent, serve(staff, http.MethodGet, "/admin", "").Code)
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(logger.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"errors":"internal server error"}`, rec.Body.String())
}

func TestRequestLoggerRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	r := newEngine(RequestLogger(logger.Nop(), collector))
	r.GET("/api/recipes/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, http.MethodGet, "/api/recipes/123", "")
	serve(r, http.MethodGet, "/api/recipes/456", "")

	count, err := testutil.GatherAndCount(reg, "foodgram_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "requests are labelled by route, not by path")
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS([]string{"http://localhost:3000"}))
	r.GET("/api/tags", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/tags", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func rateLimitedEngine(limiter Limiter, collector metrics.MetricsCollector, actor service.Actor) *gin.Engine {
	r := newEngine(func(c *gin.Context) { SetActor(c, actor) })
	r.POST("/api/recipes", RateLimit(limiter, "recipe_create", collector, logger.Nop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestLocalRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	limiter := NewLocalLimiter(RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"})

	alice := rateLimitedEngine(limiter, collector, service.Actor{UserID: uuid.New()})
	bob := rateLimitedEngine(limiter, collector, service.Actor{UserID: uuid.New()})

	assert.Equal(t, http.StatusCreated, serve(alice, http.MethodPost, "/api/recipes", "").Code)
	assert.Equal(t, http.StatusCreated, serve(alice, http.MethodPost, "/api/recipes", "").Code)
	rec := serve(alice, http.MethodPost, "/api/recipes", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, serve(bob, http.MethodPost, "/api/recipes", "").Code, "limits are per user")
}

func TestRedisRateLimit(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	limiter := NewRedisLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test:" + uuid.NewString()})
	engine := rateLimitedEngine(limiter, metrics.Nop{}, service.Actor{UserID: uuid.New()})

	first := serve(engine, http.MethodPost, "/api/recipes", "")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/recipes", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/recipes", "").Code)
}

// statusEngine answers with the status named in ?status=, defaulting to 201.
func statusEngine(limiter Limiter, actor service.Actor) *gin.Engine {
	r := newEngine(func(c *gin.Context) { SetActor(c, actor) })
	r.POST("/api/recipes", RateLimit(limiter, "recipe_create", metrics.Nop{}, logger.Nop()), func(c *gin.Context) {
		switch c.Query("status") {
		case "400":
			c.Status(http.StatusBadRequest)
		case "500":
			c.Status(http.StatusInternalServerError)
		default:
			c.Status(http.StatusCreated)
		}
	})
	return r
}

func TestLocalRateLimitRefundsFailedRequests(t *testing.T) {
	limiter := NewLocalLimiter(RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: "test"})
	engine := statusEngine(limiter, service.Actor{UserID: uuid.New()})

	assert.Equal(t, http.StatusBadRequest, serve(engine, http.MethodPost, "/api/recipes?status=400", "").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(engine, http.MethodPost, "/api/recipes?status=500", "").Code)
	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/recipes", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/recipes", "").Code)
}

func TestRedisRateLimitRefundsFailedRequests(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	limiter := NewRedisLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: "test:" + uuid.NewString()})
	engine := statusEngine(limiter, service.Actor{UserID: uuid.New()})

	assert.Equal(t, http.StatusBadRequest, serve(engine, http.MethodPost, "/api/recipes?status=400", "").Code)
	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/api/recipes", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/recipes", "").Code)
}

func TestRedisRefundAfterWindowExpiryIsNoop(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	prefix := "test:" + uuid.NewString()
	limiter := NewRedisLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: prefix})
	ctx := context.Background()

	decision, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	keys, err := client.Keys(ctx, prefix+":*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NoError(t, client.Del(ctx, keys[0]).Err())

	require.NoError(t, decision.Refund(ctx))
	exists, err := client.Exists(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestLocalRateLimitDropsIdleBuckets(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	limiter := NewLocalLimiter(RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"})
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
	}
	assert.Len(t, limiter.buckets, 3)

	now = start.Add(40 * time.Minute)
	_, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, limiter.buckets, 3, "no sweep before a full window has passed")

	now = start.Add(61 * time.Minute)
	_, err = limiter.Allow(ctx, "d")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "d"}, bucketKeys(limiter))
}

func TestLocalRateLimitKeepsQuotaOfActiveBuckets(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	limiter := NewLocalLimiter(RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: "test"})
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	now = start.Add(30 * time.Minute)
	second, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
}

func bucketKeys(ll *LocalLimiter) []string {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	keys := make([]string, 0, len(ll.buckets))
	for k := range ll.buckets {
		keys = append(keys, k)
	}
	return keys
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) { return Decision{}, assert.AnError }
func (failingLimiter) Config() RateLimitConfig                        { return RecipeCreationLimit(1) }

func TestRateLimitFailsOpen(t *testing.T) {
	engine := rateLimitedEngine(failingLimiter{}, metrics.Nop{}, service.Actor{UserID: uuid.New()})

	rec := serve(engine, http.MethodPost, "/api/recipes", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "rate limit check failed", rec.Header().Get("X-RateLimit-Error"))
}
