// Package app assembles repositories, services, handlers and the router.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the external resources the application runs on.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis backs token revocation and rate limiting when set; otherwise both
	// are kept in process memory.
	Redis    *redis.Client
	Images   service.ImageStore
	Registry *prometheus.Registry
	Log      *logger.Logger
}

// App is the assembled application.
type App struct {
	Engine    *gin.Engine
	Auth      *service.AuthService
	Users     *service.UserService
	Catalog   *service.CatalogService
	Recipes   *service.RecipeService
	Relations *service.RelationService
	Shopping  *service.ShoppingListService
}

// New wires every layer on top of deps.
func New(deps Dependencies) *App {
	cfg, db, log := deps.Config, deps.DB, deps.Log

	var collector metrics.MetricsCollector = metrics.Nop{}
	var gatherer prometheus.Gatherer
	if deps.Registry != nil {
		collector = metrics.NewCollector(deps.Registry)
		gatherer = deps.Registry
	}

	users := repository.NewUserRepo(db, log)
	tags := repository.NewTagRepo(db, log)
	ingredients := repository.NewIngredientRepo(db, log)
	recipes := repository.NewRecipeRepo(db, log)

	var tokens service.TokenStore = service.NewMemoryTokenStore()
	var recipeLimiter middleware.Limiter
	limit := middleware.RecipeCreationLimit(cfg.RecipeCreationLimit)
	if deps.Redis != nil {
		tokens = service.NewRedisTokenStore(deps.Redis)
		if limit.Limit > 0 {
			recipeLimiter = middleware.NewRedisLimiter(deps.Redis, limit)
		}
	} else if limit.Limit > 0 {
		recipeLimiter = middleware.NewLocalLimiter(limit)
	}

	a := &App{
		Auth:    service.NewAuthService(users, tokens, cfg.JWTSecret, cfg.TokenTTL, log),
		Users:   service.NewUserService(users, log),
		Catalog: service.NewCatalogService(tags, ingredients, log),
		Recipes: service.NewRecipeService(
			db, recipes,
			service.NewCompositionValidator(tags, ingredients, log),
			deps.Images, service.NewTextSanitizer(), collector, log,
		),
		Relations: service.NewRelationService(
			users, recipes,
			repository.NewFavoriteRepo(db, log),
			repository.NewCartRepo(db, log),
			repository.NewSubscriptionRepo(db, log),
			collector, log,
		),
		Shopping: service.NewShoppingListService(repository.NewShoppingRepo(db, log), collector, log),
	}

	presenter := api.NewPresenter(a.Relations)
	opts := router.Options{
		Tokens:        a.Auth,
		Metrics:       collector,
		Gatherer:      gatherer,
		CORSOrigins:   cfg.CORSOrigins,
		RecipeLimiter: recipeLimiter,
		Log:           log,
	}
	if _, local := deps.Images.(*service.LocalImageStore); local {
		opts.MediaRoot = cfg.MediaRoot
		opts.MediaURL = cfg.MediaURL
	}

	a.Engine = router.SetupRouter(router.Handlers{
		Auth:    api.NewAuthHandler(a.Auth, log),
		Users:   api.NewUserHandler(a.Users, a.Relations, presenter, log),
		Catalog: api.NewCatalogHandler(a.Catalog, log),
		Recipes: api.NewRecipeHandler(a.Recipes, a.Relations, a.Shopping, presenter, log),
		Health:  api.NewHealthHandler(db),
	}, opts)
	return a
}

// NewImageStore picks S3 when a bucket is configured and the local media root otherwise.
func NewImageStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (service.ImageStore, error) {
	if cfg.S3Bucket == "" {
		log.Info("Storing images locally", "root", cfg.MediaRoot, "url", cfg.MediaURL)
		return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL, log), nil
	}
	s3Config, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3: %w", err)
	}
	log.Info("Storing images in S3", "bucket", cfg.S3Bucket, "region", cfg.AWSRegion)
	return service.NewS3ImageStore(s3Config, log), nil
}
