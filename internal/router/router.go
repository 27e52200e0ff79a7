package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	Auth    *api.AuthHandler
	Users   *api.UserHandler
	Catalog *api.CatalogHandler
	Recipes *api.RecipeHandler
	Health  *api.HealthHandler
}

// Options carries the cross-cutting pieces of the router.
type Options struct {
	Tokens      middleware.TokenValidator
	Metrics     metrics.MetricsCollector
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	// RecipeLimiter throttles recipe creation; nil disables it.
	RecipeLimiter middleware.Limiter
	// MediaRoot is served at MediaURL when images are stored locally.
	MediaRoot string
	MediaURL  string
	Log       *logger.Logger
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	validation.RegisterGin()

	collector := opts.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(opts.Log),
		middleware.RequestLogger(opts.Log, collector),
		middleware.CORS(opts.CORSOrigins),
	)

	router.GET("/health", h.Health.Health)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}
	if opts.MediaRoot != "" && opts.MediaURL != "" {
		router.Static(opts.MediaURL, opts.MediaRoot)
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Authenticate(opts.Tokens, opts.Log))
	authed := middleware.RequireAuth()

	auth := apiGroup.Group("/auth/token")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", authed, h.Auth.Logout)
	}

	users := apiGroup.Group("/users")
	{
		users.GET("", h.Users.List)
		users.POST("", h.Auth.Register)
		users.GET("/me", authed, h.Users.Me)
		users.GET("/subscriptions", authed, h.Users.Subscriptions)
		users.POST("/set_password", authed, h.Auth.SetPassword)
		users.GET("/:id", h.Users.Get)
		users.POST("/:id/subscribe", authed, h.Users.Subscribe)
		users.DELETE("/:id/subscribe", authed, h.Users.Unsubscribe)
	}

	staff := middleware.RequireStaff()

	tags := apiGroup.Group("/tags")
	{
		tags.GET("", h.Catalog.ListTags)
		tags.GET("/:id", h.Catalog.GetTag)
		tags.POST("", staff, h.Catalog.CreateTag)
	}

	ingredients := apiGroup.Group("/ingredients")
	{
		ingredients.GET("", h.Catalog.ListIngredients)
		ingredients.GET("/:id", h.Catalog.GetIngredient)
		ingredients.POST("", staff, h.Catalog.CreateIngredient)
	}

	create := []gin.HandlerFunc{authed}
	if opts.RecipeLimiter != nil {
		create = append(create, middleware.RateLimit(opts.RecipeLimiter, "recipe_create", collector, opts.Log))
	}
	create = append(create, h.Recipes.CreateRecipe)

	recipes := apiGroup.Group("/recipes")
	{
		recipes.GET("", h.Recipes.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", authed, h.Recipes.DownloadShoppingCart)
		recipes.GET("/:id", h.Recipes.GetRecipe)
		recipes.PATCH("/:id", authed, h.Recipes.UpdateRecipe)
		recipes.PUT("/:id", authed, h.Recipes.UpdateRecipe)
		recipes.DELETE("/:id", authed, h.Recipes.DeleteRecipe)
		recipes.POST("/:id/favorite", authed, h.Recipes.AddToSet(service.Favorites))
		recipes.DELETE("/:id/favorite", authed, h.Recipes.RemoveFromSet(service.Favorites))
		recipes.POST("/:id/shopping_cart", authed, h.Recipes.AddToSet(service.ShoppingCart))
		recipes.DELETE("/:id/shopping_cart", authed, h.Recipes.RemoveFromSet(service.ShoppingCart))
	}

	return router
}
