package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	actorKey  = "actor"
	claimsKey = "claims"
	userIDKey = "user_id"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// Authenticate resolves the caller from the Authorization header when one is sent.
// Requests without the header continue as anonymous; a bad token is rejected.
// Both "Bearer <token>" and "Token <token>" are accepted.
func Authenticate(validator TokenValidator, baseLog *logger.Logger) gin.HandlerFunc {
	log := baseLog.With("middleware", "Authenticate")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || (parts[0] != "Bearer" && parts[0] != "Token") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": "Неверный формат заголовка авторизации"})
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if service.KindOf(err) != service.KindUnauthenticated {
				log.Error("Token validation failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errors": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": err.Error()})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userIDKey, claims.UserID)
		c.Set(actorKey, service.Actor{UserID: claims.UserID, IsStaff: claims.IsStaff})
		c.Next()
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c).Anonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": service.ErrUnauthenticated.Message})
			return
		}
		c.Next()
	}
}

// RequireStaff rejects callers that are not administrators.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.Anonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"errors": service.ErrUnauthenticated.Message})
			return
		}
		if !actor.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"errors": service.ErrForbidden.Message})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, or the anonymous actor.
func ActorFrom(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{}
}

// ClaimsFrom returns the validated token claims of the request, if any.
func ClaimsFrom(c *gin.Context) (*types.TokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*types.TokenClaims)
	return claims, ok
}

// SetActor installs an actor on the context; used by tests and internal callers.
func SetActor(c *gin.Context, actor service.Actor) {
	c.Set(actorKey, actor)
	c.Set(userIDKey, actor.UserID)
}
