package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Errors string `json:"errors"`
}

// Recovery turns a panic into a logged 500 with a JSON error body.
func Recovery(baseLog *logger.Logger) gin.HandlerFunc {
	log := baseLog.With("middleware", "Recovery")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic while handling request",
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Errors: "internal server error"})
			}
		}()
		c.Next()
	}
}
