package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindIntegrity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"errors": message}. Internal errors are logged and never
// shown to the client.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, middleware.ErrorResponse{Errors: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, middleware.ErrorResponse{Errors: err.Error()})
}

// respondBindError reports a malformed or invalid request body.
func respondBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	msg := "Некорректный запрос"
	if errors.As(err, &fieldErrs) {
		msg = validation.Describe(err)
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorResponse{Errors: msg})
}
