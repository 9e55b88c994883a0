package server

import (
	"errors"
	"net/http"

	"github.com/balazsgrill/actiongate/internal/ctxlog"
	"github.com/balazsgrill/actiongate/internal/dispatch"
	"github.com/balazsgrill/actiongate/internal/resolver"
	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/balazsgrill/actiongate/internal/validate"
	"github.com/gin-gonic/gin"
)

// statusOf maps an error to the HTTP status it is reported with.
func statusOf(err error) int {
	var authErr *dispatch.AuthError
	var fieldErr *validate.Error
	switch {
	case errors.As(err, &authErr),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrKeyMismatch):
		return http.StatusForbidden
	case errors.Is(err, resolver.ErrNotAllowed),
		errors.Is(err, resolver.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &fieldErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	switch status {
	case http.StatusUnprocessableEntity:
		var fieldErr *validate.Error
		errors.As(err, &fieldErr)
		c.AbortWithStatusJSON(status, fieldErr.Fields)
	case http.StatusInternalServerError:
		ctxlog.FromContext(c.Request.Context()).Error("endpoint exception", "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(status, ServerErrorResponse{Details: err.Error()})
	default:
		c.AbortWithStatusJSON(status, ErrorResponse{Detail: err.Error()})
	}
}
