package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/service"
	"storefront-backend/pkg/logger"
)

// statusForError maps the service error taxonomy onto HTTP status codes.
// Validation and stock failures are 400, missing resources 404, auth
// failures 401, duplicate registration 409; anything unknown is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrMissingDetails),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. Internal errors are logged with
// full detail but reach the client as a generic message unless the
// logger runs in development mode.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	status := statusForError(err)

	if status == http.StatusInternalServerError {
		log.Error("Internal error", "path", c.FullPath(), "error", err)
		body := gin.H{"error": "internal server error"}
		if log.IsDevelopment() {
			body["debug"] = err.Error()
		}
		c.JSON(status, body)
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
