package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainfavorites "quickhost/internal/domain/favorites"
	"quickhost/internal/domain/shared/apperr"
)

// statusFor maps the error taxonomy onto HTTP statuses. Conflicts are checked
// before validation because a duplicate favorite is reported as both.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, domainfavorites.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes {"error": ..., "fields": {...}}. Internal errors are
// logged and hidden from the client.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Map()
	}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
		if logger != nil {
			logger.Error("request failed", "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
		}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " unavailable"})
}
