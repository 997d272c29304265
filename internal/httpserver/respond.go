package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"loyalty-program/internal/domain"
)

// respondError maps domain failures to user-visible HTTP responses. Domain
// errors are recoverable at this boundary; anything unmapped is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
	case errors.Is(err, domain.ErrInvalidRedemption):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "redeemed amount exceeds accrued reward"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathID validates the :id path parameter as a UUID before it reaches the
// domain, so malformed ids fail fast as bad input rather than as driver errors.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed id"})
		return "", false
	}
	return id, true
}
