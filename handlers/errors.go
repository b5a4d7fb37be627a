package handlers

import (
	"context"
	"errors"
	"net/http"

	"a11y_tracker/models"
	"a11y_tracker/storage"

	"github.com/gin-gonic/gin"
)

func invalidParam(name string) error {
	return &models.ValidationError{Message: "Invalid " + name}
}

// respondError maps err to a status code. Validation errors carry their own
// message; everything else uses msg. notFound names the missing resource.
func (h *Handler) respondError(c *gin.Context, err error, msg, notFound string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(499)
	default:
		h.log.Errorw(msg,
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(requestIDKey),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "details": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
