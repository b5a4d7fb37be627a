package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health always answers 200 while the process can serve requests; the
// database field reports primary reachability separately.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "up"
	resp := gin.H{"status": "ok", "storage": h.health.Mode()}
	if err := h.health.PingPrimary(ctx); err != nil {
		database = "down"
		resp["database_error"] = err.Error()
	}
	resp["database"] = database
	c.JSON(http.StatusOK, resp)
}
