package handlers

import (
	"net/http"

	"a11y_tracker/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddComment(c *gin.Context) {
	id, err := paramID(c, "issue_id")
	if err != nil {
		h.respondError(c, err, "", "")
		return
	}
	var in models.CommentInput
	if !bindJSON(c, &in) {
		return
	}

	comment, err := h.store.AddComment(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "Failed to add comment", "Issue not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment, "message": "Comment added successfully"})
}
