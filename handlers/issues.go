package handlers

import (
	"errors"
	"io"
	"net/http"

	"a11y_tracker/models"
	"a11y_tracker/storage"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListIssues(c *gin.Context) {
	f := models.IssueFilter{
		Status:     c.Query("status"),
		Severity:   c.Query("severity"),
		Category:   c.Query("category"),
		AssignedTo: c.Query("assigned_to"),
	}
	var err error
	if f.FileID, err = queryFileID(c); err != nil {
		h.respondError(c, err, "", "")
		return
	}
	if f.Limit, err = queryInt(c, "limit", storage.DefaultIssueLimit); err != nil {
		h.respondError(c, err, "", "")
		return
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		h.respondError(c, err, "", "")
		return
	}

	page, err := h.store.ListIssues(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "Failed to fetch issues", "")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetIssue(c *gin.Context) {
	id, err := paramID(c, "issue_id")
	if err != nil {
		h.respondError(c, err, "", "")
		return
	}
	detail, err := h.store.GetIssue(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch issue", "Issue not found")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) UpdateIssue(c *gin.Context) {
	id, err := paramID(c, "issue_id")
	if err != nil {
		h.respondError(c, err, "", "")
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		badRequest(c, "Invalid request body")
		return
	}
	patch, err := models.ParseIssuePatch(raw)
	if err != nil {
		h.respondError(c, err, "Failed to update issue", "")
		return
	}

	issue, err := h.store.UpdateIssue(c.Request.Context(), id, patch)
	if err != nil {
		h.respondError(c, err, "Failed to update issue", "Issue not found")
		return
	}

	h.log.Infow("Issue updated", "issue_id", id, "status", issue.Status)
	c.JSON(http.StatusOK, gin.H{"issue": issue, "message": "Issue updated successfully"})
}
