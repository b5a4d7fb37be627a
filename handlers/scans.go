package handlers

import (
	"errors"
	"net/http"

	"a11y_tracker/models"
	"a11y_tracker/storage"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// bindJSON decodes the request body into v, answering 400 or 413 itself when
// it cannot.
func bindJSON(c *gin.Context, v interface{}) bool {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
	return false
}

func (h *Handler) CreateScan(c *gin.Context) {
	var in models.CreateScanInput
	if !bindJSON(c, &in) {
		return
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.GetHeader(idempotencyHeader)
	}
	if err := in.Validate(); err != nil {
		h.respondError(c, err, "Failed to create scan", "")
		return
	}

	created, err := h.store.CreateScan(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Failed to create scan", "")
		return
	}

	h.log.Infow("Scan created",
		"scan_id", created.ScanID,
		"file_id", created.FileID,
		"file_key", in.FileKey,
		"scan_type", in.ScanType,
		"pages", len(in.Pages),
	)
	c.JSON(http.StatusOK, gin.H{
		"scan_id": created.ScanID,
		"file_id": created.FileID,
		"message": "Scan initiated successfully",
	})
}

func (h *Handler) ListScans(c *gin.Context) {
	f := models.ScanFilter{}
	var err error
	if f.FileID, err = queryFileID(c); err != nil {
		h.respondError(c, err, "", "")
		return
	}
	if f.Limit, err = queryInt(c, "limit", storage.DefaultScanLimit); err != nil {
		h.respondError(c, err, "", "")
		return
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		h.respondError(c, err, "", "")
		return
	}

	scans, err := h.store.ListScans(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "Failed to fetch scans", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans, "count": len(scans)})
}

func (h *Handler) IngestIssues(c *gin.Context) {
	scanID, err := paramID(c, "scan_id")
	if err != nil {
		h.respondError(c, err, "", "")
		return
	}
	var in models.IngestInput
	if !bindJSON(c, &in) {
		return
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.GetHeader(idempotencyHeader)
	}
	if err := in.Validate(); err != nil {
		h.respondError(c, err, "Failed to create issues", "")
		return
	}

	res, err := h.store.IngestIssues(c.Request.Context(), scanID, in)
	if err != nil {
		h.respondError(c, err, "Failed to create issues", "Scan not found")
		return
	}

	h.log.Infow("Issues ingested",
		"scan_id", scanID,
		"submitted", len(in.Issues),
		"created", res.CreatedCount,
	)
	c.JSON(http.StatusOK, gin.H{
		"created_count":   res.CreatedCount,
		"issue_ids":       res.IssueIDs,
		"severity_counts": res.SeverityCounts,
		"message":         "Issues created successfully",
	})
}
