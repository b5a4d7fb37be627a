// Package client uploads scan results to the tracker API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"a11y_tracker/models"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8081/api. A nil httpClient gets a 30s timeout default.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type createScanResponse struct {
	models.ScanCreated
	Message string `json:"message"`
}

type ingestResponse struct {
	models.IngestResult
	Message string `json:"message"`
}

func (c *Client) CreateScan(ctx context.Context, in models.CreateScanInput) (models.ScanCreated, error) {
	var out createScanResponse
	if err := c.post(ctx, "Scan creation", "/scans", in.IdempotencyKey, in, &out); err != nil {
		return models.ScanCreated{}, err
	}
	return out.ScanCreated, nil
}

func (c *Client) UploadIssues(ctx context.Context, scanID int64, in models.IngestInput) (models.IngestResult, error) {
	var out ingestResponse
	path := fmt.Sprintf("/scans/%d/issues", scanID)
	if err := c.post(ctx, "Issue upload", path, in.IdempotencyKey, in, &out); err != nil {
		return models.IngestResult{}, err
	}
	return out.IngestResult, nil
}

// Submission is the outcome of Submit. Ingest is nil when there were no
// issues to upload.
type Submission struct {
	Scan   models.ScanCreated
	Ingest *models.IngestResult
}

// Submit creates the scan and uploads its issues when there are any.
func (c *Client) Submit(ctx context.Context, scan models.CreateScanInput, issues []models.IssueInput) (Submission, error) {
	created, err := c.CreateScan(ctx, scan)
	if err != nil {
		return Submission{}, err
	}
	sub := Submission{Scan: created}
	if len(issues) == 0 {
		return sub, nil
	}

	in := models.IngestInput{Issues: issues}
	if scan.IdempotencyKey != "" {
		in.IdempotencyKey = scan.IdempotencyKey + ":issues"
	}
	res, err := c.UploadIssues(ctx, created.ScanID, in)
	if err != nil {
		return sub, err
	}
	sub.Ingest = &res
	return sub, nil
}

func (c *Client) post(ctx context.Context, op, path, idempotencyKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
