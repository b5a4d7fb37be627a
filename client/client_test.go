package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"a11y_tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path           string
	idempotencyKey string
	body           map[string]interface{}
}

func fakeAPI(t *testing.T, scanStatus int) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		reqs = append(reqs, recorded{path: r.URL.Path, idempotencyKey: r.Header.Get("Idempotency-Key"), body: body})
		mu.Unlock()
	}
	mux.HandleFunc("/api/scans", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if scanStatus != http.StatusOK {
			w.WriteHeader(scanStatus)
			_, _ = w.Write([]byte(`{"error":"Failed to create scan"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"scan_id":7,"file_id":3,"message":"Scan initiated successfully"}`))
	})
	mux.HandleFunc("/api/scans/7/issues", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"created_count":1,"issue_ids":[11],"severity_counts":{"critical":0,"high":1,"medium":0,"low":0},"message":"Issues created successfully"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func scanPayload() models.CreateScanInput {
	return models.CreateScanInput{
		FileKey:  "abc",
		FileName: "Checkout",
		FileURL:  "https://www.figma.com/file/abc",
		ScanType: models.ScanTypeSinglePage,
		Pages:    []models.PageInput{{PageID: "1:1", PageName: "Cart"}},
	}
}

func TestSubmitPostsScanThenIssues(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK)
	c := New(srv.URL+"/api/", nil)

	in := scanPayload()
	in.IdempotencyKey = "run-1"
	sub, err := c.Submit(context.Background(), in, []models.IssueInput{{PageID: "1:1", Severity: models.SeverityHigh}})
	require.NoError(t, err)

	assert.Equal(t, models.ScanCreated{ScanID: 7, FileID: 3}, sub.Scan)
	require.NotNil(t, sub.Ingest)
	assert.Equal(t, 1, sub.Ingest.CreatedCount)
	assert.Equal(t, []int64{11}, sub.Ingest.IssueIDs)
	assert.Equal(t, 1, sub.Ingest.SeverityCounts.High)

	require.Len(t, *reqs, 2)
	assert.Equal(t, "/api/scans", (*reqs)[0].path)
	assert.Equal(t, "run-1", (*reqs)[0].idempotencyKey)
	assert.Equal(t, "abc", (*reqs)[0].body["file_key"])
	assert.Equal(t, "/api/scans/7/issues", (*reqs)[1].path)
	assert.Equal(t, "run-1:issues", (*reqs)[1].idempotencyKey)
	assert.Len(t, (*reqs)[1].body["issues"], 1)
}

func TestSubmitSkipsUploadWithoutIssues(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusOK)
	c := New(srv.URL+"/api", srv.Client())

	sub, err := c.Submit(context.Background(), scanPayload(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 7, sub.Scan.ScanID)
	assert.Nil(t, sub.Ingest)
	assert.Len(t, *reqs, 1)
}

func TestSubmitReportsStatusErrors(t *testing.T) {
	srv, reqs := fakeAPI(t, http.StatusBadRequest)
	c := New(srv.URL+"/api", nil)

	_, err := c.Submit(context.Background(), scanPayload(), []models.IssueInput{{PageID: "1:1"}})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, se.Body, "Failed to create scan")
	assert.Equal(t, "Scan creation failed (400): {\"error\":\"Failed to create scan\"}", err.Error())
	assert.Len(t, *reqs, 1, "issues are not uploaded after a failed scan")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).CreateScan(context.Background(), scanPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
}
