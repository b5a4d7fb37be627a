// Package storage persists files, scans, issues and comments in either a
// relational database or process memory, and routes between the two.
package storage

import (
	"context"
	"errors"

	"a11y_tracker/models"
)

var ErrNotFound = errors.New("not found")

const (
	DefaultScanLimit  = 50
	DefaultIssueLimit = 100
)

type ScanRepository interface {
	CreateScan(ctx context.Context, in models.CreateScanInput) (models.ScanCreated, error)
	ListScans(ctx context.Context, f models.ScanFilter) ([]models.ScanView, error)
	IngestIssues(ctx context.Context, scanID int64, in models.IngestInput) (models.IngestResult, error)
}

type IssueRepository interface {
	ListIssues(ctx context.Context, f models.IssueFilter) (models.IssuePage, error)
	GetIssue(ctx context.Context, id int64) (models.IssueDetail, error)
	UpdateIssue(ctx context.Context, id int64, p models.IssuePatch) (models.IssueView, error)
}

type CommentRepository interface {
	AddComment(ctx context.Context, issueID int64, in models.CommentInput) (models.Comment, error)
}

type Store interface {
	ScanRepository
	IssueRepository
	CommentRepository
	Ping(ctx context.Context) error
}

func normalizeWindow(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
