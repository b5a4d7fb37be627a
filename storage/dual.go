package storage

import (
	"context"
	"errors"

	"a11y_tracker/logger"
	"a11y_tracker/models"
)

// Dual sends each operation to the primary store until the selector flips,
// then to the fallback store for good. A primary failure is absorbed: the
// selector flips and the same operation is replayed against the fallback.
type Dual struct {
	primary  Store
	fallback Store
	selector *Selector
	log      *logger.Logger
}

// NewDual wires primary and fallback behind selector. A nil primary puts the
// selector into fallback immediately.
func NewDual(primary, fallback Store, selector *Selector, log *logger.Logger) *Dual {
	d := &Dual{
		primary:  primary,
		fallback: fallback,
		selector: selector,
		log:      log.WithComponent("storage"),
	}
	if primary == nil {
		selector.EnableFallback()
	}
	return d
}

// callerError reports errors that describe the request rather than the
// store, which must reach the caller unchanged.
func callerError(err error) bool {
	var verr *models.ValidationError
	return errors.Is(err, ErrNotFound) ||
		errors.As(err, &verr) ||
		errors.Is(err, context.Canceled)
}

func route[T any](d *Dual, op string, call func(Store) (T, error)) (T, error) {
	if d.primary != nil && !d.selector.IsUsingFallback() {
		out, err := call(d.primary)
		if err == nil || callerError(err) {
			return out, err
		}
		d.log.Errorw("Database operation failed, switching to in-memory storage",
			"operation", op,
			"error", err,
		)
		d.selector.EnableFallback()
	}
	return call(d.fallback)
}

func (d *Dual) CreateScan(ctx context.Context, in models.CreateScanInput) (models.ScanCreated, error) {
	return route(d, "CreateScan", func(s Store) (models.ScanCreated, error) {
		return s.CreateScan(ctx, in)
	})
}

func (d *Dual) ListScans(ctx context.Context, f models.ScanFilter) ([]models.ScanView, error) {
	return route(d, "ListScans", func(s Store) ([]models.ScanView, error) {
		return s.ListScans(ctx, f)
	})
}

// IngestIssues absorbs a scan that only the primary knows about: once the
// fallback is active such a scan has no resolvable pages, so nothing is
// created and the call succeeds.
func (d *Dual) IngestIssues(ctx context.Context, scanID int64, in models.IngestInput) (models.IngestResult, error) {
	var onFallback bool
	res, err := route(d, "IngestIssues", func(s Store) (models.IngestResult, error) {
		onFallback = s == d.fallback
		return s.IngestIssues(ctx, scanID, in)
	})
	if d.primary != nil && onFallback && errors.Is(err, ErrNotFound) {
		d.log.Warnw("Scan not found in in-memory storage, issues dropped",
			"scan_id", scanID,
			"submitted", len(in.Issues),
		)
		return models.IngestResult{IssueIDs: []int64{}}, nil
	}
	return res, err
}

func (d *Dual) ListIssues(ctx context.Context, f models.IssueFilter) (models.IssuePage, error) {
	return route(d, "ListIssues", func(s Store) (models.IssuePage, error) {
		return s.ListIssues(ctx, f)
	})
}

func (d *Dual) GetIssue(ctx context.Context, id int64) (models.IssueDetail, error) {
	return route(d, "GetIssue", func(s Store) (models.IssueDetail, error) {
		return s.GetIssue(ctx, id)
	})
}

func (d *Dual) UpdateIssue(ctx context.Context, id int64, p models.IssuePatch) (models.IssueView, error) {
	return route(d, "UpdateIssue", func(s Store) (models.IssueView, error) {
		return s.UpdateIssue(ctx, id, p)
	})
}

func (d *Dual) AddComment(ctx context.Context, issueID int64, in models.CommentInput) (models.Comment, error) {
	return route(d, "AddComment", func(s Store) (models.Comment, error) {
		return s.AddComment(ctx, issueID, in)
	})
}

// Ping checks the primary store; in fallback mode memory is always reachable.
func (d *Dual) Ping(ctx context.Context) error {
	if d.primary == nil || d.selector.IsUsingFallback() {
		return d.fallback.Ping(ctx)
	}
	return d.primary.Ping(ctx)
}

// PingPrimary reports primary reachability regardless of mode. It never
// flips the selector back.
func (d *Dual) PingPrimary(ctx context.Context) error {
	if d.primary == nil {
		return errors.New("no database configured")
	}
	return d.primary.Ping(ctx)
}

// Mode reports the active store, "database" or "memory".
func (d *Dual) Mode() string {
	return d.selector.Mode()
}
