package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"a11y_tracker/logger"
	"a11y_tracker/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Relational persists to the normalized tables created by models.Migrate.
type Relational struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewRelational(db *gorm.DB, log *logger.Logger) *Relational {
	return &Relational{
		db:  db,
		log: log.WithComponent("relational_store"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *Relational) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Relational) CreateScan(ctx context.Context, in models.CreateScanInput) (models.ScanCreated, error) {
	var out models.ScanCreated

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IdempotencyKey != "" {
			var existing models.Scan
			err := tx.Where("idempotency_key = ?", in.IdempotencyKey).Take(&existing).Error
			if err == nil {
				out = models.ScanCreated{ScanID: existing.ID, FileID: existing.FileID}
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lookup idempotency key: %w", err)
			}
		}

		now := r.now()

		file := models.File{
			FileKey:       in.FileKey,
			FileName:      in.FileName,
			FileURL:       in.FileURL,
			LastScannedAt: now,
			CreatedAt:     now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"file_name", "file_url", "last_scanned_at"}),
		}).Create(&file).Error; err != nil {
			return fmt.Errorf("upsert file: %w", err)
		}
		if err := tx.Where("file_key = ?", in.FileKey).Take(&file).Error; err != nil {
			return fmt.Errorf("reload file: %w", err)
		}

		for _, p := range in.Pages {
			page := models.Page{
				FileID:        file.ID,
				PageID:        p.PageID,
				PageName:      p.PageName,
				LastScannedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "file_id"}, {Name: "page_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"page_name", "last_scanned_at"}),
			}).Create(&page).Error; err != nil {
				return fmt.Errorf("upsert page %s: %w", p.PageID, err)
			}
		}

		scan := models.Scan{
			FileID:      file.ID,
			InitiatedBy: in.InitiatedBy,
			ScanType:    in.ScanType,
			Status:      models.ScanInProgress,
			CreatedAt:   now,
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			scan.IdempotencyKey = &key
		}
		if err := tx.Create(&scan).Error; err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		out = models.ScanCreated{ScanID: scan.ID, FileID: file.ID}
		return nil
	})
	if err != nil {
		return models.ScanCreated{}, err
	}

	r.log.Infow("Scan created", "scan_id", out.ScanID, "file_id", out.FileID, "file_key", in.FileKey)
	return out, nil
}

func (r *Relational) ListScans(ctx context.Context, f models.ScanFilter) ([]models.ScanView, error) {
	limit, offset := normalizeWindow(f.Limit, f.Offset, DefaultScanLimit)

	q := r.db.WithContext(ctx).
		Table("scans AS s").
		Select("s.*, f.file_name, f.file_key, u.name AS initiated_by_name").
		Joins("JOIN files f ON s.file_id = f.id").
		Joins("LEFT JOIN users u ON s.initiated_by = u.id")
	if f.FileID != nil {
		q = q.Where("s.file_id = ?", *f.FileID)
	}

	scans := []models.ScanView{}
	err := q.Order("s.created_at DESC, s.id DESC").Limit(limit).Offset(offset).Scan(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

func (r *Relational) IngestIssues(ctx context.Context, scanID int64, in models.IngestInput) (models.IngestResult, error) {
	start := time.Now()
	log := r.log.WithScanID(scanID)
	result := models.IngestResult{IssueIDs: []int64{}}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scan models.Scan
		if err := tx.Take(&scan, scanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load scan: %w", err)
		}

		if in.IdempotencyKey != "" && scan.Status == models.ScanCompleted &&
			scan.IngestKey != nil && *scan.IngestKey == in.IdempotencyKey {
			if err := tx.Model(&models.Issue{}).Where("scan_id = ?", scanID).
				Order("id").Pluck("id", &result.IssueIDs).Error; err != nil {
				return fmt.Errorf("load ingested issues: %w", err)
			}
			result.CreatedCount = scan.TotalIssues
			result.SeverityCounts = scan.Counts()
			return nil
		}

		var pages []models.Page
		if err := tx.Where("file_id = ?", scan.FileID).Find(&pages).Error; err != nil {
			return fmt.Errorf("load pages: %w", err)
		}
		pageIDs := make(map[string]int64, len(pages))
		for _, p := range pages {
			pageIDs[p.PageID] = p.ID
		}

		now := r.now()
		for _, input := range in.Issues {
			pageID, ok := pageIDs[input.PageID]
			if !ok {
				log.Warnw("Page not found for issue", "page_id", input.PageID)
				continue
			}

			issue := input.NewIssue(scanID, pageID)
			issue.CreatedAt = now
			issue.UpdatedAt = now
			if err := tx.Create(&issue).Error; err != nil {
				return fmt.Errorf("insert issue: %w", err)
			}

			result.IssueIDs = append(result.IssueIDs, issue.ID)
			result.CreatedCount++
			result.SeverityCounts.Add(input.Severity)
		}

		scan.Complete(result.CreatedCount, result.SeverityCounts, now)
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			scan.IngestKey = &key
		}
		if err := tx.Model(&models.Scan{ID: scanID}).Select(
			"status", "total_issues", "critical_count", "high_count",
			"medium_count", "low_count", "completed_at", "ingest_key",
		).Updates(&scan).Error; err != nil {
			return fmt.Errorf("complete scan: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.IngestResult{}, err
	}

	log.LogDuration("storage.IngestIssues", start, "created_count", result.CreatedCount)
	return result, nil
}

func (r *Relational) issueQuery(ctx context.Context, f models.IssueFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("issues AS i").
		Joins("JOIN pages p ON i.page_id = p.id")
	if f.FileID != nil {
		q = q.Where("p.file_id = ?", *f.FileID)
	}
	if f.Status != "" {
		q = q.Where("i.status = ?", f.Status)
	}
	if f.Severity != "" {
		q = q.Where("i.severity = ?", f.Severity)
	}
	if f.Category != "" {
		q = q.Where("i.category = ?", f.Category)
	}
	if f.AssignedTo != "" {
		q = q.Where("i.assigned_to = ?", f.AssignedTo)
	}
	return q
}

const issueViewColumns = `i.*, p.page_name, p.page_id AS page_string_id,
	f.file_name, f.file_key, f.file_url, u.name AS assigned_to_name,
	(SELECT COUNT(*) FROM comments c WHERE c.issue_id = i.id) AS comment_count`

func (r *Relational) withViewJoins(q *gorm.DB) *gorm.DB {
	return q.Select(issueViewColumns).
		Joins("JOIN files f ON p.file_id = f.id").
		Joins("LEFT JOIN users u ON i.assigned_to = u.id")
}

func (r *Relational) ListIssues(ctx context.Context, f models.IssueFilter) (models.IssuePage, error) {
	limit, offset := normalizeWindow(f.Limit, f.Offset, DefaultIssueLimit)

	page := models.IssuePage{Issues: []models.IssueView{}, Limit: limit, Offset: offset}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.withViewJoins(r.issueQuery(gctx, f)).
			Order("i.created_at DESC, i.id DESC").
			Limit(limit).Offset(offset).
			Scan(&page.Issues).Error
		if err != nil {
			return fmt.Errorf("list issues: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.issueQuery(gctx, f).Count(&page.Total).Error; err != nil {
			return fmt.Errorf("count issues: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.IssuePage{}, err
	}

	page.Count = len(page.Issues)
	return page, nil
}

func (r *Relational) loadView(db *gorm.DB, id int64) (models.IssueView, error) {
	var views []models.IssueView
	q := r.withViewJoins(db.Table("issues AS i").Joins("JOIN pages p ON i.page_id = p.id"))
	if err := q.Where("i.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return models.IssueView{}, fmt.Errorf("load issue: %w", err)
	}
	if len(views) == 0 {
		return models.IssueView{}, ErrNotFound
	}
	return views[0], nil
}

func (r *Relational) GetIssue(ctx context.Context, id int64) (models.IssueDetail, error) {
	db := r.db.WithContext(ctx)

	view, err := r.loadView(db, id)
	if err != nil {
		return models.IssueDetail{}, err
	}

	detail := models.IssueDetail{
		Issue:       view,
		Comments:    []models.Comment{},
		Annotations: []models.Annotation{},
	}
	if err := db.Where("issue_id = ?", id).Order("created_at ASC, id ASC").Find(&detail.Comments).Error; err != nil {
		return models.IssueDetail{}, fmt.Errorf("load comments: %w", err)
	}
	if err := db.Table("annotations AS a").
		Select("a.*, u.name AS created_by_name").
		Joins("LEFT JOIN users u ON a.created_by = u.id").
		Where("a.issue_id = ?", id).
		Order("a.created_at DESC").
		Scan(&detail.Annotations).Error; err != nil {
		return models.IssueDetail{}, fmt.Errorf("load annotations: %w", err)
	}
	return detail, nil
}

func (r *Relational) UpdateIssue(ctx context.Context, id int64, p models.IssuePatch) (models.IssueView, error) {
	if p.Empty() {
		return models.IssueView{}, models.ErrNoUpdates
	}

	var view models.IssueView
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issue models.Issue
		if err := tx.Take(&issue, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load issue: %w", err)
		}

		issue.Apply(p, r.now())
		if err := tx.Model(&models.Issue{ID: id}).Select(
			"status", "assigned_to", "severity", "fix_recommendation", "resolved_at", "updated_at",
		).Updates(&issue).Error; err != nil {
			return fmt.Errorf("update issue: %w", err)
		}

		var err error
		view, err = r.loadView(tx, id)
		return err
	})
	if err != nil {
		return models.IssueView{}, err
	}
	return view, nil
}

func (r *Relational) AddComment(ctx context.Context, issueID int64, in models.CommentInput) (models.Comment, error) {
	in, err := in.Normalize()
	if err != nil {
		return models.Comment{}, err
	}

	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Issue{}).Where("id = ?", issueID).Count(&count).Error; err != nil {
		return models.Comment{}, fmt.Errorf("check issue: %w", err)
	}
	if count == 0 {
		return models.Comment{}, ErrNotFound
	}

	c := models.Comment{
		IssueID:   issueID,
		UserID:    in.UserID,
		UserName:  in.UserName,
		Content:   in.Content,
		CreatedAt: r.now(),
	}
	if err := db.Create(&c).Error; err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}
