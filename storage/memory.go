package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"a11y_tracker/logger"
	"a11y_tracker/models"
)

type pageKey struct {
	fileID int64
	pageID string
}

// Memory keeps everything in process memory. IDs come from counters that
// start at 1 on every restart and are never reconciled with database IDs.
// Mutations run sequentially without rollback.
type Memory struct {
	mu  sync.RWMutex
	log *logger.Logger
	now func() time.Time

	files      map[int64]*models.File
	filesByKey map[string]int64
	pages      map[int64]*models.Page
	pagesByKey map[pageKey]int64
	scans      map[int64]*models.Scan
	scanOrder  []int64
	scanByKey  map[string]int64
	issues     map[int64]*models.Issue
	issueOrder []int64
	comments   []models.Comment

	fileCounter    int64
	pageCounter    int64
	scanCounter    int64
	issueCounter   int64
	commentCounter int64
}

func NewMemory(log *logger.Logger) *Memory {
	return &Memory{
		log:        log.WithComponent("memory_store"),
		now:        func() time.Time { return time.Now().UTC() },
		files:      make(map[int64]*models.File),
		filesByKey: make(map[string]int64),
		pages:      make(map[int64]*models.Page),
		pagesByKey: make(map[pageKey]int64),
		scans:      make(map[int64]*models.Scan),
		scanByKey:  make(map[string]int64),
		issues:     make(map[int64]*models.Issue),
	}
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) CreateScan(ctx context.Context, in models.CreateScanInput) (models.ScanCreated, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.IdempotencyKey != "" {
		if id, ok := m.scanByKey[in.IdempotencyKey]; ok {
			s := m.scans[id]
			return models.ScanCreated{ScanID: s.ID, FileID: s.FileID}, nil
		}
	}

	now := m.now()

	file, ok := m.files[m.filesByKey[in.FileKey]]
	if !ok {
		m.fileCounter++
		file = &models.File{ID: m.fileCounter, FileKey: in.FileKey, CreatedAt: now}
		m.files[file.ID] = file
		m.filesByKey[in.FileKey] = file.ID
	}
	file.FileName = in.FileName
	file.FileURL = in.FileURL
	file.LastScannedAt = now

	for _, p := range in.Pages {
		key := pageKey{fileID: file.ID, pageID: p.PageID}
		page, ok := m.pages[m.pagesByKey[key]]
		if !ok {
			m.pageCounter++
			page = &models.Page{ID: m.pageCounter, FileID: file.ID, PageID: p.PageID}
			m.pages[page.ID] = page
			m.pagesByKey[key] = page.ID
		}
		page.PageName = p.PageName
		page.LastScannedAt = now
	}

	m.scanCounter++
	scan := &models.Scan{
		ID:          m.scanCounter,
		FileID:      file.ID,
		InitiatedBy: in.InitiatedBy,
		ScanType:    in.ScanType,
		Status:      models.ScanInProgress,
		CreatedAt:   now,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		scan.IdempotencyKey = &key
		m.scanByKey[key] = scan.ID
	}
	m.scans[scan.ID] = scan
	m.scanOrder = append(m.scanOrder, scan.ID)

	m.log.Infow("In-memory scan created", "scan_id", scan.ID, "file_name", in.FileName)
	return models.ScanCreated{ScanID: scan.ID, FileID: file.ID}, nil
}

func (m *Memory) ListScans(ctx context.Context, f models.ScanFilter) ([]models.ScanView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit, offset := normalizeWindow(f.Limit, f.Offset, DefaultScanLimit)

	var all []models.ScanView
	for _, id := range m.scanOrder {
		s := m.scans[id]
		if f.FileID != nil && s.FileID != *f.FileID {
			continue
		}
		file := m.files[s.FileID]
		all = append(all, models.ScanView{Scan: *s, FileName: file.FileName, FileKey: file.FileKey})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return newerFirst(all[i].CreatedAt, all[i].ID, all[j].CreatedAt, all[j].ID)
	})

	return window(all, limit, offset), nil
}

func (m *Memory) IngestIssues(ctx context.Context, scanID int64, in models.IngestInput) (models.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scan, ok := m.scans[scanID]
	if !ok {
		return models.IngestResult{}, ErrNotFound
	}

	if in.IdempotencyKey != "" && scan.Status == models.ScanCompleted &&
		scan.IngestKey != nil && *scan.IngestKey == in.IdempotencyKey {
		return models.IngestResult{
			CreatedCount:   scan.TotalIssues,
			IssueIDs:       m.issueIDsForScan(scanID),
			SeverityCounts: scan.Counts(),
		}, nil
	}

	now := m.now()
	result := models.IngestResult{IssueIDs: []int64{}}

	for _, input := range in.Issues {
		pageID, ok := m.pagesByKey[pageKey{fileID: scan.FileID, pageID: input.PageID}]
		if !ok {
			m.log.Warnw("Page not found for issue", "scan_id", scanID, "page_id", input.PageID)
			continue
		}

		m.issueCounter++
		issue := input.NewIssue(scanID, pageID)
		issue.ID = m.issueCounter
		issue.CreatedAt = now
		issue.UpdatedAt = now
		m.issues[issue.ID] = &issue
		m.issueOrder = append(m.issueOrder, issue.ID)

		result.IssueIDs = append(result.IssueIDs, issue.ID)
		result.CreatedCount++
		result.SeverityCounts.Add(input.Severity)
	}

	scan.Complete(result.CreatedCount, result.SeverityCounts, now)
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		scan.IngestKey = &key
	}

	m.log.Infow("In-memory issues created", "scan_id", scanID, "created_count", result.CreatedCount)
	return result, nil
}

func (m *Memory) issueIDsForScan(scanID int64) []int64 {
	ids := []int64{}
	for _, id := range m.issueOrder {
		if m.issues[id].ScanID == scanID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Memory) ListIssues(ctx context.Context, f models.IssueFilter) (models.IssuePage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit, offset := normalizeWindow(f.Limit, f.Offset, DefaultIssueLimit)

	var matched []models.IssueView
	for _, id := range m.issueOrder {
		issue := m.issues[id]
		page := m.pages[issue.PageID]
		if f.FileID != nil && page.FileID != *f.FileID {
			continue
		}
		if f.Status != "" && string(issue.Status) != f.Status {
			continue
		}
		if f.Severity != "" && string(issue.Severity) != f.Severity {
			continue
		}
		if f.Category != "" && issue.Category != f.Category {
			continue
		}
		if f.AssignedTo != "" && (issue.AssignedTo == nil || *issue.AssignedTo != f.AssignedTo) {
			continue
		}
		matched = append(matched, m.view(issue))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return newerFirst(matched[i].CreatedAt, matched[i].ID, matched[j].CreatedAt, matched[j].ID)
	})

	issues := window(matched, limit, offset)
	return models.IssuePage{
		Issues: issues,
		Count:  len(issues),
		Total:  int64(len(matched)),
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (m *Memory) view(issue *models.Issue) models.IssueView {
	v := models.IssueView{Issue: *issue}
	if page, ok := m.pages[issue.PageID]; ok {
		v.PageName = page.PageName
		v.PageStringID = page.PageID
		if file, ok := m.files[page.FileID]; ok {
			v.FileName = file.FileName
			v.FileKey = file.FileKey
			v.FileURL = file.FileURL
		}
	}
	for _, c := range m.comments {
		if c.IssueID == issue.ID {
			v.CommentCount++
		}
	}
	return v
}

func (m *Memory) GetIssue(ctx context.Context, id int64) (models.IssueDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	issue, ok := m.issues[id]
	if !ok {
		return models.IssueDetail{}, ErrNotFound
	}

	comments := []models.Comment{}
	for _, c := range m.comments {
		if c.IssueID == id {
			comments = append(comments, c)
		}
	}

	return models.IssueDetail{
		Issue:       m.view(issue),
		Comments:    comments,
		Annotations: []models.Annotation{},
	}, nil
}

func (m *Memory) UpdateIssue(ctx context.Context, id int64, p models.IssuePatch) (models.IssueView, error) {
	if p.Empty() {
		return models.IssueView{}, models.ErrNoUpdates
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	issue, ok := m.issues[id]
	if !ok {
		return models.IssueView{}, ErrNotFound
	}
	issue.Apply(p, m.now())
	return m.view(issue), nil
}

func (m *Memory) AddComment(ctx context.Context, issueID int64, in models.CommentInput) (models.Comment, error) {
	in, err := in.Normalize()
	if err != nil {
		return models.Comment{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.issues[issueID]; !ok {
		return models.Comment{}, ErrNotFound
	}

	m.commentCounter++
	c := models.Comment{
		ID:        m.commentCounter,
		IssueID:   issueID,
		UserID:    in.UserID,
		UserName:  in.UserName,
		Content:   in.Content,
		CreatedAt: m.now(),
	}
	m.comments = append(m.comments, c)
	return c, nil
}

func newerFirst(at time.Time, aID int64, bt time.Time, bID int64) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return aID > bID
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if limit > len(items)-offset {
		return items[offset:]
	}
	return items[offset : offset+limit]
}
