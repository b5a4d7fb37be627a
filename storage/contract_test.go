package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"a11y_tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickClock advances one second per reading so ordering by time is stable.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTickClock() *tickClock {
	return &tickClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func scanInput(key string, pages ...string) models.CreateScanInput {
	in := models.CreateScanInput{
		FileKey:  key,
		FileName: "Design " + key,
		FileURL:  "https://www.figma.com/file/" + key,
		ScanType: models.ScanTypeFullFile,
	}
	for _, p := range pages {
		in.Pages = append(in.Pages, models.PageInput{PageID: p, PageName: "Page " + p})
	}
	return in
}

func issueInput(page string, sev models.Severity) models.IssueInput {
	return models.IssueInput{
		PageID:       page,
		ElementID:    "el-" + page,
		ElementName:  "Label",
		Category:     "contrast",
		Severity:     sev,
		WCAGCriteria: "1.4.3",
		WCAGLevel:    "AA",
		Description:  "Text contrast ratio is below WCAG AA standards",
		FrameName:    "Hero",
	}
}

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("ingestion tallies severities onto the scan", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateScan(ctx, scanInput("tally", "1:1"))
		require.NoError(t, err)

		var issues []models.IssueInput
		for sev, n := range map[models.Severity]int{"critical": 2, "high": 1, "medium": 0, "low": 3} {
			for i := 0; i < n; i++ {
				issues = append(issues, issueInput("1:1", sev))
			}
		}

		res, err := s.IngestIssues(ctx, created.ScanID, models.IngestInput{Issues: issues})
		require.NoError(t, err)
		want := models.SeverityCounts{Critical: 2, High: 1, Medium: 0, Low: 3}
		assert.Equal(t, 6, res.CreatedCount)
		assert.Len(t, res.IssueIDs, 6)
		assert.Equal(t, want, res.SeverityCounts)

		scans, err := s.ListScans(ctx, models.ScanFilter{FileID: &created.FileID})
		require.NoError(t, err)
		require.Len(t, scans, 1)
		scan := scans[0]
		assert.Equal(t, models.ScanCompleted, scan.Status)
		assert.Equal(t, want, scan.Counts())
		assert.Equal(t, 6, scan.TotalIssues)
		assert.NotNil(t, scan.CompletedAt)
		assert.Equal(t, "tally", scan.FileKey)
	})

	t.Run("issues for unknown pages are skipped", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateScan(ctx, scanInput("skip", "1:1"))
		require.NoError(t, err)

		res, err := s.IngestIssues(ctx, created.ScanID, models.IngestInput{Issues: []models.IssueInput{
			issueInput("9:9", models.SeverityHigh),
			issueInput("8:8", models.SeverityLow),
		}})
		require.NoError(t, err)
		assert.Equal(t, 0, res.CreatedCount)
		assert.Empty(t, res.IssueIDs)

		page, err := s.ListIssues(ctx, models.IssueFilter{})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		assert.Empty(t, page.Issues)
	})

	t.Run("pages resolve within the scanned file only", func(t *testing.T) {
		s := newStore(t)
		_, err := s.CreateScan(ctx, scanInput("other", "1:1"))
		require.NoError(t, err)
		created, err := s.CreateScan(ctx, scanInput("mine", "2:2"))
		require.NoError(t, err)

		res, err := s.IngestIssues(ctx, created.ScanID, models.IngestInput{Issues: []models.IssueInput{
			issueInput("1:1", models.SeverityHigh),
		}})
		require.NoError(t, err)
		assert.Equal(t, 0, res.CreatedCount)
	})

	t.Run("ingesting into an unknown scan is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.IngestIssues(ctx, 4242, models.IngestInput{Issues: []models.IssueInput{issueInput("1:1", "low")}})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("file upsert keeps one file per key", func(t *testing.T) {
		s := newStore(t)
		first, err := s.CreateScan(ctx, scanInput("same", "1:1"))
		require.NoError(t, err)

		renamed := scanInput("same", "1:1", "1:2")
		renamed.FileName = "Renamed"
		second, err := s.CreateScan(ctx, renamed)
		require.NoError(t, err)

		assert.Equal(t, first.FileID, second.FileID)
		assert.NotEqual(t, first.ScanID, second.ScanID)

		scans, err := s.ListScans(ctx, models.ScanFilter{})
		require.NoError(t, err)
		require.Len(t, scans, 2)
		assert.Equal(t, second.ScanID, scans[0].ID)
		assert.Equal(t, "Renamed", scans[0].FileName)
		assert.Equal(t, models.ScanInProgress, scans[0].Status)
	})

	t.Run("issue pagination is newest first with a full total", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateScan(ctx, scanInput("page", "1:1"))
		require.NoError(t, err)

		var ids []int64
		for i := 0; i < 20; i++ {
			res, err := s.IngestIssues(ctx, created.ScanID, models.IngestInput{
				Issues: []models.IssueInput{issueInput("1:1", models.SeverityMedium)},
			})
			require.NoError(t, err)
			ids = append(ids, res.IssueIDs...)
		}

		page, err := s.ListIssues(ctx, models.IssueFilter{Limit: 10, Offset: 5})
		require.NoError(t, err)
		assert.EqualValues(t, 20, page.Total)
		assert.Equal(t, 10, page.Count)
		assert.Equal(t, 10, page.Limit)
		assert.Equal(t, 5, page.Offset)

		var got []int64
		for _, v := range page.Issues {
			got = append(got, v.ID)
		}
		var want []int64
		for i := 14; i >= 5; i-- {
			want = append(want, ids[i])
		}
		assert.Equal(t, want, got)
	})

	t.Run("issue filters", func(t *testing.T) {
		s := newStore(t)
		a, err := s.CreateScan(ctx, scanInput("fa", "1:1"))
		require.NoError(t, err)
		b, err := s.CreateScan(ctx, scanInput("fb", "2:1"))
		require.NoError(t, err)

		resA, err := s.IngestIssues(ctx, a.ScanID, models.IngestInput{Issues: []models.IssueInput{
			issueInput("1:1", models.SeverityCritical),
			issueInput("1:1", models.SeverityLow),
		}})
		require.NoError(t, err)
		touch := issueInput("2:1", models.SeverityHigh)
		touch.Category = "touch_target"
		_, err = s.IngestIssues(ctx, b.ScanID, models.IngestInput{Issues: []models.IssueInput{touch}})
		require.NoError(t, err)

		assignee := "user-7"
		_, err = s.UpdateIssue(ctx, resA.IssueIDs[1], models.IssuePatch{AssignedToSet: true, AssignedTo: &assignee})
		require.NoError(t, err)

		tests := []struct {
			name   string
			filter models.IssueFilter
			total  int64
		}{
			{name: "all", filter: models.IssueFilter{}, total: 3},
			{name: "file", filter: models.IssueFilter{FileID: &a.FileID}, total: 2},
			{name: "severity", filter: models.IssueFilter{Severity: "critical"}, total: 1},
			{name: "category", filter: models.IssueFilter{Category: "touch_target"}, total: 1},
			{name: "status", filter: models.IssueFilter{Status: "open"}, total: 3},
			{name: "assignee", filter: models.IssueFilter{AssignedTo: "user-7"}, total: 1},
			{name: "combined", filter: models.IssueFilter{FileID: &b.FileID, Severity: "critical"}, total: 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				page, err := s.ListIssues(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.total, page.Total)
				assert.Len(t, page.Issues, int(tt.total))
			})
		}
	})

	t.Run("update issue", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateScan(ctx, scanInput("upd", "1:1"))
		require.NoError(t, err)
		res, err := s.IngestIssues(ctx, created.ScanID, models.IngestInput{Issues: []models.IssueInput{
			issueInput("1:1", models.SeverityHigh),
		}})
		require.NoError(t, err)
		id := res.IssueIDs[0]

		_, err = s.UpdateIssue(ctx, id, models.IssuePatch{})
		assert.ErrorIs(t, err, models.ErrNoUpdates)

		detail, err := s.GetIssue(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOpen, detail.Issue.Status)
		assert.Nil(t, detail.Issue.ResolvedAt)

		resolved := models.StatusResolved
		low := models.SeverityLow
		fix := "Use #595959 for body text"
		view, err := s.UpdateIssue(ctx, id, models.IssuePatch{Status: &resolved, Severity: &low, FixRecommendation: &fix})
		require.NoError(t, err)
		assert.Equal(t, models.StatusResolved, view.Status)
		assert.Equal(t, models.SeverityLow, view.Severity)
		assert.Equal(t, fix, view.FixRecommendation)
		require.NotNil(t, view.ResolvedAt)
		assert.Equal(t, "Page 1:1", view.PageName)
		assert.Equal(t, "1:1", view.PageStringID)

		scans, err := s.ListScans(ctx, models.ScanFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, scans[0].HighCount, "scan tallies are not recomputed after edits")

		_, err = s.UpdateIssue(ctx, id+1000, models.IssuePatch{Status: &resolved})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("comments are persisted", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateScan(ctx, scanInput("cmt", "1:1"))
		require.NoError(t, err)
		res, err := s.IngestIssues(ctx, created.ScanID, models.IngestInput{Issues: []models.IssueInput{
			issueInput("1:1", models.SeverityHigh),
		}})
		require.NoError(t, err)
		id := res.IssueIDs[0]

		for i := 0; i < 2; i++ {
			c, err := s.AddComment(ctx, id, models.CommentInput{Content: fmt.Sprintf("  note %d ", i)})
			require.NoError(t, err)
			assert.Equal(t, "Anonymous", c.UserName)
			assert.Equal(t, fmt.Sprintf("note %d", i), c.Content)
		}

		detail, err := s.GetIssue(ctx, id)
		require.NoError(t, err)
		require.Len(t, detail.Comments, 2)
		assert.Equal(t, "note 0", detail.Comments[0].Content)
		assert.NotNil(t, detail.Annotations)
		assert.EqualValues(t, 2, detail.Issue.CommentCount)

		page, err := s.ListIssues(ctx, models.IssueFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Issues[0].CommentCount)

		_, err = s.AddComment(ctx, id+1000, models.CommentInput{Content: "x"})
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = s.GetIssue(ctx, id+1000)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("idempotent replays", func(t *testing.T) {
		s := newStore(t)
		in := scanInput("idem", "1:1")
		in.IdempotencyKey = "scan-key-1"

		first, err := s.CreateScan(ctx, in)
		require.NoError(t, err)
		again, err := s.CreateScan(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, first, again)

		ingest := models.IngestInput{
			IdempotencyKey: "ingest-key-1",
			Issues:         []models.IssueInput{issueInput("1:1", "critical"), issueInput("1:1", "low")},
		}
		r1, err := s.IngestIssues(ctx, first.ScanID, ingest)
		require.NoError(t, err)
		r2, err := s.IngestIssues(ctx, first.ScanID, ingest)
		require.NoError(t, err)
		assert.Equal(t, r1, r2)

		page, err := s.ListIssues(ctx, models.IssueFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)

		scans, err := s.ListScans(ctx, models.ScanFilter{})
		require.NoError(t, err)
		assert.Len(t, scans, 1)
	})
}
