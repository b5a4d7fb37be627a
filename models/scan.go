package models

import "time"

type ScanType string

const (
	ScanTypeSinglePage ScanType = "single_page"
	ScanTypeFullFile   ScanType = "full_file"
)

func (t ScanType) Valid() bool {
	return t == ScanTypeSinglePage || t == ScanTypeFullFile
}

type ScanStatus string

const (
	ScanInProgress ScanStatus = "in_progress"
	ScanCompleted  ScanStatus = "completed"
)

// Scan counts are tallied once at ingestion and are not recomputed when
// issues are edited afterwards.
type Scan struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	FileID         int64      `gorm:"index;not null" json:"file_id"`
	InitiatedBy    *string    `json:"initiated_by"`
	ScanType       ScanType   `gorm:"not null" json:"scan_type"`
	Status         ScanStatus `gorm:"index;not null" json:"status"`
	TotalIssues    int        `json:"total_issues"`
	CriticalCount  int        `json:"critical_count"`
	HighCount      int        `json:"high_count"`
	MediumCount    int        `json:"medium_count"`
	LowCount       int        `json:"low_count"`
	IdempotencyKey *string    `gorm:"uniqueIndex" json:"-"`
	IngestKey      *string    `json:"-"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// Complete records the ingestion tallies and marks the scan completed.
func (s *Scan) Complete(created int, counts SeverityCounts, at time.Time) {
	s.Status = ScanCompleted
	s.TotalIssues = created
	s.CriticalCount = counts.Critical
	s.HighCount = counts.High
	s.MediumCount = counts.Medium
	s.LowCount = counts.Low
	s.CompletedAt = &at
}

func (s *Scan) Counts() SeverityCounts {
	return SeverityCounts{
		Critical: s.CriticalCount,
		High:     s.HighCount,
		Medium:   s.MediumCount,
		Low:      s.LowCount,
	}
}

type ScanView struct {
	Scan
	FileName        string  `json:"file_name"`
	FileKey         string  `json:"file_key"`
	InitiatedByName *string `json:"initiated_by_name"`
}

type ScanFilter struct {
	FileID *int64
	Limit  int
	Offset int
}

type ScanCreated struct {
	ScanID int64 `json:"scan_id"`
	FileID int64 `json:"file_id"`
}

type IngestResult struct {
	CreatedCount   int            `json:"created_count"`
	IssueIDs       []int64        `json:"issue_ids"`
	SeverityCounts SeverityCounts `json:"severity_counts"`
}
