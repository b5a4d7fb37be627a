package models

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusWontFix    IssueStatus = "wont_fix"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusWontFix:
		return true
	}
	return false
}

type Issue struct {
	ID                int64       `gorm:"primaryKey" json:"id"`
	ScanID            int64       `gorm:"index;not null" json:"scan_id"`
	PageID            int64       `gorm:"index;not null" json:"page_id"`
	ElementID         string      `json:"element_id"`
	ElementName       string      `json:"element_name"`
	Category          string      `gorm:"index" json:"category"`
	Severity          Severity    `gorm:"index" json:"severity"`
	WCAGCriteria      string      `gorm:"column:wcag_criteria" json:"wcag_criteria"`
	WCAGLevel         string      `gorm:"column:wcag_level" json:"wcag_level"`
	Description       string      `json:"description"`
	CurrentValue      string      `json:"current_value"`
	RequiredValue     string      `json:"required_value"`
	FixRecommendation string      `json:"fix_recommendation"`
	ScreenshotURL     string      `gorm:"column:screenshot_url" json:"screenshot_url"`
	LocationX         int         `json:"location_x"`
	LocationY         int         `json:"location_y"`
	FrameName         string      `json:"frame_name"`
	Status            IssueStatus `gorm:"index;not null" json:"status"`
	AssignedTo        *string     `gorm:"index" json:"assigned_to"`
	CreatedAt         time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	ResolvedAt        *time.Time  `json:"resolved_at"`
}

// Apply mutates the issue according to p. Setting status to resolved stamps
// ResolvedAt with now.
func (i *Issue) Apply(p IssuePatch, now time.Time) {
	if p.Status != nil {
		i.Status = *p.Status
		if *p.Status == StatusResolved {
			i.ResolvedAt = &now
		}
	}
	if p.AssignedToSet {
		i.AssignedTo = p.AssignedTo
	}
	if p.Severity != nil {
		i.Severity = *p.Severity
	}
	if p.FixRecommendation != nil {
		i.FixRecommendation = *p.FixRecommendation
	}
	i.UpdatedAt = now
}

// IssueView is an issue joined with its page, file, assignee and comment count.
type IssueView struct {
	Issue
	PageName       string  `json:"page_name"`
	PageStringID   string  `json:"page_string_id"`
	FileName       string  `json:"file_name"`
	FileKey        string  `json:"file_key"`
	FileURL        string  `gorm:"column:file_url" json:"file_url"`
	AssignedToName *string `json:"assigned_to_name"`
	CommentCount   int64   `json:"comment_count"`
}

type IssueFilter struct {
	FileID     *int64
	Status     string
	Severity   string
	Category   string
	AssignedTo string
	Limit      int
	Offset     int
}

type IssuePage struct {
	Issues []IssueView `json:"issues"`
	Count  int         `json:"count"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type IssueDetail struct {
	Issue       IssueView    `json:"issue"`
	Comments    []Comment    `json:"comments"`
	Annotations []Annotation `json:"annotations"`
}

type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Add counts s; unknown severities are ignored.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	}
}
