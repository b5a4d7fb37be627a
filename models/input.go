package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError marks a request the caller must fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type PageInput struct {
	PageID   string `json:"page_id"`
	PageName string `json:"page_name"`
}

type CreateScanInput struct {
	FileKey        string      `json:"file_key"`
	FileName       string      `json:"file_name"`
	FileURL        string      `json:"file_url"`
	ScanType       ScanType    `json:"scan_type"`
	Pages          []PageInput `json:"pages"`
	InitiatedBy    *string     `json:"initiated_by"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
}

func (in CreateScanInput) Validate() error {
	if in.FileKey == "" || in.FileName == "" || in.ScanType == "" {
		return invalid("Missing required fields: file_key, file_name, scan_type")
	}
	if !in.ScanType.Valid() {
		return invalid("Invalid scan_type %q: expected %s or %s", in.ScanType, ScanTypeSinglePage, ScanTypeFullFile)
	}
	for i, p := range in.Pages {
		if p.PageID == "" {
			return invalid("pages[%d].page_id is required", i)
		}
	}
	return nil
}

type IssueInput struct {
	PageID            string   `json:"page_id"`
	ElementID         string   `json:"element_id"`
	ElementName       string   `json:"element_name"`
	Category          string   `json:"category"`
	Severity          Severity `json:"severity"`
	WCAGCriteria      string   `json:"wcag_criteria"`
	WCAGLevel         string   `json:"wcag_level"`
	Description       string   `json:"description"`
	CurrentValue      string   `json:"current_value"`
	RequiredValue     string   `json:"required_value"`
	FixRecommendation string   `json:"fix_recommendation"`
	ScreenshotURL     string   `json:"screenshot_url,omitempty"`
	LocationX         int      `json:"location_x"`
	LocationY         int      `json:"location_y"`
	FrameName         string   `json:"frame_name"`
}

// NewIssue builds an open issue for a resolved page.
func (in IssueInput) NewIssue(scanID, pageID int64) Issue {
	return Issue{
		ScanID:            scanID,
		PageID:            pageID,
		ElementID:         in.ElementID,
		ElementName:       in.ElementName,
		Category:          in.Category,
		Severity:          in.Severity,
		WCAGCriteria:      in.WCAGCriteria,
		WCAGLevel:         in.WCAGLevel,
		Description:       in.Description,
		CurrentValue:      in.CurrentValue,
		RequiredValue:     in.RequiredValue,
		FixRecommendation: in.FixRecommendation,
		ScreenshotURL:     in.ScreenshotURL,
		LocationX:         in.LocationX,
		LocationY:         in.LocationY,
		FrameName:         in.FrameName,
		Status:            StatusOpen,
	}
}

type IngestInput struct {
	Issues         []IssueInput `json:"issues"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
}

func (in IngestInput) Validate() error {
	if len(in.Issues) == 0 {
		return invalid("Issues array is required and must not be empty")
	}
	return nil
}

// IssuePatch is a partial issue update. AssignedToSet distinguishes an
// explicit null (unassign) from an absent field.
type IssuePatch struct {
	Status            *IssueStatus
	AssignedToSet     bool
	AssignedTo        *string
	Severity          *Severity
	FixRecommendation *string
}

func (p IssuePatch) Empty() bool {
	return p.Status == nil && !p.AssignedToSet && p.Severity == nil && p.FixRecommendation == nil
}

var ErrNoUpdates = &ValidationError{Message: "No updates provided"}

// ParseIssuePatch decodes a PATCH body. Unrecognized fields are ignored; a
// body without any recognized field is rejected.
func ParseIssuePatch(raw []byte) (IssuePatch, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return IssuePatch{}, invalid("Invalid JSON body")
	}

	var p IssuePatch
	if v, ok := fields["status"]; ok {
		var s IssueStatus
		if err := json.Unmarshal(v, &s); err != nil || !s.Valid() {
			return IssuePatch{}, invalid("Invalid status: expected open, in_progress, resolved or wont_fix")
		}
		p.Status = &s
	}
	if v, ok := fields["assigned_to"]; ok {
		p.AssignedToSet = true
		if !isNull(v) {
			var a string
			if err := json.Unmarshal(v, &a); err != nil {
				return IssuePatch{}, invalid("Invalid assigned_to: expected string or null")
			}
			if a = strings.TrimSpace(a); a != "" {
				p.AssignedTo = &a
			}
		}
	}
	if v, ok := fields["severity"]; ok {
		var s Severity
		if err := json.Unmarshal(v, &s); err != nil || !s.Valid() {
			return IssuePatch{}, invalid("Invalid severity: expected critical, high, medium or low")
		}
		p.Severity = &s
	}
	if v, ok := fields["fix_recommendation"]; ok {
		var f string
		if !isNull(v) {
			if err := json.Unmarshal(v, &f); err != nil {
				return IssuePatch{}, invalid("Invalid fix_recommendation: expected string")
			}
		}
		p.FixRecommendation = &f
	}

	if p.Empty() {
		return IssuePatch{}, ErrNoUpdates
	}
	return p, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

type CommentInput struct {
	Content  string  `json:"content"`
	UserName string  `json:"user_name"`
	UserID   *string `json:"user_id,omitempty"`
}

// Normalize trims content and defaults the author name.
func (in CommentInput) Normalize() (CommentInput, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return in, invalid("Comment content is required")
	}
	in.UserName = strings.TrimSpace(in.UserName)
	if in.UserName == "" {
		in.UserName = "Anonymous"
	}
	return in, nil
}
