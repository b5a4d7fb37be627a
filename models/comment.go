package models

import "time"

type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	IssueID   int64     `gorm:"index;not null" json:"issue_id"`
	UserID    *string   `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Annotations are read-only from the API.
type Annotation struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	IssueID       int64     `gorm:"index;not null" json:"issue_id"`
	CreatedBy     *string   `json:"created_by"`
	CreatedByName *string   `gorm:"-:migration;->" json:"created_by_name"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}
