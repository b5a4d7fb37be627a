package models

import (
	"time"

	"gorm.io/gorm"
)

// File is a design file, identified by the design tool's file key.
type File struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	FileKey       string    `gorm:"uniqueIndex;not null" json:"file_key"`
	FileName      string    `gorm:"not null" json:"file_name"`
	FileURL       string    `gorm:"column:file_url" json:"file_url"`
	LastScannedAt time.Time `json:"last_scanned_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type Page struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	FileID        int64     `gorm:"uniqueIndex:idx_pages_file_page;not null" json:"file_id"`
	PageID        string    `gorm:"uniqueIndex:idx_pages_file_page;not null" json:"page_id"`
	PageName      string    `json:"page_name"`
	LastScannedAt time.Time `json:"last_scanned_at"`
}

type User struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Name  string `json:"name"`
	Email string `gorm:"uniqueIndex" json:"email"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&File{}, &Page{}, &User{}, &Scan{}, &Issue{}, &Comment{}, &Annotation{})
}
