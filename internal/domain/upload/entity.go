// internal/domain/upload/entity.go
package upload

import (
	"fmt"
	"time"
)

// UploadedFile represents an uploaded image stored on local disk
type UploadedFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PublicID     string    `gorm:"not null;size:255;uniqueIndex" json:"publicId"`
	OriginalName string    `gorm:"not null;size:255" json:"originalName"`
	Path         string    `gorm:"not null;size:500" json:"-"`
	URL          string    `gorm:"not null;size:500" json:"url"`
	MimeType     string    `gorm:"not null;size:100" json:"mimeType"`
	Format       string    `gorm:"size:10" json:"format"`
	Size         int64     `gorm:"not null" json:"size"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	UploadedBy   uint      `gorm:"not null;index" json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName overrides the table name
func (UploadedFile) TableName() string { return "uploaded_files" }

// GetFormattedSize returns human-readable file size
func (f *UploadedFile) GetFormattedSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}

	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}
