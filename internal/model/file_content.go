package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileContent keeps a base64 copy of an upload when object storage is not
// available.
type FileContent struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	CourseName     string    `gorm:"size:256;not null" json:"course_name"`
	WeekNumber     *int      `json:"week_number"`
	TranscriptName string    `gorm:"size:256;not null" json:"transcript_name"`
	FileName       string    `gorm:"size:256;not null" json:"file_name"`
	FileData       string    `gorm:"not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (FileContent) TableName() string { return "file_contents" }

func (f *FileContent) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
