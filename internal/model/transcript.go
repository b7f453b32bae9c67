package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FallbackLocationPrefix starts the location of a file kept in the
// file_contents table. The backend column, not the prefix, decides where a
// file lives.
const FallbackLocationPrefix = "DB_"

const (
	BackendObjectStore = "object"
	BackendDatabase    = "database"
)

type TranscriptRecord struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	CourseName      string    `gorm:"size:256;not null;index" json:"course_name"`
	WeekNumber      *int      `gorm:"index" json:"week_number"`
	TranscriptName  string    `gorm:"size:256;not null" json:"transcript_name"`
	StorageLocation string    `gorm:"column:file_path;size:512;not null" json:"storage_location"`
	StorageBackend  string    `gorm:"size:16;not null;default:object" json:"storage_backend"`
	CreatedAt       time.Time `json:"created_at"`
}

func (TranscriptRecord) TableName() string { return "transcripts" }

func (r *TranscriptRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// StoredInFallback reports whether the raw file sits in file_contents.
func (r *TranscriptRecord) StoredInFallback() bool {
	return r.StorageBackend == BackendDatabase
}

// FallbackID returns the file_contents id encoded in a fallback location.
func (r *TranscriptRecord) FallbackID() string {
	return strings.TrimPrefix(r.StorageLocation, FallbackLocationPrefix)
}

// TranscriptFilter selects transcripts by course and week. Zero values match
// everything; Weeks takes precedence over Week.
type TranscriptFilter struct {
	CourseName string
	Week       *int
	Weeks      []int
}
