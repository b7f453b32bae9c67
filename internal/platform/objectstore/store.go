package objectstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Download when the object does not exist.
var ErrNotFound = errors.New("object not found")

type Entry struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the object storage collaborator used for raw transcript files.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Download(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
	EnsureBucket(ctx context.Context) error
}
