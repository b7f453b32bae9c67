package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

const listPageSize = 1000

// SupabaseStore keeps transcripts in a Supabase Storage bucket.
type SupabaseStore struct {
	client *storage.Client
	bucket string
}

type SupabaseConfig struct {
	URL    string
	APIKey string
	Bucket string
}

func NewSupabaseStore(cfg SupabaseConfig) *SupabaseStore {
	endpoint := strings.TrimRight(cfg.URL, "/") + "/storage/v1"
	return &SupabaseStore{
		client: storage.NewClient(endpoint, cfg.APIKey, map[string]string{"apikey": cfg.APIKey}),
		bucket: cfg.Bucket,
	}
}

func (s *SupabaseStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("storage upload %s failed: %w", path, err)
	}
	return nil
}

func (s *SupabaseStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, path)
	if err != nil {
		if isNotFound(err.Error()) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage download %s failed: %w", path, err)
	}
	// Error bodies can come back as data; a stored PDF never parses as one.
	if apiErr, ok := parseStorageError(data); ok {
		if isNotFound(apiErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage download %s failed: %s", path, apiErr)
	}
	return data, nil
}

func (s *SupabaseStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := s.client.ListFiles(s.bucket, "", storage.FileSearchOptions{
		Limit:         listPageSize,
		SortByOptions: storage.SortBy{Column: "name", Order: "asc"},
	})
	if err != nil {
		return nil, fmt.Errorf("storage list failed: %w", err)
	}
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entry := Entry{Name: f.Name}
		if md, ok := f.Metadata.(map[string]interface{}); ok {
			if size, ok := md["size"].(float64); ok {
				entry.Size = int64(size)
			}
		}
		if t, err := time.Parse(time.RFC3339, f.UpdatedAt); err == nil {
			entry.UpdatedAt = t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EnsureBucket creates the bucket as private when it does not exist yet.
func (s *SupabaseStore) EnsureBucket(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bucket, err := s.client.GetBucket(s.bucket)
	if err == nil && bucket.Id != "" {
		return nil
	}
	if err != nil && !isNotFound(err.Error()) {
		return fmt.Errorf("bucket lookup failed: %w", err)
	}
	if _, err := s.client.CreateBucket(s.bucket, storage.BucketOptions{Public: false}); err != nil {
		return fmt.Errorf("bucket create failed: %w", err)
	}
	return nil
}

// Supabase reports missing objects and buckets with a "not found" message,
// sometimes under a 400 status.
func isNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not_found") || strings.Contains(lower, "not found")
}

func parseStorageError(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var body struct {
		StatusCode string `json:"statusCode"`
		Error      string `json:"error"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil || body.StatusCode == "" {
		return "", false
	}
	return strings.TrimSpace(body.Error + ": " + body.Message), true
}

var _ Store = (*SupabaseStore)(nil)
