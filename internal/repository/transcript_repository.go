package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studybuddy/internal/model"
)

type TranscriptRepository struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func (r *TranscriptRepository) Create(ctx context.Context, record *model.TranscriptRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create transcript failed: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) GetByID(ctx context.Context, id string) (*model.TranscriptRecord, error) {
	var record model.TranscriptRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transcript failed: %w", err)
	}
	return &record, nil
}

func (r *TranscriptRepository) ListCourses(ctx context.Context) ([]string, error) {
	var courses []string
	if err := r.db.WithContext(ctx).
		Model(&model.TranscriptRecord{}).
		Distinct("course_name").
		Order("course_name ASC").
		Pluck("course_name", &courses).Error; err != nil {
		return nil, fmt.Errorf("list courses failed: %w", err)
	}
	return courses, nil
}

// ListWeeks returns the distinct, non-null week numbers of a course in
// ascending order.
func (r *TranscriptRepository) ListWeeks(ctx context.Context, courseName string) ([]int, error) {
	var weeks []int
	if err := r.db.WithContext(ctx).
		Model(&model.TranscriptRecord{}).
		Where("course_name = ? AND week_number IS NOT NULL", courseName).
		Distinct("week_number").
		Order("week_number ASC").
		Pluck("week_number", &weeks).Error; err != nil {
		return nil, fmt.Errorf("list weeks failed: %w", err)
	}
	return weeks, nil
}

func (r *TranscriptRepository) List(ctx context.Context, filter model.TranscriptFilter) ([]model.TranscriptRecord, error) {
	q := r.db.WithContext(ctx).Model(&model.TranscriptRecord{})
	if filter.CourseName != "" {
		q = q.Where("course_name = ?", filter.CourseName)
	}
	switch {
	case len(filter.Weeks) > 0:
		q = q.Where("week_number IN ?", filter.Weeks)
	case filter.Week != nil:
		q = q.Where("week_number = ?", *filter.Week)
	}
	var list []model.TranscriptRecord
	if err := q.Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list transcripts failed: %w", err)
	}
	return list, nil
}

const backfillBatch = 500

// BackfillStorageBackend tags rows written before the storage_backend column
// existed. Only locations naming an existing file_contents row are moved to
// the database backend.
func (r *TranscriptRepository) BackfillStorageBackend(ctx context.Context) (int64, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.FileContent{}).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("list file contents failed: %w", err)
	}
	var updated int64
	for start := 0; start < len(ids); start += backfillBatch {
		end := min(start+backfillBatch, len(ids))
		locations := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			locations = append(locations, model.FallbackLocationPrefix+id)
		}
		res := r.db.WithContext(ctx).
			Model(&model.TranscriptRecord{}).
			Where("file_path IN ? AND storage_backend <> ?", locations, model.BackendDatabase).
			Update("storage_backend", model.BackendDatabase)
		if res.Error != nil {
			return updated, fmt.Errorf("backfill storage backend failed: %w", res.Error)
		}
		updated += res.RowsAffected
	}
	return updated, nil
}
