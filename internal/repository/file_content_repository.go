package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studybuddy/internal/model"
)

type FileContentRepository struct {
	db *gorm.DB
}

func NewFileContentRepository(db *gorm.DB) *FileContentRepository {
	return &FileContentRepository{db: db}
}

func (r *FileContentRepository) Create(ctx context.Context, content *model.FileContent) error {
	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("create file content failed: %w", err)
	}
	return nil
}

func (r *FileContentRepository) GetByID(ctx context.Context, id string) (*model.FileContent, error) {
	var content model.FileContent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get file content failed: %w", err)
	}
	return &content, nil
}
