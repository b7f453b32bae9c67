package app

import (
	"context"
	"strings"

	"studybuddy/internal/model"
)

// CatalogService answers the course/week pickers and transcript listings.
type CatalogService struct {
	transcripts TranscriptStore
}

func NewCatalogService(transcripts TranscriptStore) *CatalogService {
	return &CatalogService{transcripts: transcripts}
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]string, error) {
	courses, err := s.transcripts.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []string{}
	}
	return courses, nil
}

func (s *CatalogService) ListWeeks(ctx context.Context, courseName string) ([]int, error) {
	course := strings.TrimSpace(courseName)
	if course == "" {
		return nil, ErrInvalidInput
	}
	weeks, err := s.transcripts.ListWeeks(ctx, course)
	if err != nil {
		return nil, err
	}
	if weeks == nil {
		weeks = []int{}
	}
	return weeks, nil
}

func (s *CatalogService) ListTranscripts(ctx context.Context, filter model.TranscriptFilter) ([]model.TranscriptRecord, error) {
	filter.CourseName = strings.TrimSpace(filter.CourseName)
	records, err := s.transcripts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.TranscriptRecord{}
	}
	return records, nil
}
