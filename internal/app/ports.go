package app

import (
	"context"

	"studybuddy/internal/ai"
	"studybuddy/internal/model"
)

type TranscriptStore interface {
	Create(ctx context.Context, record *model.TranscriptRecord) error
	GetByID(ctx context.Context, id string) (*model.TranscriptRecord, error)
	ListCourses(ctx context.Context) ([]string, error)
	ListWeeks(ctx context.Context, courseName string) ([]int, error)
	List(ctx context.Context, filter model.TranscriptFilter) ([]model.TranscriptRecord, error)
}

type FileContentStore interface {
	Create(ctx context.Context, content *model.FileContent) error
	GetByID(ctx context.Context, id string) (*model.FileContent, error)
}

type ChatCompleter interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

type IndexJobPublisher interface {
	PublishIndexJob(ctx context.Context, job model.IndexJob) error
}

type ChatLog interface {
	Start(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Append(ctx context.Context, sessionID string, messages ...model.ChatMessage) error
	History(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	Recent(ctx context.Context, sessionID string, n int) ([]model.ChatMessage, error)
	End(ctx context.Context, sessionID string) error
}
