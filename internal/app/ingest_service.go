package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"studybuddy/internal/model"
	"studybuddy/internal/pkg/pdfextract"
	"studybuddy/internal/platform/objectstore"
)

const pdfContentType = "application/pdf"

type StorageMode string

const (
	// StoragePrimary uploads to object storage and falls back to the table on failure.
	StoragePrimary StorageMode = "primary"
	// StorageFallback always writes base64 rows to file_contents.
	StorageFallback StorageMode = "fallback"
)

type IndexingMode string

const (
	IndexingSync     IndexingMode = "sync"
	IndexingAsync    IndexingMode = "async"
	IndexingDisabled IndexingMode = "disabled"
)

type IngestOptions struct {
	Storage  StorageMode
	Indexing IndexingMode
}

type IngestService struct {
	transcripts TranscriptStore
	files       FileContentStore
	objects     objectstore.Store
	indexer     DocumentIndexer
	publisher   IndexJobPublisher
	opts        IngestOptions
	logger      *zap.Logger
}

type DocumentIndexer interface {
	Index(ctx context.Context, text string, meta ChunkMetadata) (int, error)
}

func NewIngestService(
	transcripts TranscriptStore,
	files FileContentStore,
	objects objectstore.Store,
	indexer DocumentIndexer,
	publisher IndexJobPublisher,
	opts IngestOptions,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if objects == nil {
		opts.Storage = StorageFallback
	}
	if opts.Storage == "" {
		opts.Storage = StoragePrimary
	}
	switch opts.Indexing {
	case IndexingSync:
		if indexer == nil {
			opts.Indexing = IndexingDisabled
		}
	case IndexingAsync:
		if publisher == nil {
			opts.Indexing = IndexingDisabled
		}
	default:
		opts.Indexing = IndexingDisabled
	}
	return &IngestService{
		transcripts: transcripts,
		files:       files,
		objects:     objects,
		indexer:     indexer,
		publisher:   publisher,
		opts:        opts,
		logger:      logger,
	}
}

func (s *IngestService) Options() IngestOptions {
	return s.opts
}

type IngestInput struct {
	Data           []byte
	FileName       string
	CourseName     string
	WeekNumber     *int
	TranscriptName string
}

type IngestResult struct {
	Transcript       model.TranscriptRecord `json:"transcript"`
	StoredInFallback bool                   `json:"stored_in_fallback"`
	Indexing         IndexingMode           `json:"indexing"`
	ChunkCount       int                    `json:"chunk_count"`
	IndexQueued      bool                   `json:"index_queued"`
	IndexError       string                 `json:"index_error,omitempty"`
}

// Ingest extracts, stores, records and indexes one transcript PDF.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	course := strings.TrimSpace(input.CourseName)
	name := strings.TrimSpace(input.TranscriptName)
	fileName := filepath.Base(strings.TrimSpace(input.FileName))
	if course == "" || name == "" || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if input.WeekNumber != nil && *input.WeekNumber < 1 {
		return nil, ErrInvalidInput
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are accepted", ErrInvalidInput)
	}

	text, err := pdfextract.ExtractText(input.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}

	location, backend, err := s.store(ctx, course, input.WeekNumber, name, fileName, input.Data)
	if err != nil {
		return nil, err
	}

	record := &model.TranscriptRecord{
		CourseName:      course,
		WeekNumber:      input.WeekNumber,
		TranscriptName:  name,
		StorageLocation: location,
		StorageBackend:  backend,
	}
	if err := s.transcripts.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	result := &IngestResult{
		Transcript:       *record,
		StoredInFallback: record.StoredInFallback(),
		Indexing:         s.opts.Indexing,
	}
	s.index(ctx, record, text, result)
	return result, nil
}

// store returns the location and backend that hold the uploaded bytes.
func (s *IngestService) store(ctx context.Context, course string, week *int, name, fileName string, data []byte) (string, string, error) {
	if s.opts.Storage == StoragePrimary {
		key := StorageKey(course, week, fileName)
		err := s.objects.Upload(ctx, key, data, pdfContentType)
		if err == nil {
			return key, model.BackendObjectStore, nil
		}
		s.logger.Warn("object storage upload failed, using table fallback",
			zap.String("path", key), zap.Error(err))
	}

	content := &model.FileContent{
		CourseName:     course,
		WeekNumber:     week,
		TranscriptName: name,
		FileName:       fileName,
		FileData:       base64.StdEncoding.EncodeToString(data),
	}
	if err := s.files.Create(ctx, content); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return model.FallbackLocationPrefix + content.ID, model.BackendDatabase, nil
}

func (s *IngestService) index(ctx context.Context, record *model.TranscriptRecord, text string, result *IngestResult) {
	switch s.opts.Indexing {
	case IndexingSync:
		n, err := s.indexer.Index(ctx, text, metadataFor(record))
		if err != nil {
			s.logger.Warn("index transcript failed",
				zap.String("transcript_id", record.ID), zap.Error(err))
			result.IndexError = err.Error()
			return
		}
		result.ChunkCount = n
	case IndexingAsync:
		job := model.IndexJob{
			TranscriptID:   record.ID,
			CourseName:     record.CourseName,
			WeekNumber:     record.WeekNumber,
			TranscriptName: record.TranscriptName,
		}
		if err := s.publisher.PublishIndexJob(ctx, job); err != nil {
			s.logger.Warn("publish index job failed",
				zap.String("transcript_id", record.ID), zap.Error(err))
			result.IndexError = err.Error()
			return
		}
		result.IndexQueued = true
	}
}

// StorageKey is the object path for an upload: <course>_<week>_<file>, or
// <course>_<file> without a week.
func StorageKey(course string, week *int, fileName string) string {
	if week == nil {
		return fmt.Sprintf("%s_%s", course, fileName)
	}
	return fmt.Sprintf("%s_%d_%s", course, *week, fileName)
}

type DownloadResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Download returns the original bytes of a stored transcript.
func (s *IngestService) Download(ctx context.Context, transcriptID string) (*DownloadResult, error) {
	record, err := s.transcripts.GetByID(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTranscriptNotFound
	}
	return s.fetch(ctx, record)
}

// StoredFiles lists the bucket contents. It is empty when uploads go to the
// database fallback.
func (s *IngestService) StoredFiles(ctx context.Context) ([]objectstore.Entry, error) {
	if s.objects == nil {
		return []objectstore.Entry{}, nil
	}
	entries, err := s.objects.List(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []objectstore.Entry{}
	}
	return entries, nil
}

// TranscriptText downloads a stored transcript and extracts its text.
func (s *IngestService) TranscriptText(ctx context.Context, record *model.TranscriptRecord) (string, error) {
	file, err := s.fetch(ctx, record)
	if err != nil {
		return "", err
	}
	text, err := pdfextract.ExtractText(file.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	return text, nil
}

func (s *IngestService) fetch(ctx context.Context, record *model.TranscriptRecord) (*DownloadResult, error) {
	if record.StoredInFallback() {
		content, err := s.files.GetByID(ctx, record.FallbackID())
		if err != nil {
			return nil, err
		}
		if content == nil {
			return nil, fmt.Errorf("%w: fallback content %s missing", ErrTranscriptNotFound, record.FallbackID())
		}
		data, err := base64.StdEncoding.DecodeString(content.FileData)
		if err != nil {
			return nil, fmt.Errorf("decode fallback content failed: %w", err)
		}
		return &DownloadResult{FileName: content.FileName, ContentType: pdfContentType, Data: data}, nil
	}

	if s.objects == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrTranscriptNotFound)
	}
	data, err := s.objects.Download(ctx, record.StorageLocation)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, record.StorageLocation)
	}
	if err != nil {
		return nil, err
	}
	return &DownloadResult{FileName: record.StorageLocation, ContentType: pdfContentType, Data: data}, nil
}

func metadataFor(record *model.TranscriptRecord) ChunkMetadata {
	return ChunkMetadata{
		TranscriptID:   record.ID,
		CourseName:     record.CourseName,
		WeekNumber:     record.WeekNumber,
		TranscriptName: record.TranscriptName,
	}
}

// IndexStored indexes an already stored transcript; used by the index worker.
func (s *IngestService) IndexStored(ctx context.Context, job model.IndexJob) (int, error) {
	if s.indexer == nil {
		return 0, errors.New("indexer is not configured")
	}
	record, err := s.transcripts.GetByID(ctx, job.TranscriptID)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, ErrTranscriptNotFound
	}
	text, err := s.TranscriptText(ctx, record)
	if err != nil {
		return 0, err
	}
	return s.indexer.Index(ctx, text, metadataFor(record))
}
