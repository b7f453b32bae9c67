package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/vectorstores"

	"studybuddy/internal/model"
)

const defaultTopK = 5

const (
	metaCourseName     = "course_name"
	metaWeekNumber     = "week_number"
	metaTranscriptName = "transcript_name"
	metaTranscriptID   = "transcript_id"
)

// RetrievedChunk is a scored piece of transcript text from the vector store.
type RetrievedChunk struct {
	Text           string  `json:"text"`
	TranscriptName string  `json:"transcript_name"`
	TranscriptID   string  `json:"transcript_id"`
	Score          float32 `json:"score"`
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, filter model.TranscriptFilter, topK int) ([]RetrievedChunk, error)
}

// QueryEngine runs filtered similarity search over indexed transcript chunks.
type QueryEngine struct {
	store vectorstores.VectorStore
}

func NewQueryEngine(store vectorstores.VectorStore) *QueryEngine {
	return &QueryEngine{store: store}
}

// Retrieve returns up to topK chunks ordered by descending score.
func (e *QueryEngine) Retrieve(ctx context.Context, query string, filter model.TranscriptFilter, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	var opts []vectorstores.Option
	if f := MetadataFilter(filter); f != nil {
		opts = append(opts, vectorstores.WithFilters(f))
	}
	docs, err := e.store.SimilaritySearch(ctx, query, topK, opts...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	chunks := make([]RetrievedChunk, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		chunks = append(chunks, RetrievedChunk{
			Text:           d.PageContent,
			TranscriptName: metaString(d.Metadata, metaTranscriptName),
			TranscriptID:   metaString(d.Metadata, metaTranscriptID),
			Score:          d.Score,
		})
	}
	sort.SliceStable(chunks, func(a, b int) bool { return chunks[a].Score > chunks[b].Score })
	return chunks, nil
}

// MetadataFilter translates a transcript filter into Pinecone filter syntax.
func MetadataFilter(filter model.TranscriptFilter) map[string]any {
	out := map[string]any{}
	if filter.CourseName != "" {
		out[metaCourseName] = map[string]any{"$eq": filter.CourseName}
	}
	switch {
	case len(filter.Weeks) > 0:
		out[metaWeekNumber] = map[string]any{"$in": filter.Weeks}
	case filter.Week != nil:
		out[metaWeekNumber] = map[string]any{"$eq": *filter.Week}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func metaString(md map[string]any, key string) string {
	v, ok := md[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
