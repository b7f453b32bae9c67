package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/tmc/langchaingo/vectorstores"
)

const (
	defaultChunkSize    = 1024
	defaultChunkOverlap = 200
	defaultEmbedBatch   = 10
)

// ChunkMetadata is attached unchanged to every chunk of one transcript.
type ChunkMetadata struct {
	TranscriptID   string
	CourseName     string
	WeekNumber     *int
	TranscriptName string
}

type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

type IndexerOptions struct {
	ChunkSize          int
	ChunkOverlap       int
	EmbeddingBatchSize int
}

// Indexer splits transcript text and adds the pieces to the vector store,
// which embeds them.
type Indexer struct {
	splitter  textsplitter.RecursiveCharacter
	store     vectorstores.VectorStore
	batchSize int
}

func NewIndexer(store vectorstores.VectorStore, opts IndexerOptions) *Indexer {
	size := opts.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := opts.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	batch := opts.EmbeddingBatchSize
	if batch <= 0 {
		batch = defaultEmbedBatch
	}
	return &Indexer{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
		store:     store,
		batchSize: batch,
	}
}

// BuildChunks splits text and attaches meta to every non-blank piece.
func (i *Indexer) BuildChunks(text string, meta ChunkMetadata) ([]Chunk, error) {
	parts, err := i.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split transcript text failed: %w", err)
	}
	chunks := make([]Chunk, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, Chunk{Text: p, Metadata: meta})
	}
	return chunks, nil
}

// Index returns the number of chunks written to the vector store.
func (i *Indexer) Index(ctx context.Context, text string, meta ChunkMetadata) (int, error) {
	chunks, err := i.BuildChunks(text, meta)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]schema.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, schema.Document{
			PageContent: c.Text,
			Metadata:    documentMetadata(c.Metadata),
		})
	}

	// Each AddDocuments call embeds its batch in one request.
	added := 0
	for start := 0; start < len(docs); start += i.batchSize {
		end := start + i.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		ids, err := i.store.AddDocuments(ctx, docs[start:end])
		if err != nil {
			return added, fmt.Errorf("add chunks to vector store failed: %w", err)
		}
		added += len(ids)
	}
	return added, nil
}

func documentMetadata(meta ChunkMetadata) map[string]any {
	md := map[string]any{
		metaCourseName:     meta.CourseName,
		metaTranscriptName: meta.TranscriptName,
		metaTranscriptID:   meta.TranscriptID,
	}
	// Pinecone rejects null metadata values.
	if meta.WeekNumber != nil {
		md[metaWeekNumber] = *meta.WeekNumber
	}
	return md
}
