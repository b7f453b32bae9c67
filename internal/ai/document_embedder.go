package ai

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
)

var _ embeddings.Embedder = (*DocumentEmbedder)(nil)

// DocumentEmbedder exposes the embeddings endpoint as a langchaingo
// embeddings.Embedder so vector stores can embed documents and queries.
type DocumentEmbedder struct {
	client    *OpenAICompatibleClient
	cfg       EmbeddingConfig
	batchSize int
}

func NewDocumentEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig, batchSize int) *DocumentEmbedder {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &DocumentEmbedder{client: client, cfg: cfg, batchSize: batchSize}
}

// EmbedDocuments embeds texts in request-sized batches, keeping input order.
func (e *DocumentEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.client.EmbedBatch(ctx, e.cfg, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *DocumentEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.client.Embed(ctx, e.cfg, text)
}
