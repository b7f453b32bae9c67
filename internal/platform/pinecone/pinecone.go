package pinecone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores/pinecone"
)

type Config struct {
	Host      string
	APIKey    string
	Namespace string
}

// New returns the Pinecone vector store for transcript chunks. The store
// embeds documents and queries with embedder.
func New(cfg Config, embedder embeddings.Embedder) (*pinecone.Store, error) {
	host := strings.TrimSuffix(strings.TrimSpace(cfg.Host), "/")
	if host == "" {
		return nil, errors.New("pinecone host is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("pinecone api key is required")
	}
	if embedder == nil {
		return nil, errors.New("pinecone embedder is required")
	}

	opts := []pinecone.Option{
		pinecone.WithHost(host),
		pinecone.WithAPIKey(cfg.APIKey),
		pinecone.WithEmbedder(embedder),
	}
	if cfg.Namespace != "" {
		opts = append(opts, pinecone.WithNameSpace(cfg.Namespace))
	}
	store, err := pinecone.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create pinecone store failed: %w", err)
	}
	return &store, nil
}
