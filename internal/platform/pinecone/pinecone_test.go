package pinecone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constEmbedder struct{}

func (constEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (constEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestNewRequiresSettings(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "from-env")

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "host", cfg: Config{APIKey: "pc-test"}},
		{name: "api key", cfg: Config{Host: "https://idx.svc.pinecone.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, constEmbedder{})
			assert.ErrorContains(t, err, tt.name)
		})
	}

	_, err := New(Config{Host: "https://idx.svc.pinecone.io", APIKey: "pc-test"}, nil)
	assert.ErrorContains(t, err, "embedder")
}

func TestNewBuildsStore(t *testing.T) {
	store, err := New(Config{
		Host:      "https://idx.svc.pinecone.io/",
		APIKey:    "pc-test",
		Namespace: "transcripts",
	}, constEmbedder{})
	require.NoError(t, err)
	require.NotNil(t, store)
}
