package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DOTENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	for _, key := range []string{
		"OPENAI_API_KEY", "LLM_API_KEY", "PINECONE_API_KEY", "PINECONE_HOST",
		"SUPABASE_URL", "SUPABASE_KEY", "JWT_SECRET", "STORAGE_BACKEND",
		"RAG_INDEXING", "DB_DRIVER", "RAG_CHUNK_SIZE", "RAG_CHUNK_OVERLAP",
		"DATABASE_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, StorageSupabase, cfg.Storage.Backend)
	assert.Equal(t, "transcripts", cfg.Storage.Bucket)
	assert.Equal(t, "coursera-transcripts", cfg.Pinecone.Index)
	assert.Equal(t, IndexingSync, cfg.RAG.Indexing)
	assert.Equal(t, 12000, cfg.RAG.MaxContextChars)
	assert.Equal(t, 0, cfg.HTTP.RetryMax)
	assert.Len(t, cfg.Notices(), 4)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9090

[storage]
backend = "badger"

[rag]
max_context_chars = 500
indexing = "async"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PINECONE_API_KEY", "pc-test")
	t.Setenv("PINECONE_HOST", "https://index.example")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, StorageBadger, cfg.Storage.Backend)
	assert.Equal(t, 500, cfg.RAG.MaxContextChars)
	assert.Equal(t, IndexingAsync, cfg.RAG.Indexing)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Empty(t, cfg.Notices())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "storage backend", key: "STORAGE_BACKEND", val: "s3"},
		{name: "indexing mode", key: "RAG_INDEXING", val: "later"},
		{name: "database driver", key: "DB_DRIVER", val: "sqlite"},
		{name: "chunk overlap", key: "RAG_CHUNK_OVERLAP", val: "4096"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/studybuddy?parseTime=true&loc=Local&charset=utf8mb4", cfg.DatabaseDSN())

	cfg.Database.Driver = DriverPostgres
	cfg.Database.Port = 5432
	cfg.Database.Params = "sslmode=require"
	assert.Equal(t, "host=127.0.0.1 port=5432 user=root password= dbname=studybuddy sslmode=require", cfg.DatabaseDSN())

	cfg.Database.DSN = "postgres://u:p@db.supabase.co:5432/postgres"
	assert.Equal(t, "postgres://u:p@db.supabase.co:5432/postgres", cfg.DatabaseDSN())
}
