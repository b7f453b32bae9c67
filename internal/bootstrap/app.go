package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/vectorstores"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studybuddy/internal/ai"
	"studybuddy/internal/app"
	"studybuddy/internal/cache"
	"studybuddy/internal/config"
	databaseClient "studybuddy/internal/platform/database"
	"studybuddy/internal/platform/httpclient"
	"studybuddy/internal/platform/objectstore"
	"studybuddy/internal/platform/pinecone"
	rabbitmqClient "studybuddy/internal/platform/rabbitmq"
	redisClient "studybuddy/internal/platform/redis"
	"studybuddy/internal/repository"
	"studybuddy/internal/worker"
)

// Features records which parts of the API can serve requests with the
// current configuration.
type Features struct {
	Query        bool   `json:"query"`
	Sessions     bool   `json:"sessions"`
	VectorSearch bool   `json:"vector_search"`
	Indexing     string `json:"indexing"`
	Storage      string `json:"storage"`
}

type Services struct {
	Ingest   *app.IngestService
	Query    *app.QueryService
	Catalog  *app.CatalogService
	Sessions *app.SessionService
}

type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Objects     objectstore.Store
	Vectors     vectorstores.VectorStore
	IndexWorker *worker.IndexWorker
	Services    Services
	Features    Features
	Notices     []string

	StartedAt time.Time
	badger    *objectstore.BadgerStore
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Notices:   cfg.Notices(),
		StartedAt: time.Now(),
	}

	db, err := databaseClient.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	a.DB = db

	if err := a.openObjectStore(); err != nil {
		_ = a.Close()
		return nil, err
	}

	httpClient := httpclient.New(time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second, cfg.HTTP.RetryMax)

	llmClient := ai.NewOpenAICompatibleClient(httpClient)
	embConfig := ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	}
	chatConfig := ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	a.Features.Query = cfg.LLM.APIKey != ""

	var (
		indexer   app.DocumentIndexer
		retriever app.Retriever
	)
	if cfg.LLM.APIKey != "" && cfg.Pinecone.APIKey != "" && cfg.Pinecone.Host != "" {
		embedder := ai.NewDocumentEmbedder(llmClient, embConfig, cfg.RAG.EmbeddingBatchSize)
		store, err := pinecone.New(pinecone.Config{
			Host:      cfg.Pinecone.Host,
			APIKey:    cfg.Pinecone.APIKey,
			Namespace: cfg.Pinecone.Namespace,
		}, embedder)
		if err != nil {
			logger.Warn("pinecone unavailable, vector search disabled", zap.Error(err))
			a.Notices = append(a.Notices, "pinecone store could not be created: vector indexing is disabled")
		} else {
			a.Vectors = store
			indexer = app.NewIndexer(store, app.IndexerOptions{
				ChunkSize:          cfg.RAG.ChunkSize,
				ChunkOverlap:       cfg.RAG.ChunkOverlap,
				EmbeddingBatchSize: cfg.RAG.EmbeddingBatchSize,
			})
			retriever = app.NewQueryEngine(store)
			a.Features.VectorSearch = true
		}
	}

	var chatLog app.ChatLog
	if cfg.Auth.JWTSecret != "" {
		redisCli, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, chat sessions disabled", zap.Error(err))
			a.Notices = append(a.Notices, "redis is unreachable: chat sessions are disabled")
		} else {
			a.Redis = redisCli
			chatLog = cache.NewSessionStore(redisCli, time.Duration(cfg.Redis.SessionTTLSeconds)*time.Second)
			a.Features.Sessions = true
		}
	}

	transcriptRepo := repository.NewTranscriptRepository(db)
	fileRepo := repository.NewFileContentRepository(db)

	indexing := a.indexingMode(ctx, indexer != nil)
	var publisher app.IndexJobPublisher
	if indexing == app.IndexingAsync {
		publisher = rabbitmqClient.NewIndexJobPublisher(a.MQConn, cfg.RabbitMQ.IndexQueue)
	}

	storage := app.StoragePrimary
	if a.Objects == nil {
		storage = app.StorageFallback
	}
	a.Services.Ingest = app.NewIngestService(
		transcriptRepo,
		fileRepo,
		a.Objects,
		indexer,
		publisher,
		app.IngestOptions{Storage: storage, Indexing: indexing},
		logger.Named("ingest"),
	)
	a.Services.Query = app.NewQueryService(
		transcriptRepo,
		retriever,
		a.Services.Ingest,
		llmClient,
		chatConfig,
		chatLog,
		app.QueryOptions{
			MaxContextChars: cfg.RAG.MaxContextChars,
			MaxHistory:      cfg.LLM.MaxContextMessage,
		},
		logger.Named("query"),
	)
	a.Services.Catalog = app.NewCatalogService(transcriptRepo)
	if chatLog != nil {
		a.Services.Sessions = app.NewSessionService(
			chatLog,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		)
	}

	a.Features.Indexing = string(a.Services.Ingest.Options().Indexing)
	a.Features.Storage = string(a.Services.Ingest.Options().Storage)

	if a.MQConn != nil {
		a.IndexWorker = worker.NewIndexWorker(a.MQConn, a.Services.Ingest, cfg.RabbitMQ.IndexQueue, logger.Named("worker"))
		if err := a.IndexWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start index worker failed: %w", err)
		}
	}

	for _, n := range a.Notices {
		logger.Warn("configuration notice", zap.String("notice", n))
	}
	logger.Info("application wired",
		zap.Bool("query", a.Features.Query),
		zap.Bool("sessions", a.Features.Sessions),
		zap.Bool("vector_search", a.Features.VectorSearch),
		zap.String("indexing", a.Features.Indexing),
		zap.String("storage", a.Features.Storage),
	)
	return a, nil
}

func (a *App) openObjectStore() error {
	cfg := a.Config.Storage
	switch cfg.Backend {
	case config.StorageSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil
		}
		a.Objects = objectstore.NewSupabaseStore(objectstore.SupabaseConfig{
			URL:    cfg.SupabaseURL,
			APIKey: cfg.SupabaseKey,
			Bucket: cfg.Bucket,
		})
	case config.StorageBadger:
		store, err := objectstore.OpenBadger(cfg.BadgerPath, cfg.Bucket)
		if err != nil {
			return err
		}
		a.badger = store
		a.Objects = store
	}
	return nil
}

// indexingMode resolves the configured mode against what is reachable.
func (a *App) indexingMode(ctx context.Context, canIndex bool) app.IndexingMode {
	if !canIndex {
		return app.IndexingDisabled
	}
	switch a.Config.RAG.Indexing {
	case config.IndexingDisabled:
		return app.IndexingDisabled
	case config.IndexingAsync:
		conn, err := rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL, a.Config.RabbitMQ.IndexQueue)
		if err != nil {
			a.Logger.Warn("rabbitmq unavailable, indexing inline", zap.Error(err))
			a.Notices = append(a.Notices, "rabbitmq is unreachable: transcripts are indexed during upload")
			return app.IndexingSync
		}
		a.MQConn = conn
		return app.IndexingAsync
	default:
		return app.IndexingSync
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.IndexWorker != nil {
		a.IndexWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.badger != nil {
		if err := a.badger.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
