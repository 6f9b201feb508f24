package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/policyrag/internal/config"
	"github.com/markdave123-py/policyrag/internal/core"
	db "github.com/markdave123-py/policyrag/internal/core/database"
	"github.com/markdave123-py/policyrag/internal/core/ingestion_engine"
	"github.com/markdave123-py/policyrag/internal/core/ingestion_engine/tesseract"
	"github.com/markdave123-py/policyrag/internal/core/llm"
	objectclient "github.com/markdave123-py/policyrag/internal/core/object-client"
	"github.com/markdave123-py/policyrag/internal/core/ratelimit"
	"github.com/markdave123-py/policyrag/internal/models"
	"github.com/markdave123-py/policyrag/internal/services"
)

// App holds the long-lived clients of one process. The rate controller inside
// Embedder is shared by every embedding call the process makes.
type App struct {
	Config       *config.Config
	DBClient     *db.DatabaseClient
	ObjectClient core.ObjectClient // nil unless S3 is configured
	Embedder     *llm.EmbeddingClient
	Extractor    *ingestion_engine.SmartExtractor
	Chunker      *ingestion_engine.Chunker

	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	chunker, err := ingestion_engine.NewChunker(cfg.ChunkChars, cfg.ChunkOverlap, cfg.ChunkMinChars)
	if err != nil {
		return nil, err
	}

	provider, closeProvider, err := newEmbeddingProvider(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}
	log.Printf("Embedding provider %s (model %s, dim %d, concurrency %d, min delay %s, retries %d); chat model %s",
		cfg.EmbedProvider, provider.ModelName(), cfg.EmbedDim, cfg.EmbedConcurrency, cfg.MinDelay, cfg.MaxRetries, cfg.ChatModel)

	a := &App{Config: cfg, Chunker: chunker}
	a.closers = append(a.closers, closeProvider)

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.DBClient = dbClient
	a.closers = append(a.closers, dbClient.Close)
	log.Println("Database connected.")

	if cfg.SourceBucket != "" || cfg.UploadBucket != "" {
		objClient, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.ObjectClient = objClient
		log.Println("Object client initialized and ready.")
	}

	ctrl := ratelimit.NewController(ratelimit.Config{
		MaxConcurrent: cfg.EmbedConcurrency,
		MinDelay:      cfg.MinDelay,
		MaxAttempts:   cfg.MaxRetries,
	})
	a.Embedder = llm.NewEmbeddingClient(provider, ctrl)

	ocr := ingestion_engine.NewOCRPipeline(
		ingestion_engine.PdftoppmRasterizer{Bin: cfg.PdftoppmPath},
		tesseract.NewFactory(cfg.TessdataDir, cfg.OCRLanguages),
		cfg.OCRDPI,
	)
	a.Extractor = ingestion_engine.NewSmartExtractor(ocr, cfg.OCRMinTextChars)

	return a, nil
}

func newEmbeddingProvider(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, func() error, error) {
	switch cfg.EmbedProvider {
	case config.ProviderGemini:
		g, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case config.ProviderOpenAI:
		o, err := llm.NewOpenAIEmbedder(cfg.EmbedBaseURL, cfg.EmbedAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, nil, err
		}
		return o, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown EMBED_PROVIDER %q", core.ErrConfiguration, cfg.EmbedProvider)
	}
}

// DocumentSource picks the batch source: the S3 prefix when SOURCE_BUCKET is
// set, otherwise PDF_DIR.
func (a *App) DocumentSource() (core.DocumentSource, error) {
	if a.Config.SourceBucket != "" {
		if a.ObjectClient == nil {
			return nil, fmt.Errorf("%w: SOURCE_BUCKET set but S3 is not configured", core.ErrConfiguration)
		}
		log.Printf("Source: s3://%s/%s", a.Config.SourceBucket, a.Config.SourcePrefix)
		return objectclient.NewS3Source(a.ObjectClient, a.Config.SourceBucket, a.Config.SourcePrefix), nil
	}
	src, err := objectclient.NewDirSource(a.Config.PDFDir)
	if err != nil {
		return nil, err
	}
	log.Printf("Source: PDF_DIR = %s", src.Root())
	return src, nil
}

// NewIngestor builds a driver over src (nil for upload-only use).
func (a *App) NewIngestor(src core.DocumentSource) *ingestion_engine.DocumentIngestor {
	return ingestion_engine.NewDocumentIngestor(a.DBClient, src, a.Extractor, a.Embedder, a.Chunker,
		ingestion_engine.IngestConfig{SkipIngested: a.Config.SkipIngested})
}

// RunIngestion ingests every PDF of the configured source once.
func (a *App) RunIngestion(ctx context.Context) (models.RunStats, error) {
	src, err := a.DocumentSource()
	if err != nil {
		return models.RunStats{}, err
	}
	return a.NewIngestor(src).Run(ctx)
}

// NewAPIServer wires the HTTP surface with a background upload worker.
func (a *App) NewAPIServer(ctx context.Context) (*Server, error) {
	if err := a.DBClient.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	ing := a.NewIngestor(nil)
	ing.Start(ctx)

	docs := services.NewDocumentService(a.ObjectClient, a.Config.UploadBucket, ing)
	return NewServer(a.Config, a.DBClient, a.Embedder, docs), nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("App: close: %v", err)
		}
	}
	a.closers = nil
}
