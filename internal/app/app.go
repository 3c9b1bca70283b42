package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/config"
	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/core/analysis_engine"
	db "github.com/medscanlabs/mediscan/internal/core/database"
	ingestion "github.com/medscanlabs/mediscan/internal/core/ingestion_engine"
	"github.com/medscanlabs/mediscan/internal/core/llm"
	"github.com/medscanlabs/mediscan/internal/core/objectstore"
	"github.com/medscanlabs/mediscan/internal/core/vectorindex"
	"github.com/medscanlabs/mediscan/internal/services"
)

// App wires every component together: storage, providers, the
// ingestion pipeline, the analysis engine and the HTTP server.
type App struct {
	DBClient *db.DatabaseClient
	Ingestor *ingestion.DocumentIngestor
	Server   *Server

	cfg    *config.Config
	logger *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	logger.Info("database initialized")

	objClient, err := objectstore.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	logger.Info("object storage initialized")

	embedder, err := buildEmbedder(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.GeminiAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("init language model: %w", err)
	}

	ocrEngine, err := buildOCR(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init OCR engine: %w", err)
	}

	index, err := buildVectorIndex(appCtx, cfg, dbClient, logger)
	if err != nil {
		return nil, fmt.Errorf("init vector index: %w", err)
	}
	logger.Info("vector index ready", zap.String("backend", cfg.VectorBackend))

	extractor := ingestion.NewTextExtractor(ocrEngine, cfg.MinTextChars, logger)
	embedGen := ingestion.NewEmbeddingGenerator(embedder, cfg.EmbedDim, cfg.MaxEmbedChars, cfg.MinTextChars)

	ingestor := ingestion.NewDocumentIngestor(dbClient, objClient, extractor, embedGen, index, &ingestion.IngestConfig{}, logger)

	analyzer := analysis_engine.NewAnalysisEngine(dbClient, index, llmProvider, time.Duration(cfg.ModelTimeout)*time.Second, logger)

	if cfg.AnalyzeOnIngest {
		ingestor.SetCompletionHook(func(hookCtx context.Context, reportID string) {
			if _, err := analyzer.Analyze(hookCtx, reportID); err != nil {
				logger.Warn("automatic analysis failed",
					zap.String("report_id", reportID), zap.Error(err))
			}
		})
	}

	reportSvc := services.NewReportService(dbClient, objClient, index, ingestor, cfg.BucketName, logger)
	dashboardSvc := services.NewDashboardService(dbClient, logger)

	server := NewServer(cfg, reportSvc, dashboardSvc, analyzer, logger)

	return &App{
		DBClient: dbClient,
		Ingestor: ingestor,
		Server:   server,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Start launches the ingestion workers. The HTTP server is started
// separately so main controls its shutdown.
func (a *App) Start(ctx context.Context) {
	a.Ingestor.Start(ctx, a.cfg.IngestWorkers)
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, error) {
	switch cfg.EmbedProvider {
	case "openai":
		return llm.NewOpenAIEmbedder(llm.OpenAIEmbedderConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbedModel,
			Dimensions: cfg.EmbedDim,
		}), nil
	case "gemini":
		return llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}

func buildOCR(ctx context.Context, cfg *config.Config) (core.OCREngine, error) {
	switch cfg.OCRProvider {
	case "gemini":
		return llm.NewGeminiOCR(ctx, cfg.GeminiAPIKey, cfg.OCRModel)
	case "local":
		return llm.NewLocalOCR(), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCRProvider)
	}
}

func buildVectorIndex(ctx context.Context, cfg *config.Config, dbClient *db.DatabaseClient, logger *zap.Logger) (core.VectorIndex, error) {
	switch cfg.VectorBackend {
	case "pinecone":
		client, err := vectorindex.NewPineconeClient(vectorindex.PineconeConfig{APIKey: cfg.PineconeAPIKey})
		if err != nil {
			return nil, err
		}
		return vectorindex.NewPineconeIndex(ctx, client, cfg.PineconeIndexName, cfg.PineconeIndexHost, cfg.EmbedDim, logger)
	case "pgvector":
		return vectorindex.NewPgvectorIndex(dbClient.DB(), cfg.EmbedDim), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
