package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/pongchanan/Healthcare-AI/internal/config"
	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
	"github.com/pongchanan/Healthcare-AI/internal/core/usecase"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/lexical/bm25"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/livedata"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/llm/ollama"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/rerank"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/resilience"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/tabular"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/vector/qdrant"
	"github.com/pongchanan/Healthcare-AI/internal/observability/metrics"
)

// App wires the configured pipeline. Answerer is either the standard
// orchestrator or the fast multiple-choice pipeline depending on
// PIPELINE_MODE.
type App struct {
	Config  config.Config
	Metrics *metrics.Metrics

	Answerer ports.AnswerService

	Live    ports.LiveDataSource
	Tabular ports.TabularStore
	Vector  ports.VectorSearcher

	db *sqlx.DB
}

func New(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	modelClient := ollama.New(cfg.ModelServerBaseURL, executor)

	retriever := qdrant.NewRetriever(
		cfg.VectorStorePath,
		cfg.VectorCollection,
		modelClient,
		cfg.EmbeddingModel,
		true,
		logger,
	)

	lexical := bm25.NewSearcher(cfg.BM25IndexPath, logger)
	logger.Info("lexical search ready", "state", lexical.Describe())

	var onLookup func(bool)
	if m != nil {
		onLookup = m.ObserveCacheLookup
	}
	live := livedata.New(cfg.LiveDataBaseURL, cfg.LiveDataTimeout, cfg.CacheCapacity, cfg.CacheTTL, onLookup)

	var db *sqlx.DB
	var store ports.TabularStore
	if cfg.TabularStorePath != "" {
		opened, err := tabular.Open(cfg.TabularStorePath)
		if err != nil {
			return nil, fmt.Errorf("open tabular store: %w", err)
		}
		db = opened
		store = tabular.NewStore(db)
	} else {
		logger.Warn("tabular store not configured, sql_query tool disabled")
	}

	var scorer ports.RerankScorer
	if cfg.RerankerModel != "" {
		scorer = rerank.NewCrossEncoder(modelClient, cfg.RerankerModel)
	}

	// Avoid handing a typed nil to the pipeline's interface field.
	var pipelineMetrics usecase.PipelineMetrics
	if m != nil {
		pipelineMetrics = m
	}

	var answerer ports.AnswerService
	if cfg.PipelineMode == domain.PipelineFast {
		answerer = usecase.NewFastPipeline(
			retriever,
			modelClient,
			cfg.SynthesizerModel,
			cfg.FastTopK,
			cfg.FastSynthesisTimeout,
			pipelineMetrics,
			logger,
		)
	} else {
		router := usecase.NewIntentRouter(modelClient, cfg.RouterModel, cfg.RouterTimeout, logger)
		answerer = usecase.NewOrchestrator(
			router,
			retriever,
			lexical,
			store,
			live,
			modelClient,
			scorer,
			usecase.OrchestratorConfig{
				SynthesizerModel: cfg.SynthesizerModel,
				RetrievalTimeout: cfg.RetrievalTimeout,
				LiveDataTimeout:  cfg.LiveDataTimeout,
				SynthesisTimeout: cfg.SynthesisTimeout,
				TopK:             cfg.RAGTopK,
				RRFK:             cfg.RRFK,
				RerankCandidates: cfg.RerankCandidates,
			},
			pipelineMetrics,
			logger,
		)
	}

	return &App{
		Config:   cfg,
		Metrics:  m,
		Answerer: answerer,
		Live:     live,
		Tabular:  store,
		Vector:   retriever,
		db:       db,
	}, nil
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
