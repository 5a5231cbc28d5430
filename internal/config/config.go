package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

type Config struct {
	APIPort      string
	LogLevel     string
	PipelineMode domain.PipelineMode

	ModelServerBaseURL string
	RouterModel        string
	SynthesizerModel   string
	EmbeddingModel     string
	RerankerModel      string

	VectorStorePath  string
	VectorCollection string
	TabularStorePath string
	BM25IndexPath    string

	LiveDataBaseURL string
	CacheTTL        time.Duration
	CacheCapacity   int

	RouterTimeout        time.Duration
	RetrievalTimeout     time.Duration
	LiveDataTimeout      time.Duration
	SynthesisTimeout     time.Duration
	FastSynthesisTimeout time.Duration

	RAGTopK          int
	FastTopK         int
	RRFK             int
	RerankCandidates int

	APIRateLimitRPS   float64
	APIRateLimitBurst int
}

// Load reads configuration from the environment. Keys without defaults are
// required; a missing one refuses startup.
func Load() (Config, error) {
	cfg := Config{
		APIPort:      envOr("API_PORT", "8000"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		PipelineMode: domain.PipelineMode(envOr("PIPELINE_MODE", string(domain.PipelineStandard))),

		ModelServerBaseURL: envOr("MODEL_SERVER_BASE_URL", "http://localhost:11434"),
		RouterModel:        envOr("ROUTER_MODEL", "scb10x/llama3.2-typhoon2-1b-instruct:latest"),
		SynthesizerModel:   envOr("SYNTHESIZER_MODEL", "scb10x/llama3.1-typhoon2-8b-instruct:latest"),
		EmbeddingModel:     os.Getenv("EMBEDDING_MODEL"),
		RerankerModel:      os.Getenv("RERANKER_MODEL"),

		VectorStorePath:  envOr("VECTOR_STORE_PATH", "http://localhost:6333"),
		VectorCollection: envOr("VECTOR_COLLECTION", "medical_docs"),
		TabularStorePath: os.Getenv("TABULAR_STORE_PATH"),
		BM25IndexPath:    envOr("BM25_INDEX_PATH", "./data/bm25_index.json"),

		LiveDataBaseURL: envOr("LIVE_DATA_BASE_URL", "http://localhost:8080/api/v1"),
		CacheTTL:        time.Duration(envOrInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheCapacity:   envOrInt("CACHE_CAPACITY", 1000),

		RouterTimeout:        envOrMillis("ROUTER_TIMEOUT_MS", 1000),
		RetrievalTimeout:     envOrMillis("RETRIEVAL_TIMEOUT_MS", 2000),
		LiveDataTimeout:      envOrMillis("LIVE_DATA_TIMEOUT_MS", 2000),
		SynthesisTimeout:     envOrMillis("SYNTHESIS_TIMEOUT_MS", 10000),
		FastSynthesisTimeout: envOrMillis("FAST_SYNTHESIS_TIMEOUT_MS", 4000),

		RAGTopK:          envOrInt("RAG_TOP_K", 5),
		FastTopK:         envOrInt("FAST_TOP_K", 4),
		RRFK:             envOrInt("RRF_K", 60),
		RerankCandidates: envOrInt("RERANK_CANDIDATES", 20),

		APIRateLimitRPS:   envOrFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst: envOrInt("API_RATE_LIMIT_BURST", 10),
	}

	if cfg.EmbeddingModel == "" {
		return Config{}, fmt.Errorf("config: EMBEDDING_MODEL is required")
	}
	if cfg.PipelineMode != domain.PipelineStandard && cfg.PipelineMode != domain.PipelineFast {
		return Config{}, fmt.Errorf("config: PIPELINE_MODE must be standard or fast, got %q", cfg.PipelineMode)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envOrMillis(key string, fallback int) time.Duration {
	return time.Duration(envOrInt(key, fallback)) * time.Millisecond
}
