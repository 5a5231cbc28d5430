package ports

import (
	"context"
	"encoding/json"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// ChatMessage is one turn of a chat exchange with the model server.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions tunes a single completion or chat call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	Stop        []string
}

// Embedder produces dense vectors for query text. For a fixed model every
// returned vector has the same length.
type Embedder interface {
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// Completer performs single-turn text completion.
type Completer interface {
	Complete(ctx context.Context, model, prompt string, opts GenerateOptions) (string, error)
}

// Chatter performs multi-turn chat generation.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, opts GenerateOptions) (string, error)
}

// VectorSearcher runs k-NN retrieval over the configured collection.
type VectorSearcher interface {
	Search(ctx context.Context, queryText string, k int) ([]domain.ScoredHit, error)
}

// LexicalSearcher scores the query against the in-memory BM25 index.
// An absent or failed index yields an empty list, never an error.
type LexicalSearcher interface {
	Search(ctx context.Context, queryText string, k int) []domain.ScoredHit
}

// TabularStore executes read-only statements and returns ordered rows.
type TabularStore interface {
	Execute(ctx context.Context, query string) ([]domain.Record, error)
}

// LiveDataSource fetches per-patient live data, shielded by a TTL cache.
type LiveDataSource interface {
	GetLive(ctx context.Context, patientID string) (json.RawMessage, error)
}

// RerankScorer scores a (query, passage) pair with a cross-encoder model.
type RerankScorer interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}
