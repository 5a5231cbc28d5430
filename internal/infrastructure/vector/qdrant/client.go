package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

const queryPrefix = "search_query: "

// Retriever embeds the query and runs k-NN search over one collection.
type Retriever struct {
	baseURL        string
	collection     string
	embedder       ports.Embedder
	embeddingModel string
	prefixQueries  bool
	httpClient     *http.Client
	logger         *slog.Logger
}

func NewRetriever(baseURL, collection string, embedder ports.Embedder, embeddingModel string, prefixQueries bool, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		baseURL:        strings.TrimRight(baseURL, "/"),
		collection:     collection,
		embedder:       embedder,
		embeddingModel: embeddingModel,
		prefixQueries:  prefixQueries,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		logger:         logger,
	}
}

// Search returns the top k hits by cosine similarity, descending. Embedding
// failure degrades to an empty result instead of failing the pipeline.
func (r *Retriever) Search(ctx context.Context, queryText string, k int) ([]domain.ScoredHit, error) {
	text := queryText
	if r.prefixQueries {
		text = queryPrefix + queryText
	}

	vector, err := r.embedder.Embed(ctx, r.embeddingModel, text)
	if err != nil {
		r.logger.Warn("query embedding failed, skipping vector search", "error", err)
		return nil, nil
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.WrapError(domain.ErrVectorStore, "vector search", fmt.Errorf("marshal search body: %w", err))
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", r.baseURL, r.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.ErrVectorStore, "vector search", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrVectorStore, "vector search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrVectorStore, "vector search", fmt.Errorf("qdrant search status: %s", resp.Status))
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, domain.WrapError(domain.ErrVectorStore, "vector search", fmt.Errorf("decode search response: %w", err))
	}

	out := make([]domain.ScoredHit, 0, len(searchResp.Result))
	for _, point := range searchResp.Result {
		out = append(out, domain.ScoredHit{
			Chunk:  chunkFromPayload(point.Payload),
			Score:  point.Score,
			Origin: domain.OriginVector,
		})
	}
	return out, nil
}

func chunkFromPayload(payload map[string]any) domain.DocumentChunk {
	chunk := domain.DocumentChunk{
		ID:      payloadString(payload, "id"),
		Content: payloadString(payload, "content"),
		Source:  payloadString(payload, "source"),
	}
	for key, value := range payload {
		switch key {
		case "id", "content", "source":
		default:
			if chunk.Extra == nil {
				chunk.Extra = make(map[string]any)
			}
			chunk.Extra[key] = value
		}
	}
	return chunk
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
