package usecase

import (
	"context"
	"sync"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// hybridSearch runs dense and lexical retrieval concurrently, fuses the two
// lists with RRF and optionally reranks the shortlist. A vector store
// failure degrades to lexical-only results instead of failing the tool.
func (o *Orchestrator) hybridSearch(ctx context.Context, query string, topK int) ([]domain.ScoredHit, error) {
	var (
		wg          sync.WaitGroup
		denseHits   []domain.ScoredHit
		lexicalHits []domain.ScoredHit
		denseErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseHits, denseErr = o.vector.Search(ctx, query, topK)
	}()
	go func() {
		defer wg.Done()
		if o.lexical != nil {
			lexicalHits = o.lexical.Search(ctx, query, topK)
		}
	}()
	wg.Wait()

	if denseErr != nil {
		o.logger.Warn("vector search failed inside hybrid retrieval", "error", denseErr)
		denseHits = nil
	}
	if len(denseHits) == 0 && len(lexicalHits) == 0 {
		return nil, nil
	}

	fused := fuseRRF([][]domain.ScoredHit{denseHits, lexicalHits}, o.cfg.RRFK)
	return rerankHits(ctx, o.scorer, query, fused, o.cfg.RerankCandidates, topK, o.logger), nil
}
