package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

// rerankHits rescores up to candidates fused hits with the cross-encoder and
// returns the best topK. Without a scorer, or when any scoring call fails,
// the fused prefix of length topK is returned unchanged.
func rerankHits(
	ctx context.Context,
	scorer ports.RerankScorer,
	query string,
	fused []domain.ScoredHit,
	candidates, topK int,
	logger *slog.Logger,
) []domain.ScoredHit {
	if topK <= 0 || topK > len(fused) {
		topK = len(fused)
	}
	if scorer == nil || len(fused) == 0 {
		return trimHits(fused, topK)
	}
	if candidates <= 0 || candidates > len(fused) {
		candidates = len(fused)
	}

	rescored := make([]domain.ScoredHit, candidates)
	copy(rescored, fused[:candidates])
	for i := range rescored {
		score, err := scorer.Score(ctx, query, rescored[i].Chunk.Content)
		if err != nil {
			if logger != nil {
				logger.Warn("cross-encoder unavailable, keeping fused order", "error", err)
			}
			return trimHits(fused, topK)
		}
		rescored[i].Score = score
		rescored[i].Origin = domain.OriginReranked
	}

	sort.SliceStable(rescored, func(i, j int) bool { return rescored[i].Score > rescored[j].Score })
	return trimHits(rescored, topK)
}
