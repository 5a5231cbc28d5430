package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

type fusedCandidate struct {
	hit       domain.ScoredHit
	score     float64
	firstSeen int
}

// fuseRRF merges ranked lists with Reciprocal Rank Fusion. Documents are
// identified by a hash of their chunk content, so duplicates across lists
// collapse before fusion. Ties are broken by first appearance across the
// input lists, which makes the output deterministic for identical inputs.
func fuseRRF(lists [][]domain.ScoredHit, rrfK int) []domain.ScoredHit {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]*fusedCandidate)
	order := make([]string, 0, 16)
	seen := 0

	for _, list := range lists {
		rank := 0
		inList := make(map[string]struct{}, len(list))
		for _, hit := range list {
			key := contentKey(hit.Chunk)
			if _, dup := inList[key]; dup {
				continue
			}
			inList[key] = struct{}{}

			candidate, ok := acc[key]
			if !ok {
				candidate = &fusedCandidate{hit: hit, firstSeen: seen}
				seen++
				acc[key] = candidate
				order = append(order, key)
			}
			candidate.score += 1.0 / float64(rrfK+rank+1)
			rank++
		}
	}

	out := make([]domain.ScoredHit, 0, len(order))
	for _, key := range order {
		candidate := acc[key]
		hit := candidate.hit
		hit.Score = candidate.score
		hit.Origin = domain.OriginFused
		out = append(out, hit)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return acc[contentKey(out[i].Chunk)].firstSeen < acc[contentKey(out[j].Chunk)].firstSeen
	})
	return out
}

func contentKey(chunk domain.DocumentChunk) string {
	sum := sha256.Sum256([]byte(chunk.Content))
	return hex.EncodeToString(sum[:])
}

func trimHits(hits []domain.ScoredHit, limit int) []domain.ScoredHit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}
