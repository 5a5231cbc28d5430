package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

func TestHybridSearchFusesBothSources(t *testing.T) {
	f := defaultFixture()
	f.vector.hits = []domain.ScoredHit{
		hit("v1", "dense only", domain.OriginVector),
		hit("s1", "shared chunk", domain.OriginVector),
	}
	f.lexical.hits = []domain.ScoredHit{
		hit("s1", "shared chunk", domain.OriginBM25),
		hit("l1", "lexical only", domain.OriginBM25),
	}
	orchestrator := newOrchestrator(t, f)

	hits, err := orchestrator.hybridSearch(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("hybridSearch() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 fused hits, got %d", len(hits))
	}
	// The chunk seen by both retrievers accumulates two RRF terms.
	if hits[0].Chunk.Content != "shared chunk" {
		t.Fatalf("expected shared chunk first, got %q", hits[0].Chunk.Content)
	}
}

func TestHybridSearchVectorFailureDegradesToLexical(t *testing.T) {
	f := defaultFixture()
	f.vector.err = domain.WrapError(domain.ErrVectorStore, "search", errors.New("down"))
	f.lexical.hits = []domain.ScoredHit{hit("l1", "lexical only", domain.OriginBM25)}
	orchestrator := newOrchestrator(t, f)

	hits, err := orchestrator.hybridSearch(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("hybridSearch() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Chunk.Content != "lexical only" {
		t.Fatalf("expected lexical-only degradation, got %v", hits)
	}
}

func TestHybridSearchBothEmptyYieldsNoHits(t *testing.T) {
	f := defaultFixture()
	f.vector.hits = nil
	orchestrator := newOrchestrator(t, f)

	hits, err := orchestrator.hybridSearch(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("hybridSearch() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}
