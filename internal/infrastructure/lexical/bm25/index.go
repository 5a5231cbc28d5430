package bm25

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// indexFile is the serialized blob produced by the offline pipeline.
type indexFile struct {
	TokenizerName string `json:"tokenizer_name"`
	BM25          struct {
		K1       float64            `json:"k1"`
		B        float64            `json:"b"`
		AvgDL    float64            `json:"avg_doc_len"`
		IDF      map[string]float64 `json:"idf"`
		DocLens  []float64          `json:"doc_len"`
		DocFreqs []map[string]int   `json:"doc_freqs"`
	} `json:"bm25"`
	Documents []domain.DocumentChunk `json:"documents"`
}

// Searcher lazily loads the index on first use. A missing or corrupt index
// file degrades every search to an empty result; it never fails a request.
type Searcher struct {
	path   string
	logger *slog.Logger

	once sync.Once
	idx  *indexFile
	tok  Tokenizer
}

func NewSearcher(path string, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{path: path, logger: logger}
}

func (s *Searcher) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("bm25 index unavailable, lexical search disabled", "path", s.path, "error", err)
		return
	}

	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		s.logger.Warn("bm25 index corrupt, lexical search disabled", "path", s.path, "error", err)
		return
	}
	if len(idx.Documents) != len(idx.BM25.DocFreqs) {
		s.logger.Warn("bm25 index documents/doc_freqs mismatch, lexical search disabled",
			"documents", len(idx.Documents), "doc_freqs", len(idx.BM25.DocFreqs))
		return
	}
	if idx.BM25.K1 <= 0 {
		idx.BM25.K1 = 1.5
	}
	if idx.BM25.B <= 0 {
		idx.BM25.B = 0.75
	}
	if idx.BM25.AvgDL <= 0 {
		idx.BM25.AvgDL = averageLength(idx.BM25.DocLens)
	}

	s.idx = &idx
	s.tok = tokenizerFor(idx.TokenizerName)
	s.logger.Info("bm25 index loaded", "path", s.path, "documents", len(idx.Documents), "tokenizer", idx.TokenizerName)
}

// Search scores every indexed document against the query and returns the
// top k hits with positive score, descending.
func (s *Searcher) Search(ctx context.Context, queryText string, k int) []domain.ScoredHit {
	s.once.Do(s.load)
	if s.idx == nil || k <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return nil
	}

	tokens := s.tok(queryText)
	if len(tokens) == 0 {
		return nil
	}

	hits := make([]domain.ScoredHit, 0, k)
	for docIdx := range s.idx.Documents {
		score := s.scoreDocument(docIdx, tokens)
		if score <= 0 {
			continue
		}
		hits = append(hits, domain.ScoredHit{
			Chunk:  s.idx.Documents[docIdx],
			Score:  score,
			Origin: domain.OriginBM25,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (s *Searcher) scoreDocument(docIdx int, queryTokens []string) float64 {
	freqs := s.idx.BM25.DocFreqs[docIdx]
	if len(freqs) == 0 {
		return 0
	}

	docLen := 0.0
	if docIdx < len(s.idx.BM25.DocLens) {
		docLen = s.idx.BM25.DocLens[docIdx]
	}
	k1 := s.idx.BM25.K1
	b := s.idx.BM25.B
	norm := k1 * (1 - b + b*docLen/s.idx.BM25.AvgDL)

	score := 0.0
	for _, token := range queryTokens {
		tf := float64(freqs[token])
		if tf == 0 {
			continue
		}
		score += s.idx.BM25.IDF[token] * tf * (k1 + 1) / (tf + norm)
	}
	return score
}

// Describe reports loader state for startup logging.
func (s *Searcher) Describe() string {
	s.once.Do(s.load)
	if s.idx == nil {
		return fmt.Sprintf("bm25 index absent (%s)", s.path)
	}
	return fmt.Sprintf("bm25 index ready (%d documents)", len(s.idx.Documents))
}

func averageLength(lens []float64) float64 {
	if len(lens) == 0 {
		return 1
	}
	total := 0.0
	for _, l := range lens {
		total += l
	}
	avg := total / float64(len(lens))
	if avg <= 0 {
		return 1
	}
	return avg
}
