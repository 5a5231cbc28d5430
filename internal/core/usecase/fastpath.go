package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

const (
	fastSystemPrompt = "You answer Thai medical multiple-choice questions. Reply with exactly one Thai letter: ก, ข, ค or ง."

	// One worked example with a non-majority label. A strictly greedy
	// decode collapsed onto a single letter; a small positive temperature
	// plus this example breaks that bias.
	fastExampleQuestion = "Context: Patient has fever. Question: อาการของผู้ป่วยคืออะไร? ก. ไข้ ข. ปวดหัว ค. ไอ ง. เจ็บคอ"
	fastExampleAnswer   = "ก"
)

var thaiChoices = []rune{'ก', 'ข', 'ค', 'ง'}

// FastPipeline is the latency-optimized path for Thai multiple-choice
// questions. It skips the router: vector retrieval feeds a tiny constrained
// chat call whose output is normalized to a single choice letter.
type FastPipeline struct {
	vector  ports.VectorSearcher
	chatter ports.Chatter
	model   string
	topK    int
	timeout time.Duration
	metrics PipelineMetrics
	logger  *slog.Logger
}

func NewFastPipeline(
	vector ports.VectorSearcher,
	chatter ports.Chatter,
	model string,
	topK int,
	timeout time.Duration,
	metrics PipelineMetrics,
	logger *slog.Logger,
) *FastPipeline {
	if topK <= 0 {
		topK = 4
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FastPipeline{
		vector:  vector,
		chatter: chatter,
		model:   model,
		topK:    topK,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

func (p *FastPipeline) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	started := time.Now()

	retrievalStart := time.Now()
	hits, err := p.vector.Search(ctx, question, p.topK)
	p.metrics.ObserveStage("fast_retrieval", time.Since(retrievalStart))
	if err != nil {
		p.logger.Warn("fast-path retrieval failed, answering without context", "error", err)
		hits = nil
	}
	contextBlock := topContents(hits, 2)

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	synthesisStart := time.Now()
	reply, err := p.chatter.Chat(callCtx, p.model, []ports.ChatMessage{
		{Role: "system", Content: fastSystemPrompt},
		{Role: "user", Content: fastExampleQuestion},
		{Role: "assistant", Content: fastExampleAnswer},
		{Role: "user", Content: fmt.Sprintf("Context: %s Question: %s", contextBlock, question)},
	}, ports.GenerateOptions{Temperature: 0.1, MaxTokens: 2})
	p.metrics.ObserveStage("fast_synthesize", time.Since(synthesisStart))
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "fast synthesis", err)
	}

	return &domain.Answer{
		Text:      normalizeChoice(reply),
		LatencyMS: float64(time.Since(started).Microseconds()) / 1000.0,
	}, nil
}

// normalizeChoice returns the first Thai choice letter found in s, or s
// unchanged when none is present.
func normalizeChoice(s string) string {
	for _, r := range s {
		for _, choice := range thaiChoices {
			if r == choice {
				return string(choice)
			}
		}
	}
	return s
}

func topContents(hits []domain.ScoredHit, n int) string {
	if len(hits) == 0 {
		return "(no context)"
	}
	if n > len(hits) {
		n = len(hits)
	}
	parts := make([]string, 0, n)
	for _, hit := range hits[:n] {
		parts = append(parts, hit.Chunk.Content)
	}
	return strings.Join(parts, " ")
}
