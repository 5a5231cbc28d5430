package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

const (
	cannedPatientSQL = "SELECT * FROM patients LIMIT 5"
	defaultPatientID = "123"

	synthesisSystemPrompt = "You are a helpful Thai-English medical assistant. Answer based ONLY on context."
	answerInThai          = " Answer in Thai."

	// Returned to the client when the synthesizer itself is down. Timeouts
	// surface as errors instead.
	synthesisUnavailableAnswer = "Unable to generate an answer right now, please try again later."
)

// OrchestratorConfig carries the per-stage budgets and retrieval knobs.
type OrchestratorConfig struct {
	SynthesizerModel string
	RetrievalTimeout time.Duration
	LiveDataTimeout  time.Duration
	SynthesisTimeout time.Duration
	TopK             int
	RRFK             int
	RerankCandidates int
}

func (c OrchestratorConfig) normalize() OrchestratorConfig {
	out := c
	if out.RetrievalTimeout <= 0 {
		out.RetrievalTimeout = 2 * time.Second
	}
	if out.LiveDataTimeout <= 0 {
		out.LiveDataTimeout = 2 * time.Second
	}
	if out.SynthesisTimeout <= 0 {
		out.SynthesisTimeout = 10 * time.Second
	}
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.RRFK <= 0 {
		out.RRFK = 60
	}
	if out.RerankCandidates <= 0 {
		out.RerankCandidates = 20
	}
	return out
}

// Orchestrator runs the standard pipeline: classify, fan out to the selected
// tools, aggregate the evidence, synthesize a grounded answer.
type Orchestrator struct {
	router  *IntentRouter
	vector  ports.VectorSearcher
	lexical ports.LexicalSearcher
	tabular ports.TabularStore
	live    ports.LiveDataSource
	chatter ports.Chatter
	scorer  ports.RerankScorer
	cfg     OrchestratorConfig
	metrics PipelineMetrics
	logger  *slog.Logger
}

func NewOrchestrator(
	router *IntentRouter,
	vector ports.VectorSearcher,
	lexical ports.LexicalSearcher,
	tabular ports.TabularStore,
	live ports.LiveDataSource,
	chatter ports.Chatter,
	scorer ports.RerankScorer,
	cfg OrchestratorConfig,
	metrics PipelineMetrics,
	logger *slog.Logger,
) *Orchestrator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		router:  router,
		vector:  vector,
		lexical: lexical,
		tabular: tabular,
		live:    live,
		chatter: chatter,
		scorer:  scorer,
		cfg:     cfg.normalize(),
		metrics: metrics,
		logger:  logger,
	}
}

type toolCall struct {
	name    domain.ToolName
	timeout time.Duration
	run     func(ctx context.Context) domain.ToolResult
}

func (o *Orchestrator) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	started := time.Now()

	classifyStart := time.Now()
	intent := o.router.Classify(ctx, question)
	o.metrics.ObserveStage("classify", time.Since(classifyStart))
	o.metrics.ObserveIntent(intent)
	o.logger.Info("intent classified", "intent", intent)

	fanOutStart := time.Now()
	results := o.fanOut(ctx, o.selectTools(intent, question))
	o.metrics.ObserveStage("fan_out", time.Since(fanOutStart))

	contextBlock := o.aggregate(results)

	synthesisStart := time.Now()
	answerText, err := o.synthesize(ctx, question, contextBlock)
	o.metrics.ObserveStage("synthesize", time.Since(synthesisStart))
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:      answerText,
		Intent:    intent,
		LatencyMS: float64(time.Since(started).Microseconds()) / 1000.0,
	}, nil
}

func (o *Orchestrator) selectTools(intent domain.Intent, question string) []toolCall {
	tools := make([]toolCall, 0, 3)

	if intent == domain.IntentAPILookup || intent == domain.IntentHybrid {
		patientID := extractPatientID(question)
		tools = append(tools, toolCall{
			name:    domain.ToolLive,
			timeout: o.cfg.LiveDataTimeout,
			run: func(ctx context.Context) domain.ToolResult {
				payload, err := o.live.GetLive(ctx, patientID)
				return domain.ToolResult{Tool: domain.ToolLive, Live: payload, Err: err}
			},
		})
	}

	if intent == domain.IntentVectorSearch || intent == domain.IntentHybrid {
		hybrid := intent == domain.IntentHybrid
		tools = append(tools, toolCall{
			name:    domain.ToolVector,
			timeout: o.cfg.RetrievalTimeout,
			run: func(ctx context.Context) domain.ToolResult {
				var hits []domain.ScoredHit
				var err error
				if hybrid {
					hits, err = o.hybridSearch(ctx, question, o.cfg.TopK)
				} else {
					hits, err = o.vector.Search(ctx, question, o.cfg.TopK)
				}
				return domain.ToolResult{Tool: domain.ToolVector, Hits: hits, Err: err}
			},
		})
	}

	if intent == domain.IntentSQLQuery || intent == domain.IntentHybrid {
		tools = append(tools, toolCall{
			name:    domain.ToolSQL,
			timeout: o.cfg.RetrievalTimeout,
			run: func(ctx context.Context) domain.ToolResult {
				if o.tabular == nil {
					return domain.ToolResult{Tool: domain.ToolSQL, Err: domain.WrapError(domain.ErrTabularStore, "tabular query", errors.New("store not configured"))}
				}
				rows, err := o.tabular.Execute(ctx, cannedPatientSQL)
				return domain.ToolResult{Tool: domain.ToolSQL, Rows: rows, Err: err}
			},
		})
	}

	return tools
}

// fanOut runs every selected tool concurrently under its own deadline. A
// failing tool becomes an error-variant result and never cancels its peers.
func (o *Orchestrator) fanOut(ctx context.Context, tools []toolCall) []domain.ToolResult {
	results := make([]domain.ToolResult, len(tools))

	var wg sync.WaitGroup
	for i, tool := range tools {
		wg.Add(1)
		go func(i int, tool toolCall) {
			defer wg.Done()
			toolCtx, cancel := context.WithTimeout(ctx, tool.timeout)
			defer cancel()
			results[i] = tool.run(toolCtx)
		}(i, tool)
	}
	wg.Wait()

	for _, result := range results {
		outcome := "ok"
		if result.Err != nil {
			outcome = "error"
			o.logger.Warn("tool failed", "tool", result.Tool, "error", result.Err)
		}
		o.metrics.ObserveTool(result.Tool, outcome)
	}
	return results
}

// aggregate concatenates all successful tool outputs into one context block,
// each section labeled with its origin.
func (o *Orchestrator) aggregate(results []domain.ToolResult) string {
	var b strings.Builder
	for _, result := range results {
		if result.Err != nil {
			continue
		}
		switch result.Tool {
		case domain.ToolVector:
			if len(result.Hits) == 0 {
				continue
			}
			b.WriteString("[" + string(result.Tool) + "]\n")
			for _, hit := range result.Hits {
				fmt.Fprintf(&b, "- (source=%s) %s\n", hit.Chunk.Source, hit.Chunk.Content)
			}
		case domain.ToolSQL:
			if len(result.Rows) == 0 {
				continue
			}
			b.WriteString("[" + string(result.Tool) + "]\n")
			b.WriteString(strings.Join(result.Rows[0].Columns, " | ") + "\n")
			for _, row := range result.Rows {
				parts := make([]string, len(row.Values))
				for i, v := range row.Values {
					parts[i] = fmt.Sprintf("%v", v)
				}
				b.WriteString(strings.Join(parts, " | ") + "\n")
			}
		case domain.ToolLive:
			if len(result.Live) == 0 {
				continue
			}
			b.WriteString("[" + string(result.Tool) + "]\n")
			b.Write(result.Live)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (o *Orchestrator) synthesize(ctx context.Context, question, contextBlock string) (string, error) {
	system := synthesisSystemPrompt
	if wantsThaiAnswer(question) {
		system += answerInThai
	}
	if contextBlock == "" {
		contextBlock = "(no data retrieved)"
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.SynthesisTimeout)
	defer cancel()

	reply, err := o.chatter.Chat(callCtx, o.cfg.SynthesizerModel, []ports.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", contextBlock, question)},
	}, ports.GenerateOptions{Temperature: 0.1})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", domain.WrapError(domain.ErrModelUnavailable, "synthesis", err)
		}
		o.logger.Error("synthesis failed", "error", err)
		return synthesisUnavailableAnswer, nil
	}
	return reply, nil
}

// extractPatientID returns the first digit-only token of the query, or the
// default id when none is present.
func extractPatientID(query string) string {
	for _, field := range strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ':' || r == ','
	}) {
		if field == "" {
			continue
		}
		digitsOnly := true
		for _, r := range field {
			if r < '0' || r > '9' {
				digitsOnly = false
				break
			}
		}
		if digitsOnly {
			return field
		}
	}
	return defaultPatientID
}

func wantsThaiAnswer(query string) bool {
	if strings.Contains(query, "Thai") {
		return true
	}
	for _, r := range query {
		if r >= 0x0E00 && r <= 0x0E7F {
			return true
		}
	}
	return false
}
