package domain

import "encoding/json"

// PipelineMode selects which answering pipeline serves a request.
type PipelineMode string

const (
	PipelineStandard PipelineMode = "standard"
	PipelineFast     PipelineMode = "fast"
)

// Intent is the closed set of tool-selection outcomes of the router.
type Intent string

const (
	IntentVectorSearch Intent = "vector_search"
	IntentSQLQuery     Intent = "sql_query"
	IntentAPILookup    Intent = "api_lookup"
	IntentHybrid       Intent = "hybrid"
)

// RankOrigin tags where a hit's score came from. Scores from different
// origins are not comparable and must be fused before ordering.
type RankOrigin string

const (
	OriginVector   RankOrigin = "vector"
	OriginBM25     RankOrigin = "bm25"
	OriginFused    RankOrigin = "fused"
	OriginReranked RankOrigin = "reranked"
)

// DocumentChunk is an immutable piece of indexed source material.
type DocumentChunk struct {
	ID      string         `json:"id"`
	Content string         `json:"content"`
	Source  string         `json:"source"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// ScoredHit is a chunk with a relevance score. Higher is more relevant.
type ScoredHit struct {
	Chunk  DocumentChunk `json:"chunk"`
	Score  float64       `json:"score"`
	Origin RankOrigin    `json:"origin"`
}

// Record is one tabular row with column order preserved.
type Record struct {
	Columns []string `json:"columns"`
	Values  []any    `json:"values"`
}

// ToolName identifies a retrieval tool in fan-out results.
type ToolName string

const (
	ToolVector ToolName = "vector_search"
	ToolSQL    ToolName = "sql_query"
	ToolLive   ToolName = "api_lookup"
)

// ToolResult is the tagged union collected by the orchestrator's fan-in.
// Exactly one of Hits, Rows, Live or Err is meaningful, selected by Tool
// and the Err field. Error variants never abort the pipeline.
type ToolResult struct {
	Tool ToolName
	Hits []ScoredHit
	Rows []Record
	Live json.RawMessage
	Err  error
}

// Answer is the final synthesized reply.
type Answer struct {
	Text      string  `json:"answer"`
	Intent    Intent  `json:"intent,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}
