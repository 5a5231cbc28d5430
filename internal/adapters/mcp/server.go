package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

// Server exposes the retrieval tools over the Model Context Protocol so
// external agents can call them directly, bypassing the HTTP pipeline.
type Server struct {
	live    ports.LiveDataSource
	tabular ports.TabularStore
	vector  ports.VectorSearcher
	topK    int
	mcp     *server.MCPServer
}

func NewServer(live ports.LiveDataSource, tabular ports.TabularStore, vector ports.VectorSearcher, topK int) *Server {
	if topK <= 0 {
		topK = 5
	}
	s := &Server{
		live:    live,
		tabular: tabular,
		vector:  vector,
		topK:    topK,
	}

	s.mcp = server.NewMCPServer("healthcare-ai", "1.0.0", server.WithToolCapabilities(false))

	s.mcp.AddTool(
		mcp.NewTool("fetch_patient_data",
			mcp.WithDescription("Fetch live vitals and status for a patient by id."),
			mcp.WithString("patient_id", mcp.Required(), mcp.Description("Numeric patient identifier.")),
		),
		s.fetchPatientData,
	)
	s.mcp.AddTool(
		mcp.NewTool("query_sql",
			mcp.WithDescription("Run a read-only SQL query against the patient records store."),
			mcp.WithString("query", mcp.Required(), mcp.Description("SELECT statement to execute.")),
		),
		s.querySQL,
	)
	s.mcp.AddTool(
		mcp.NewTool("query_vector",
			mcp.WithDescription("Semantic search over the medical knowledge base."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Natural language query, Thai or English.")),
		),
		s.queryVector,
	)

	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) fetchPatientData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patientID, err := req.RequireString("patient_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := s.live.GetLive(ctx, strings.TrimSpace(patientID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch patient data: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) querySQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := s.tabular.Execute(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query sql: %v", err)), nil
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(row.Columns))
		for i, column := range row.Columns {
			record[column] = row.Values[i]
		}
		out = append(out, record)
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode rows: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

func (s *Server) queryVector(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hits, err := s.vector.Search(ctx, query, s.topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query vector: %v", err)), nil
	}

	type hitOut struct {
		ID      string  `json:"id"`
		Content string  `json:"content"`
		Source  string  `json:"source,omitempty"`
		Score   float64 `json:"score"`
	}
	out := make([]hitOut, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hitOut{
			ID:      hit.Chunk.ID,
			Content: hit.Chunk.Content,
			Source:  hit.Chunk.Source,
			Score:   hit.Score,
		})
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode hits: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
