package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

type liveFake struct {
	payload   json.RawMessage
	err       error
	patientID string
}

func (f *liveFake) GetLive(_ context.Context, patientID string) (json.RawMessage, error) {
	f.patientID = patientID
	return f.payload, f.err
}

type tabularFake struct {
	rows  []domain.Record
	err   error
	query string
}

func (f *tabularFake) Execute(_ context.Context, query string) ([]domain.Record, error) {
	f.query = query
	return f.rows, f.err
}

type vectorFake struct {
	hits []domain.ScoredHit
	err  error
	k    int
}

func (f *vectorFake) Search(_ context.Context, _ string, k int) ([]domain.ScoredHit, error) {
	f.k = k
	return f.hits, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestFetchPatientDataReturnsPayload(t *testing.T) {
	live := &liveFake{payload: json.RawMessage(`{"id":"456","status":"stable"}`)}
	s := NewServer(live, &tabularFake{}, &vectorFake{}, 5)

	res, err := s.fetchPatientData(context.Background(), callRequest(map[string]any{"patient_id": "456"}))
	if err != nil {
		t.Fatalf("fetchPatientData() error = %v", err)
	}
	if live.patientID != "456" {
		t.Fatalf("patient id not forwarded, got %q", live.patientID)
	}
	if got := resultText(t, res); !strings.Contains(got, `"status":"stable"`) {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestFetchPatientDataMissingArgument(t *testing.T) {
	s := NewServer(&liveFake{}, &tabularFake{}, &vectorFake{}, 5)

	res, err := s.fetchPatientData(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler must report tool errors in-band, got %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result for missing patient_id")
	}
}

func TestQuerySQLEncodesRows(t *testing.T) {
	tabular := &tabularFake{rows: []domain.Record{
		{Columns: []string{"id", "name"}, Values: []any{"1", "Somchai"}},
	}}
	s := NewServer(&liveFake{}, tabular, &vectorFake{}, 5)

	res, err := s.querySQL(context.Background(), callRequest(map[string]any{"query": "SELECT id, name FROM patients"}))
	if err != nil {
		t.Fatalf("querySQL() error = %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Somchai" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestQuerySQLRejectedWriteSurfacesToolError(t *testing.T) {
	tabular := &tabularFake{err: domain.WrapError(domain.ErrTabularWriteRejected, "execute", errors.New("write"))}
	s := NewServer(&liveFake{}, tabular, &vectorFake{}, 5)

	res, err := s.querySQL(context.Background(), callRequest(map[string]any{"query": "DROP TABLE patients"}))
	if err != nil {
		t.Fatalf("handler must report tool errors in-band, got %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result for rejected write")
	}
}

func TestQueryVectorUsesConfiguredTopK(t *testing.T) {
	vector := &vectorFake{hits: []domain.ScoredHit{
		{Chunk: domain.DocumentChunk{ID: "1", Content: "fever guidance", Source: "kb"}, Score: 0.9, Origin: domain.OriginVector},
	}}
	s := NewServer(&liveFake{}, &tabularFake{}, vector, 7)

	res, err := s.queryVector(context.Background(), callRequest(map[string]any{"query": "ไข้"}))
	if err != nil {
		t.Fatalf("queryVector() error = %v", err)
	}
	if vector.k != 7 {
		t.Fatalf("expected configured top-k 7, got %d", vector.k)
	}
	if got := resultText(t, res); !strings.Contains(got, "fever guidance") {
		t.Fatalf("unexpected hits %q", got)
	}
}
