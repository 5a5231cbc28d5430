package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

func TestEmbedDimensionInvariant(t *testing.T) {
	dims := []int{3, 3, 4}
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vec := make([]float32, dims[call])
		call++
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	}))
	defer server.Close()

	client := New(server.URL, nil)

	first, err := client.Embed(context.Background(), "m", "a")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := client.Embed(context.Background(), "m", "b")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected stable dimension, got %d and %d", len(first), len(second))
	}

	if _, err := client.Embed(context.Background(), "m", "c"); !domain.IsKind(err, domain.ErrModelProtocol) {
		t.Fatalf("expected ErrModelProtocol on dimension change, got %v", err)
	}
}

func TestEmbedEmptyVectorIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	}))
	defer server.Close()

	client := New(server.URL, nil)
	if _, err := client.Embed(context.Background(), "m", "a"); !domain.IsKind(err, domain.ErrModelProtocol) {
		t.Fatalf("expected ErrModelProtocol, got %v", err)
	}
}

func TestCompleteMapsServerErrorToModelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, nil)
	_, err := client.Complete(context.Background(), "m", "p", ports.GenerateOptions{})
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestCompleteMalformedBodyIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(server.URL, nil)
	_, err := client.Complete(context.Background(), "m", "p", ports.GenerateOptions{})
	if !domain.IsKind(err, domain.ErrModelProtocol) {
		t.Fatalf("expected ErrModelProtocol, got %v", err)
	}
}

func TestChatSendsOptionsAndReturnsContent(t *testing.T) {
	var got struct {
		Model    string              `json:"model"`
		Messages []ports.ChatMessage `json:"messages"`
		Stream   bool                `json:"stream"`
		Options  map[string]any      `json:"options"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"content": "ก. ไข้"}})
	}))
	defer server.Close()

	client := New(server.URL, nil)
	reply, err := client.Chat(context.Background(), "typhoon", []ports.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "q"},
	}, ports.GenerateOptions{Temperature: 0.1, MaxTokens: 2})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "ก. ไข้" {
		t.Fatalf("expected verbatim reply, got %q", reply)
	}
	if got.Stream {
		t.Fatalf("expected stream=false")
	}
	if got.Options["num_predict"] != float64(2) {
		t.Fatalf("expected num_predict=2, got %v", got.Options["num_predict"])
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages payload: %+v", got.Messages)
	}
}

func TestEmbedRespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Embed(ctx, "m", "a"); err == nil {
		t.Fatalf("expected error on canceled context")
	}
}
