package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
	"github.com/pongchanan/Healthcare-AI/internal/infrastructure/resilience"
)

// Client talks to an Ollama-compatible model server. It implements the
// Embedder, Completer and Chatter ports.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor

	dimMu sync.Mutex
	dims  map[string]int
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
		dims:       make(map[string]int),
	}
}

// Embed returns the dense vector for text under model. The vector length is
// a property of the model, learned on the first successful call; later calls
// returning a different length fail with a protocol error.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float32, error) {
	request := map[string]any{
		"model":  model,
		"prompt": text,
	}

	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.call(ctx, "embeddings", "/api/embeddings", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embedding) == 0 {
		return nil, domain.WrapError(domain.ErrModelProtocol, "embeddings", fmt.Errorf("empty embedding for model %s", model))
	}

	c.dimMu.Lock()
	defer c.dimMu.Unlock()
	if known, ok := c.dims[model]; ok && known != len(response.Embedding) {
		return nil, domain.WrapError(domain.ErrModelProtocol, "embeddings",
			fmt.Errorf("model %s returned %d-dim vector, expected %d", model, len(response.Embedding), known))
	}
	c.dims[model] = len(response.Embedding)
	return response.Embedding, nil
}

// Complete performs a single-turn text completion.
func (c *Client) Complete(ctx context.Context, model, prompt string, opts ports.GenerateOptions) (string, error) {
	request := map[string]any{
		"model":   model,
		"prompt":  prompt,
		"stream":  false,
		"options": encodeOptions(opts),
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, "generate", "/api/generate", request, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

// Chat performs a multi-turn chat exchange and returns the reply verbatim.
func (c *Client) Chat(ctx context.Context, model string, messages []ports.ChatMessage, opts ports.GenerateOptions) (string, error) {
	request := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   false,
		"options":  encodeOptions(opts),
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := c.call(ctx, "chat", "/api/chat", request, &response); err != nil {
		return "", err
	}
	return response.Message.Content, nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	if c.executor == nil {
		return c.postJSON(ctx, path, payload, out, operation)
	}
	err := c.executor.Execute(ctx, "ollama_"+operation, func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}, classifyModelError)
	return wrapTemporaryIfNeeded(operation, err)
}

func encodeOptions(opts ports.GenerateOptions) map[string]any {
	options := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(opts.Stop) > 0 {
		options["stop"] = opts.Stop
	}
	return options
}
