package livedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
)

// Client fetches live patient data from the upstream service. Successful
// responses are held in a capacity-bounded TTL cache; failures are never
// cached, so the cache stays a pure performance shield.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, json.RawMessage]
	onLookup   func(cacheHit bool)
}

func New(baseURL string, timeout time.Duration, capacity int, ttl time.Duration, onLookup func(cacheHit bool)) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if onLookup == nil {
		onLookup = func(bool) {}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      expirable.NewLRU[string, json.RawMessage](capacity, nil, ttl),
		onLookup:   onLookup,
	}
}

// GetLive returns the live JSON payload for patientID, from cache when a
// fresh entry exists, otherwise via HTTP GET.
func (c *Client) GetLive(ctx context.Context, patientID string) (json.RawMessage, error) {
	if cached, ok := c.cache.Get(patientID); ok {
		c.onLookup(true)
		return cached, nil
	}
	c.onLookup(false)

	url := fmt.Sprintf("%s/patients/%s", c.baseURL, patientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "live data", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "live data", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "live data",
			fmt.Errorf("upstream status: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "live data", err)
	}
	if !json.Valid(body) {
		return nil, domain.WrapError(domain.ErrUpstreamUnavailable, "live data",
			fmt.Errorf("upstream returned invalid json"))
	}

	payload := json.RawMessage(body)
	c.cache.Add(patientID, payload)
	return payload, nil
}
