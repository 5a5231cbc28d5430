package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
	"github.com/pongchanan/Healthcare-AI/internal/observability/metrics"
)

type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	answerer ports.AnswerService
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      RouterConfig
}

func NewRouter(answerer ports.AnswerService, m *metrics.Metrics, logger *slog.Logger, cfg RouterConfig) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		answerer: answerer,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/ask", rt.ask)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = rt.accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeDetail(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := rt.answerer.Ask(r.Context(), req.Question)
	if err != nil {
		rt.logger.Error("ask failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err)
		writeDetail(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":     answer.Text,
		"latency_ms": answer.LatencyMS,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
