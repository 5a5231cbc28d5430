package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

// RE2 word boundaries are ASCII-only, so the Thai keyword sits outside the
// \b group; behavior matches the Unicode-aware original.
var idLookupPattern = regexp.MustCompile(`(?i)(?:\b(?:id|number)|รหัส)\s*:?\s*\d+`)

var sqlKeywords = []string{"avg", "average", "count", "total", "กี่คน", "เฉลี่ย"}

const routerPromptFormat = "Classify query: '%s'. Options: [1] Vector Search (Knowledge) [2] SQL (Stats/Table) [3] API (Realtime) [4] Hybrid. Reply ONLY with digit."

// IntentRouter decides which retrieval tools serve a query. Stage one is a
// synchronous regex pass; stage two asks a small model. Any failure in the
// fallback resolves to hybrid, so classification never fails a request.
type IntentRouter struct {
	completer ports.Completer
	model     string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewIntentRouter(completer ports.Completer, model string, timeout time.Duration, logger *slog.Logger) *IntentRouter {
	if timeout <= 0 {
		timeout = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentRouter{completer: completer, model: model, timeout: timeout, logger: logger}
}

func (r *IntentRouter) Classify(ctx context.Context, query string) domain.Intent {
	if idLookupPattern.MatchString(query) {
		return domain.IntentAPILookup
	}
	lowered := strings.ToLower(query)
	for _, keyword := range sqlKeywords {
		if strings.Contains(lowered, keyword) {
			return domain.IntentSQLQuery
		}
	}

	return r.classifyWithModel(ctx, query)
}

func (r *IntentRouter) classifyWithModel(ctx context.Context, query string) domain.Intent {
	if r.completer == nil {
		return domain.IntentHybrid
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.completer.Complete(callCtx, r.model, fmt.Sprintf(routerPromptFormat, query), ports.GenerateOptions{
		Temperature: 0,
		MaxTokens:   4,
	})
	if err != nil {
		r.logger.Warn("router model fallback failed, defaulting to hybrid", "error", err)
		return domain.IntentHybrid
	}

	for _, ch := range reply {
		switch ch {
		case '1':
			return domain.IntentVectorSearch
		case '2':
			return domain.IntentSQLQuery
		case '3':
			return domain.IntentAPILookup
		case '4':
			return domain.IntentHybrid
		}
	}
	return domain.IntentHybrid
}
